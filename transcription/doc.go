// Package transcription defines the backend interface and common types for
// speech-to-text engines that audioreport drives.
//
// A Backend is a provider.RequestResponse[Request, *Response], so the provider
// middleware (logging, tracing, metrics, resilience) composes around any
// engine without the engine knowing about it.
//
// # Backends
//
//   - transcription/torch: embedded Python helper running openai-whisper
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(torch.BackendName, torch.Factory())
//	backend, err := reg.Create(torch.BackendName, cfg)
//	resp, err := backend.Execute(ctx, transcription.Request{AudioPath: "sample.wav", Model: "tiny"})
package transcription
