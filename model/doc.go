// Package model resolves model identifiers and loads them into transcription
// capabilities.
//
// The Registry is a pure lookup: an identifier on the fixed allow-list
// (tiny, base, medium, small, large) maps to its local weights file, anything
// else is treated as a reference to a custom checkpoint. The Loader performs
// the side-effecting part: it checks that the backend can build the
// architecture, that the weights exist, that the checkpoint is readable, and
// picks the compute device. Weights are merged non-strictly, so checkpoints
// with missing or extra parameter names still load.
//
//	reg := model.NewRegistry(cfg)
//	loader := model.NewLoader(reg, backend, cfg)
//	m, err := loader.Load(ctx, "tiny")
//	resp, err := m.Transcribe(ctx, "sample.wav")
package model
