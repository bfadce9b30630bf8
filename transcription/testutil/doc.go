// Package testutil provides a scripted transcription.Backend for tests.
//
//	backend := testutil.NewBackend().WithText("hello world")
//	loader := model.NewLoader(reg, backend, cfg)
package testutil
