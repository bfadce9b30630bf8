package model

import (
	"context"

	"github.com/kbukum/audioreport/transcription"
	"github.com/kbukum/audioreport/validation"
)

// Spec describes a loaded model.
type Spec struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	WeightsPath string           `json:"weights_path"`
	Checkpoint  CheckpointFormat `json:"checkpoint"`
	Device      string           `json:"device"`
	Strict      bool             `json:"strict"`
	Backend     string           `json:"backend"`
}

// Model transcribes audio files. Close releases whatever the backend holds
// in memory for it.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (*transcription.Response, error)
	Spec() Spec
	Close() error
}

// boundModel is a Spec bound to the backend that executes it. session is
// set when the backend loaded the model during Load.
type boundModel struct {
	spec     Spec
	language string
	backend  transcription.Backend
	session  transcription.Session
}

func (m *boundModel) Spec() Spec { return m.spec }

func (m *boundModel) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Close()
}

func (m *boundModel) Transcribe(ctx context.Context, audioPath string) (*transcription.Response, error) {
	req := transcription.Request{
		AudioPath:   audioPath,
		Model:       m.spec.ID,
		WeightsPath: m.spec.WeightsPath,
		Device:      m.spec.Device,
		Strict:      m.spec.Strict,
		Language:    m.language,
		Session:     m.session,
	}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	return m.backend.Execute(ctx, req)
}
