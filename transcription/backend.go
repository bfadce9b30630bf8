package transcription

import (
	"context"

	"github.com/kbukum/audioreport/provider"
)

// Backend is the interface speech-to-text engines implement.
type Backend interface {
	provider.RequestResponse[Request, *Response]
}

// Session is a model held in memory by a backend.
type Session interface {
	Close() error
}

// Preloader is implemented by backends that load a model ahead of
// transcription. Preload builds the architecture, applies req.WeightsPath and
// places the model on req.Device; req.AudioPath is ignored. Failures are
// MODEL_LOAD_FAILED AppErrors.
type Preloader interface {
	Preload(ctx context.Context, req Request) (Session, error)
}

// NewRegistry creates a new registry for transcription backend factories.
func NewRegistry() *provider.Registry[Backend] {
	return provider.NewRegistry[Backend]()
}
