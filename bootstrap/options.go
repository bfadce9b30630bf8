package bootstrap

import (
	"time"

	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/transcription"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	backend         transcription.Backend
	probe           func() bool
	gracefulTimeout time.Duration
}

// WithLogger sets the application logger instead of initializing one from
// the logging config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithBackend replaces the configured speech-recognition backend. The
// provider middleware is still applied around it.
func WithBackend(b transcription.Backend) Option {
	return func(o *appOptions) { o.backend = b }
}

// WithAcceleratorProbe overrides CUDA detection.
func WithAcceleratorProbe(probe func() bool) Option {
	return func(o *appOptions) { o.probe = probe }
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}
