package bootstrap

import (
	"fmt"
	"time"

	"github.com/kbukum/audioreport/config"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/provider"
	"github.com/kbukum/audioreport/resilience"
	"github.com/kbukum/audioreport/transcription"
	"github.com/kbukum/audioreport/transcription/torch"
	"github.com/kbukum/audioreport/transcription/whisper"
)

type (
	asrRequest  = transcription.Request
	asrResponse = *transcription.Response
)

const tracingService = "audioreport"

// Backends returns a registry holding every built-in backend factory.
func Backends() *provider.Registry[transcription.Backend] {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(torch.BackendName, torch.Factory())
	reg.RegisterFactory(whisper.BackendName, whisper.Factory())
	return reg
}

// newBackend creates the configured backend (or uses override) and wraps
// it: retries outermost, then logging, tracing and metrics, with panic
// recovery closest to the engine.
func newBackend(cfg config.ASRConfig, override transcription.Backend, log *logger.Logger, metrics *observability.Metrics) (transcription.Backend, error) {
	b := override
	if b == nil {
		var err error
		b, err = Backends().Create(cfg.Backend, cfg.BackendConfig())
		if err != nil {
			return nil, fmt.Errorf("asr backend: %w", err)
		}
	}

	wrapped := provider.Chain(
		provider.WithLogging[asrRequest, asrResponse](log),
		provider.WithTracing[asrRequest, asrResponse](tracingService),
		provider.WithMetrics[asrRequest, asrResponse](metrics),
		provider.WithRecovery[asrRequest, asrResponse](),
	)(b)

	retry := cfg.Retry
	retry.RetryIf = resilience.DefaultRetryIf
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying backend call", logger.MergeWithError(logger.Fields(
			logger.FieldBackend, b.Name(), "attempt", attempt, "backoff", backoff.String(),
		), err))
	}
	resilient := provider.WithResilience(wrapped, provider.ResilienceConfig{Retry: &retry})
	if p, ok := b.(transcription.Preloader); ok {
		return preloadingBackend{Backend: resilient, Preloader: p}, nil
	}
	return resilient, nil
}

// preloadingBackend keeps the engine's Preload reachable once its Execute
// has been wrapped by middleware.
type preloadingBackend struct {
	transcription.Backend
	transcription.Preloader
}

func backendHint(cfg config.ASRConfig) string {
	if cfg.Backend == whisper.BackendName {
		return "whisper sidecar not reachable at " + cfg.Whisper.URL + "/health"
	}
	return cfg.Python + " not found on PATH"
}
