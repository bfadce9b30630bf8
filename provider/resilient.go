package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/resilience"
)

// WithResilience wraps a RequestResponse provider with resilience middleware.
// Empty config returns the provider unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{inner: p, cfg: cfg}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	cfg   ResilienceConfig
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	output, err := resilience.Retry(ctx, *r.cfg.Retry, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
	return output, wrapResilienceError(err)
}

// wrapResilienceError converts context errors surfaced by the retry loop to
// AppError for consistent handling across the stack.
func wrapResilienceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	default:
		return err
	}
}
