package provider

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/audioreport/errors"
)

// WithRecovery returns a Middleware that converts a panic inside Execute into
// an internal AppError tagged with the provider name.
func WithRecovery[I, O any]() Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &recoveryRR[I, O]{inner: inner}
	}
}

type recoveryRR[I, O any] struct {
	inner RequestResponse[I, O]
}

func (r *recoveryRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *recoveryRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *recoveryRR[I, O]) Execute(ctx context.Context, input I) (output O, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero O
			output = zero
			err = apperrors.Internal(fmt.Errorf("%s panicked: %v", r.inner.Name(), rec)).
				WithDetail("provider", r.inner.Name())
		}
	}()
	return r.inner.Execute(ctx, input)
}
