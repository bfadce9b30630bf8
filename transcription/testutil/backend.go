package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/audioreport/transcription"
)

var _ transcription.Backend = (*Backend)(nil)

// Backend is an in-memory transcription.Backend with a scripted outcome.
type Backend struct {
	mu          sync.Mutex
	name        string
	unavailable bool
	resp        *transcription.Response
	err         error
	panicValue  any
	delay       time.Duration
	requests    []transcription.Request
}

// NewBackend returns a backend named "fake" that answers with an empty
// transcription.
func NewBackend() *Backend {
	empty := ""
	return &Backend{name: "fake", resp: &transcription.Response{Text: &empty}}
}

// WithText makes Execute return text.
func (b *Backend) WithText(text string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resp = &transcription.Response{Text: &text}
	b.err = nil
	return b
}

// WithResponse makes Execute return resp.
func (b *Backend) WithResponse(resp *transcription.Response) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resp = resp
	b.err = nil
	return b
}

// WithError makes Execute fail with err.
func (b *Backend) WithError(err error) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	return b
}

// WithPanic makes Execute panic with v.
func (b *Backend) WithPanic(v any) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panicValue = v
	return b
}

// WithDelay makes Execute sleep before answering.
func (b *Backend) WithDelay(d time.Duration) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
	return b
}

// Unavailable makes IsAvailable report false.
func (b *Backend) Unavailable() *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = true
	return b
}

// Requests returns every request Execute received.
func (b *Backend) Requests() []transcription.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]transcription.Request(nil), b.requests...)
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) IsAvailable(_ context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.unavailable
}

func (b *Backend) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	resp, err, p, delay := b.resp, b.err, b.panicValue, b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p != nil {
		panic(p)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
