package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/audioreport/transcription"
)

var _ transcription.Preloader = (*PreloadingBackend)(nil)

// PreloadingBackend is a Backend that also loads models ahead of
// transcription, recording each load and whether its session was closed.
type PreloadingBackend struct {
	*Backend

	mu       sync.Mutex
	loadErr  error
	loadTime time.Duration
	loads    []transcription.Request
	sessions []*Session
}

// NewPreloadingBackend wraps NewBackend with Preload support.
func NewPreloadingBackend() *PreloadingBackend {
	return &PreloadingBackend{Backend: NewBackend()}
}

// WithLoadError makes Preload fail with err.
func (b *PreloadingBackend) WithLoadError(err error) *PreloadingBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr = err
	return b
}

// WithLoadTime makes Preload sleep for d before answering.
func (b *PreloadingBackend) WithLoadTime(d time.Duration) *PreloadingBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadTime = d
	return b
}

// Preload records req and returns a fresh Session.
func (b *PreloadingBackend) Preload(ctx context.Context, req transcription.Request) (transcription.Session, error) {
	b.mu.Lock()
	b.loads = append(b.loads, req)
	loadErr, loadTime := b.loadErr, b.loadTime
	b.mu.Unlock()

	if loadTime > 0 {
		select {
		case <-time.After(loadTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}

	s := &Session{}
	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()
	return s, nil
}

// Loads returns every request Preload received.
func (b *PreloadingBackend) Loads() []transcription.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]transcription.Request(nil), b.loads...)
}

// Sessions returns every session Preload handed out.
func (b *PreloadingBackend) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Session(nil), b.sessions...)
}

// Session is the in-memory model handed out by PreloadingBackend.
type Session struct {
	mu     sync.Mutex
	closed bool
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
