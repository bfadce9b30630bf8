package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/runner"
	"github.com/kbukum/audioreport/transcription"
)

type stubModel struct {
	resp  *transcription.Response
	err   error
	panic any
	calls int
}

func (m *stubModel) Spec() model.Spec { return model.Spec{ID: "tiny", Kind: model.KindAllowListed} }

func (m *stubModel) Close() error { return nil }

func (m *stubModel) Transcribe(_ context.Context, _ string) (*transcription.Response, error) {
	m.calls++
	if m.panic != nil {
		panic(m.panic)
	}
	return m.resp, m.err
}

func text(s string) *transcription.Response { return &transcription.Response{Text: &s} }

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func newRunner(step time.Duration) *runner.Runner {
	return runner.New(runner.WithLogger(logger.Nop()), runner.WithClock(steppingClock(step)))
}

func TestRun_OK(t *testing.T) {
	m := &stubModel{resp: text(" Hello world.")}
	res := newRunner(1234567 * time.Microsecond).Run(context.Background(), m, "sample.wav")

	if res.Status != runner.StatusOK || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Text != " Hello world." {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.ElapsedSeconds != 1.235 {
		t.Errorf("expected 1.235, got %v", res.ElapsedSeconds)
	}
}

func TestRun_NoAudio(t *testing.T) {
	for _, path := range []string{"", "  \t"} {
		m := &stubModel{resp: text("x")}
		res := newRunner(time.Second).Run(context.Background(), m, path)
		if res.Status != runner.StatusNoAudio || res.Text != runner.NoAudioMessage || res.ElapsedSeconds != 0 {
			t.Errorf("path %q: unexpected result %+v", path, res)
		}
		if m.calls != 0 {
			t.Errorf("path %q: model must not be invoked", path)
		}
	}
}

func TestRun_MissingTextUsesPlaceholder(t *testing.T) {
	for name, resp := range map[string]*transcription.Response{
		"no text field": {Language: "en"},
		"nil response":  nil,
	} {
		res := newRunner(time.Millisecond).Run(context.Background(), &stubModel{resp: resp}, "a.wav")
		if res.Status != runner.StatusOK || res.Text != runner.MissingTextPlaceholder {
			t.Errorf("%s: unexpected result %+v", name, res)
		}
	}
}

func TestRun_EmptyTextIsOK(t *testing.T) {
	res := newRunner(time.Millisecond).Run(context.Background(), &stubModel{resp: text("")}, "a.wav")
	if res.Status != runner.StatusOK || res.Text != "" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRun_Failure(t *testing.T) {
	tests := []struct {
		name    string
		model   *stubModel
		wantMsg string
	}{
		{"plain error", &stubModel{err: errors.New("unsupported codec")}, "Error: unsupported codec"},
		{"app error", &stubModel{err: apperrors.Timeout("torch transcription")}, "Error: The request took too long. Please try again."},
		{"panic", &stubModel{panic: "tensor shape mismatch"}, "Error: model panicked: tensor shape mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newRunner(250 * time.Millisecond).Run(context.Background(), tt.model, "a.wav")
			if res.Status != runner.StatusFailed {
				t.Fatalf("expected failed status, got %+v", res)
			}
			if res.Text != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, res.Text)
			}
			if !apperrors.HasCode(res.Err, apperrors.ErrCodeTranscription) {
				t.Errorf("expected TRANSCRIPTION_FAILED, got %v", res.Err)
			}
			if res.ElapsedSeconds != 0.25 {
				t.Errorf("expected elapsed 0.25, got %v", res.ElapsedSeconds)
			}
		})
	}
}

func TestRun_LazyLoadFailureKeepsCode(t *testing.T) {
	m := &stubModel{err: apperrors.ModelLoad("tiny", errors.New("size mismatch"))}
	res := newRunner(250*time.Millisecond).Run(context.Background(), m, "a.wav")

	if res.Status != runner.StatusFailed {
		t.Fatalf("expected failed status, got %+v", res)
	}
	if !apperrors.HasCode(res.Err, apperrors.ErrCodeModelLoad) || apperrors.HasCode(res.Err, apperrors.ErrCodeTranscription) {
		t.Errorf("expected MODEL_LOAD_FAILED only, got %v", res.Err)
	}
}
