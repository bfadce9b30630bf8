// Package runner times a single transcription and turns its outcome into a
// tagged Result.
package runner

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/transcription"
)

// Status tags the outcome of a run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusNoAudio Status = "no_audio"
	StatusFailed  Status = "failed"
)

const (
	// NoAudioMessage is the text of a run without an audio path.
	NoAudioMessage = "No audio file provided."
	// MissingTextPlaceholder replaces a transcription that carried no text.
	MissingTextPlaceholder = "No transcription available."
)

// Result is the outcome of one run.
type Result struct {
	// Text is the transcription, or a user-facing message for NoAudio and
	// Failed results.
	Text string
	// ElapsedSeconds covers only the model call, rounded to milliseconds.
	ElapsedSeconds float64
	Status         Status
	// Err is a TRANSCRIPTION_FAILED or MODEL_LOAD_FAILED AppError when Status
	// is StatusFailed.
	Err error
}

// Runner invokes models and measures them.
type Runner struct {
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithMetrics records the transcribe stage duration.
func WithMetrics(m *observability.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{log: logger.Get("runner"), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run transcribes audioPath with m. It never panics and never returns an
// error separately from the Result.
func (r *Runner) Run(ctx context.Context, m model.Model, audioPath string) Result {
	if strings.TrimSpace(audioPath) == "" {
		return Result{Text: NoAudioMessage, Status: StatusNoAudio}
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()

	start := r.now()
	resp, err := r.invoke(ctx, m, audioPath)
	elapsed := r.now().Sub(start)
	seconds := roundMillis(elapsed)

	r.metrics.RecordStage(ctx, "transcribe", elapsed)
	log := r.log.WithContext(ctx)

	if err != nil {
		observability.SetSpanError(ctx, err)
		failure := transcriptionFailure(err)
		log.Error("transcription failed", logger.MergeWithError(logger.Fields(
			logger.FieldAudioPath, audioPath,
			logger.FieldDuration, elapsed.Milliseconds(),
		), err))
		return Result{
			Text:           "Error: " + failure.Message,
			ElapsedSeconds: seconds,
			Status:         StatusFailed,
			Err:            failure,
		}
	}

	log.Info("transcription finished", logger.Fields(
		logger.FieldAudioPath, audioPath,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return Result{
		Text:           resp.TextOr(MissingTextPlaceholder),
		ElapsedSeconds: seconds,
		Status:         StatusOK,
	}
}

func (r *Runner) invoke(ctx context.Context, m model.Model, audioPath string) (resp *transcription.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp, err = nil, fmt.Errorf("model panicked: %v", rec)
		}
	}()
	return m.Transcribe(ctx, audioPath)
}

// transcriptionFailure wraps err as TRANSCRIPTION_FAILED. An AppError cause
// contributes its message without the code prefix. MODEL_LOAD_FAILED passes
// through for backends that only load the model when asked to transcribe.
func transcriptionFailure(err error) *apperrors.AppError {
	if apperrors.HasCode(err, apperrors.ErrCodeTranscription) || apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
		appErr, _ := apperrors.AsAppError(err)
		return appErr
	}
	failure := apperrors.TranscriptionFailed(err)
	if appErr, ok := apperrors.AsAppError(err); ok {
		failure.Message = appErr.Message
	}
	return failure
}

func roundMillis(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
