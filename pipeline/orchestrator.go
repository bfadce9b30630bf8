package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/report"
	"github.com/kbukum/audioreport/runner"
)

// Status tags the outcome of Process.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusNoAudio            Status = "no_audio"
	StatusModelError         Status = "model_error"
	StatusTranscriptionError Status = "transcription_error"
	StatusNoTranscript       Status = "no_transcript"
	StatusReportError        Status = "report_error"
	StatusInternalError      Status = "internal_error"
)

// User-facing messages.
const (
	NoAudioMessage      = runner.NoAudioMessage
	NoTranscriptMessage = "No valid transcription available."
	modelErrorPrefix    = "Error loading model: "
	transcriptPrefix    = "Transcription:\n\n"
	internalMessage     = "Error: internal error"
)

// Request is one processing job.
type Request struct {
	AudioPath string `json:"audio_path"`
	// Model is an allow-listed identifier.
	Model string `json:"model"`
	// CustomModel, when set, overrides Model with a checkpoint reference.
	CustomModel string `json:"custom_model,omitempty"`
	Format      string `json:"format"`
}

// ModelID returns the identifier to load.
func (r Request) ModelID() string {
	if custom := strings.TrimSpace(r.CustomModel); custom != "" {
		return custom
	}
	return r.Model
}

// Response is the outcome of Process.
type Response struct {
	RequestID   string `json:"request_id"`
	Status      Status `json:"status"`
	DisplayText string `json:"display_text"`
	// ElapsedSeconds is the transcription time, 0 when nothing was transcribed
	// or the transcript was empty.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ReportBody     string  `json:"report_body"`
	// ReportPath is empty when no report was produced.
	ReportPath string `json:"report_path"`
	ReportName string `json:"report_name,omitempty"`
	ReportURL  string `json:"report_url,omitempty"`
	// Err carries the failure behind any non-OK status except NoAudio and
	// NoTranscript.
	Err error `json:"-"`
}

// ModelLoader loads models by identifier.
type ModelLoader interface {
	Load(ctx context.Context, id string) (model.Model, error)
}

// TranscriptionRunner runs a loaded model on an audio file.
type TranscriptionRunner interface {
	Run(ctx context.Context, m model.Model, audioPath string) runner.Result
}

// ReportBuilder writes reports.
type ReportBuilder interface {
	Build(ctx context.Context, text string, elapsedSeconds float64, format string) (*report.Report, error)
}

// Orchestrator sequences the stages of one request.
type Orchestrator struct {
	loader  ModelLoader
	runner  TranscriptionRunner
	builder ReportBuilder
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(l *logger.Logger) Option { return func(o *Orchestrator) { o.log = l } }

// WithMetrics records request outcomes and stage durations.
func WithMetrics(m *observability.Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

// New creates an Orchestrator.
func New(loader ModelLoader, r TranscriptionRunner, builder ReportBuilder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		loader:  loader,
		runner:  r,
		builder: builder,
		log:     logger.Get("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs req end to end. It never panics.
func (o *Orchestrator) Process(ctx context.Context, req Request) (resp Response) {
	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, requestID)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProcess)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRequestID, requestID)
	observability.SetSpanAttribute(ctx, observability.AttrFormat, req.Format)

	start := time.Now()
	log := o.log.WithContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			err := apperrors.Internal(fmt.Errorf("pipeline panicked: %v", rec))
			resp = Response{Status: StatusInternalError, DisplayText: internalMessage, Err: err}
		}
		resp.RequestID = requestID
		observability.SetSpanAttribute(ctx, observability.AttrStatus, string(resp.Status))
		if resp.Err != nil {
			observability.SetSpanError(ctx, resp.Err)
		}
		o.metrics.RecordRequest(ctx, string(resp.Status), req.Format)
		fields := logger.Fields(
			logger.FieldStatus, string(resp.Status),
			logger.FieldModel, req.ModelID(),
			logger.FieldFormat, req.Format,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if resp.Err != nil {
			log.Warn("request processed", logger.MergeWithError(fields, resp.Err))
		} else {
			log.Info("request processed", fields)
		}
	}()

	return o.process(ctx, req)
}

func (o *Orchestrator) process(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Response{Status: StatusNoAudio, DisplayText: NoAudioMessage}
	}

	loadStart := time.Now()
	m, err := o.loader.Load(ctx, req.ModelID())
	o.metrics.RecordStage(ctx, "model_load", time.Since(loadStart))
	if err != nil {
		return modelError(err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			o.log.WithContext(ctx).Warn("release model failed", logger.ErrorFields("close", err))
		}
	}()

	res := o.runner.Run(ctx, m, req.AudioPath)
	switch {
	case res.Status == runner.StatusNoAudio:
		return Response{Status: StatusNoAudio, DisplayText: res.Text}
	case res.Status == runner.StatusFailed && apperrors.HasCode(res.Err, apperrors.ErrCodeModelLoad):
		// The backend loads lazily; its load failure is still a model error.
		return modelError(res.Err)
	case res.Status == runner.StatusFailed:
		return Response{
			Status:         StatusTranscriptionError,
			DisplayText:    res.Text,
			ElapsedSeconds: res.ElapsedSeconds,
			Err:            res.Err,
		}
	}

	if strings.TrimSpace(res.Text) == "" {
		return Response{Status: StatusNoTranscript, DisplayText: NoTranscriptMessage}
	}

	resp := Response{
		Status:         StatusOK,
		DisplayText:    transcriptPrefix + res.Text,
		ElapsedSeconds: res.ElapsedSeconds,
		ReportBody:     report.Compose(res.Text, res.ElapsedSeconds),
	}

	rep, err := o.builder.Build(ctx, res.Text, res.ElapsedSeconds, req.Format)
	if err != nil {
		resp.Status = StatusReportError
		resp.Err = err
		return resp
	}
	resp.ReportBody = rep.Body
	resp.ReportPath = rep.Path
	resp.ReportName = rep.Name
	resp.ReportURL = rep.URL
	return resp
}

func modelError(err error) Response {
	return Response{
		Status:      StatusModelError,
		DisplayText: modelErrorPrefix + message(err),
		Err:         err,
	}
}

// message returns the user-facing text of err.
func message(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
