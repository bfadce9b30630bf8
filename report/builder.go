package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/storage"
)

// ErrEmptyTranscript is returned when there is no text to report on.
var ErrEmptyTranscript = errors.New("report: empty transcript")

// Report describes a written report file.
type Report struct {
	// Name is the object name within the report store.
	Name   string `json:"name"`
	Format Format `json:"format"`
	// Body is the unsanitized report text.
	Body string `json:"body"`
	// Path is the file path on disk, or Name for stores without one.
	Path string `json:"path"`
	// URL is set when the report was published remotely.
	URL  string `json:"url,omitempty"`
	Size int    `json:"size"`
}

// signer is implemented by stores that presign download URLs.
type signer interface {
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// Builder composes, renders and stores reports.
type Builder struct {
	cfg       Config
	store     storage.Storage
	publisher storage.Storage
	newID     func(ctx context.Context) string
	log       *logger.Logger
	metrics   *observability.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithPublisher copies every report to publisher after writing it locally.
func WithPublisher(publisher storage.Storage) Option {
	return func(b *Builder) { b.publisher = publisher }
}

// WithLogger sets the builder's logger.
func WithLogger(l *logger.Logger) Option { return func(b *Builder) { b.log = l } }

// WithMetrics records the report stage duration.
func WithMetrics(m *observability.Metrics) Option { return func(b *Builder) { b.metrics = m } }

// WithIDFunc replaces the unique-name token generator.
func WithIDFunc(fn func(ctx context.Context) string) Option {
	return func(b *Builder) { b.newID = fn }
}

// NewBuilder creates a Builder writing into store.
func NewBuilder(cfg Config, store storage.Storage, opts ...Option) *Builder {
	cfg.ApplyDefaults()
	b := &Builder{
		cfg:   cfg,
		store: store,
		newID: requestToken,
		log:   logger.Get("report"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// requestToken uses the request id when present so file names can be
// matched with log lines.
func requestToken(ctx context.Context) string {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

// FileName returns the object name a report of format f is written to.
func (b *Builder) FileName(ctx context.Context, f Format) string {
	if b.cfg.UniqueNames {
		return BaseName + "_" + b.newID(ctx) + "." + f.Extension()
	}
	return BaseName + "." + f.Extension()
}

// Build writes a report for text and returns where it went.
//
// Errors: ErrEmptyTranscript, UNSUPPORTED_FORMAT or REPORT_WRITE_FAILED
// AppErrors. A failed remote publish is logged and leaves URL empty.
func (b *Builder) Build(ctx context.Context, text string, elapsedSeconds float64, format string) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTranscript
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanReport)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrFormat, string(f))

	start := time.Now()
	defer func() { b.metrics.RecordStage(ctx, "report", time.Since(start)) }()

	name := b.FileName(ctx, f)
	body := Compose(text, elapsedSeconds)
	data, err := render(f, Sanitize(body))
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.ReportWrite(name, err)
	}

	if err := b.store.Upload(ctx, name, bytes.NewReader(data), f.ContentType()); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.ReportWrite(name, err)
	}

	rep := &Report{Name: name, Format: f, Body: body, Path: name, Size: len(data)}
	if loc, ok := b.store.(storage.Locator); ok {
		if p, err := loc.LocalPath(name); err == nil {
			rep.Path = p
		}
	}
	if b.publisher != nil {
		rep.URL = b.publish(ctx, name, f, data)
	}

	b.log.WithContext(ctx).Info("report written", logger.Fields(
		logger.FieldFormat, string(f),
		logger.FieldReportPath, rep.Path,
		"size", rep.Size,
	))
	return rep, nil
}

func (b *Builder) publish(ctx context.Context, name string, f Format, data []byte) string {
	log := b.log.WithContext(ctx)
	if err := b.publisher.Upload(ctx, name, bytes.NewReader(data), f.ContentType()); err != nil {
		log.Warn("report publish failed", logger.MergeWithError(logger.Fields(logger.FieldReportPath, name), err))
		return ""
	}

	var (
		url string
		err error
	)
	if s, ok := b.publisher.(signer); ok && b.cfg.Publish.URLExpiry > 0 {
		url, err = s.SignedURL(ctx, name, b.cfg.Publish.URLExpiry)
	} else {
		url, err = b.publisher.URL(ctx, name)
	}
	if err != nil {
		log.Warn("report url failed", logger.MergeWithError(logger.Fields(logger.FieldReportPath, name), err))
		return ""
	}
	return url
}

func render(f Format, body string) ([]byte, error) {
	if f == FormatPDF {
		return renderPDF(body)
	}
	return []byte(body), nil
}

// Open returns the stored report called name.
func (b *Builder) Open(ctx context.Context, name string) (*Object, error) {
	f, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	rc, err := b.store.Download(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, apperrors.NotFound("report", name)
		}
		return nil, apperrors.Internal(err)
	}
	return &Object{ReadCloser: rc, Name: name, ContentType: f.ContentType()}, nil
}

// Object is an open stored report.
type Object struct {
	io.ReadCloser
	Name        string
	ContentType string
}

// formatOf accepts only names this builder could have produced.
func formatOf(name string) (Format, error) {
	if !strings.HasPrefix(name, BaseName) || strings.ContainsAny(name, `/\`) {
		return "", apperrors.NotFound("report", name)
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return "", apperrors.NotFound("report", name)
	}
	f, err := ParseFormat(name[dot+1:])
	if err != nil {
		return "", apperrors.NotFound("report", name)
	}
	return f, nil
}
