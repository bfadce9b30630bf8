package model

import (
	"context"
	"fmt"
	"os"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/transcription"
)

// Loader turns model identifiers into ready-to-use Models.
type Loader struct {
	registry *Registry
	backend  transcription.Backend
	cfg      Config
	probe    AcceleratorProbe
	log      *logger.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithAcceleratorProbe replaces CUDA detection.
func WithAcceleratorProbe(p AcceleratorProbe) LoaderOption {
	return func(l *Loader) { l.probe = p }
}

// WithLogger sets the loader's logger.
func WithLogger(log *logger.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a Loader that binds models to backend.
func NewLoader(registry *Registry, backend transcription.Backend, cfg Config, opts ...LoaderOption) *Loader {
	cfg.ApplyDefaults()
	l := &Loader{
		registry: registry,
		backend:  backend,
		cfg:      cfg,
		probe:    DetectCUDA,
		log:      logger.Get("model"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the registry used for resolution.
func (l *Loader) Registry() *Registry { return l.registry }

// Load resolves id and prepares a Model. Every call returns a fresh Model.
//
// Errors are *errors.AppError with code INVALID_MODEL, WEIGHTS_NOT_FOUND or
// MODEL_LOAD_FAILED.
func (l *Loader) Load(ctx context.Context, id string) (Model, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanModelLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrModel, id)

	start := time.Now()
	m, err := l.load(ctx, id)
	if err != nil {
		observability.SetSpanError(ctx, err)
		l.log.WithContext(ctx).Warn("model load failed", logger.MergeWithError(logger.Fields(
			logger.FieldModel, id,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		), err))
		return nil, err
	}

	spec := m.Spec()
	observability.SetSpanAttribute(ctx, observability.AttrModelKind, string(spec.Kind))
	observability.SetSpanAttribute(ctx, observability.AttrDevice, spec.Device)
	l.log.WithContext(ctx).Info("model loaded", logger.Fields(
		logger.FieldModel, spec.ID,
		logger.FieldModelKind, string(spec.Kind),
		logger.FieldDevice, spec.Device,
		logger.FieldBackend, spec.Backend,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return m, nil
}

func (l *Loader) load(ctx context.Context, id string) (Model, error) {
	res, err := l.registry.Resolve(id)
	if err != nil {
		return nil, err
	}

	if !l.backend.IsAvailable(ctx) {
		return nil, apperrors.ModelLoad(id, fmt.Errorf("backend %s cannot build the architecture: not available", l.backend.Name()))
	}

	spec := Spec{ID: res.ID, Kind: res.Kind, Backend: l.backend.Name()}
	switch res.Kind {
	case KindAllowListed:
		if err := l.checkWeights(res); err != nil {
			return nil, err
		}
		spec.WeightsPath = res.WeightsPath
	case KindCustom:
		info, err := os.Stat(res.Reference)
		if err != nil || info.IsDir() {
			return nil, apperrors.InvalidModel(id, "not an allow-listed model or existing checkpoint file")
		}
		spec.WeightsPath = res.Reference
		spec.Strict = l.cfg.StrictCustom
		if !spec.Strict {
			l.log.WithContext(ctx).Warn("custom checkpoint merged non-strictly; mismatched parameters are skipped",
				logger.Fields(logger.FieldModel, id))
		}
	}

	format, err := InspectCheckpoint(spec.WeightsPath)
	if err != nil {
		return nil, apperrors.ModelLoad(id, err)
	}
	spec.Checkpoint = format
	spec.Device = SelectDevice(l.cfg.Device, l.probe)

	m := &boundModel{spec: spec, language: l.cfg.Language, backend: l.backend}
	if pre, ok := l.backend.(transcription.Preloader); ok {
		sess, err := pre.Preload(ctx, transcription.Request{
			Model:       spec.ID,
			WeightsPath: spec.WeightsPath,
			Device:      spec.Device,
			Strict:      spec.Strict,
			Language:    l.cfg.Language,
		})
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
				return nil, err
			}
			return nil, apperrors.ModelLoad(id, err)
		}
		m.session = sess
	}
	return m, nil
}

// checkWeights runs before any deserialization so a missing file is reported
// as WEIGHTS_NOT_FOUND rather than a load failure.
func (l *Loader) checkWeights(res Resolution) error {
	info, err := os.Stat(res.WeightsPath)
	switch {
	case os.IsNotExist(err):
		return apperrors.WeightsNotFound(res.ID, res.WeightsPath)
	case err != nil:
		return apperrors.ModelLoad(res.ID, err)
	case info.IsDir():
		return apperrors.ModelLoad(res.ID, fmt.Errorf("%s is a directory", res.WeightsPath))
	}
	return nil
}
