package bootstrap

import (
	"context"

	"github.com/kbukum/audioreport/component"
	"github.com/kbukum/audioreport/config"
	"github.com/kbukum/audioreport/observability"
)

const telemetryName = "telemetry"

// telemetry runs the OTLP exporters as a component so they start first and
// flush last.
type telemetry struct {
	cfg      observability.Config
	service  string
	version  string
	env      string
	shutdown observability.ShutdownFunc
}

func newTelemetry(cfg *config.Config) *telemetry {
	return &telemetry{cfg: cfg.Observability, service: cfg.Name, version: cfg.Version, env: cfg.Environment}
}

func (t *telemetry) Name() string { return telemetryName }

func (t *telemetry) Start(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, t.cfg, t.service, t.version, t.env)
	if err != nil {
		return err
	}
	t.shutdown = shutdown
	return nil
}

func (t *telemetry) Stop(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

func (t *telemetry) Health(context.Context) component.Health {
	if t.cfg.Enabled && t.shutdown == nil {
		return component.Health{Name: telemetryName, Status: component.StatusDegraded, Message: "exporters not started"}
	}
	return component.Health{Name: telemetryName, Status: component.StatusHealthy}
}
