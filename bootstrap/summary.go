package bootstrap

import (
	"strings"
	"time"

	"github.com/kbukum/audioreport/logger"
)

// logSummary logs the effective setup once startup completes.
func (a *App) logSummary(took time.Duration) {
	cfg := a.Cfg
	fields := logger.Fields(
		logger.FieldBackend, a.Backend.Name(),
		"models_dir", cfg.Models.Dir,
		"models", strings.Join(a.Models.AllowList(), ","),
		logger.FieldDevice, cfg.Models.Device,
		"strict_custom", cfg.Models.StrictCustom,
		"report_dir", cfg.Report.Dir,
		"unique_names", cfg.Report.UniqueNames,
		"publish", cfg.Report.Publish.Enabled,
		"telemetry", cfg.Observability.Enabled,
		"startup_ms", took.Milliseconds(),
	)
	if cfg.Report.Publish.Enabled {
		fields["publish_bucket"] = cfg.Report.Publish.Bucket
	}
	a.Logger.Info("audioreport ready", fields)
}
