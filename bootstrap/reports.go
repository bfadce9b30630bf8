package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/report"
	"github.com/kbukum/audioreport/storage"

	// Storage providers register themselves with storage.New.
	_ "github.com/kbukum/audioreport/storage/local"
	_ "github.com/kbukum/audioreport/storage/s3"
)

// newReportBuilder writes reports to report.dir on local disk and, when
// publishing is enabled, copies them to the configured remote store.
func newReportBuilder(ctx context.Context, cfg report.Config, log *logger.Logger, metrics *observability.Metrics) (*report.Builder, error) {
	store, err := storage.New(ctx, storage.Config{Provider: storage.ProviderLocal, BasePath: cfg.Dir}, log)
	if err != nil {
		return nil, fmt.Errorf("report store: %w", err)
	}

	opts := []report.Option{report.WithLogger(log), report.WithMetrics(metrics)}
	if cfg.Publish.Enabled {
		pub, err := storage.New(ctx, cfg.Publish.Config, log)
		if err != nil {
			return nil, fmt.Errorf("report publisher: %w", err)
		}
		opts = append(opts, report.WithPublisher(pub))
	}
	return report.NewBuilder(cfg, store, opts...), nil
}
