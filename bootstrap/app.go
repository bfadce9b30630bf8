package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/audioreport/api"
	"github.com/kbukum/audioreport/component"
	"github.com/kbukum/audioreport/config"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/pipeline"
	"github.com/kbukum/audioreport/report"
	"github.com/kbukum/audioreport/runner"
	"github.com/kbukum/audioreport/server"
	"github.com/kbukum/audioreport/transcription"
)

const defaultGracefulTimeout = 15 * time.Second

// App is a fully wired audioreport process.
type App struct {
	Name       string
	Version    string
	Cfg        *config.Config
	Logger     *logger.Logger
	Components *component.Registry
	Metrics    *observability.Metrics

	Backend      transcription.Backend
	Models       *model.Registry
	Loader       *model.Loader
	Runner       *runner.Runner
	Reports      *report.Builder
	Orchestrator *pipeline.Orchestrator

	gracefulTimeout time.Duration
	onReady         []Hook
	onStop          []Hook
}

// NewApp validates cfg and builds every part of the pipeline. Nothing is
// started until Run, Serve or RunTask.
func NewApp(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := appOptions{gracefulTimeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		logger.Init(cfg.Logging)
		log = logger.GetGlobalLogger()
	}

	logger.RegisterComponents(log, "model", "runner", "report", "pipeline", "server", "api", "component")

	a := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(log.WithComponent("component")),
		Metrics:         observability.DefaultMetrics(),
		gracefulTimeout: o.gracefulTimeout,
	}

	if err := a.Components.Register(newTelemetry(cfg)); err != nil {
		return nil, err
	}

	backend, err := newBackend(cfg.ASR, o.backend, log.WithComponent("asr"), a.Metrics)
	if err != nil {
		return nil, err
	}
	a.Backend = backend
	if err := a.Components.Register(component.NewChecker("asr-backend", backend.IsAvailable, backendHint(cfg.ASR))); err != nil {
		return nil, err
	}

	a.Models = model.NewRegistry(cfg.Models)
	loaderOpts := []model.LoaderOption{model.WithLogger(log.WithComponent("model"))}
	if o.probe != nil {
		loaderOpts = append(loaderOpts, model.WithAcceleratorProbe(o.probe))
	}
	a.Loader = model.NewLoader(a.Models, backend, cfg.Models, loaderOpts...)
	a.Runner = runner.New(runner.WithLogger(log.WithComponent("runner")), runner.WithMetrics(a.Metrics))

	a.Reports, err = newReportBuilder(ctx, cfg.Report, log.WithComponent("report"), a.Metrics)
	if err != nil {
		return nil, err
	}

	a.Orchestrator = pipeline.New(a.Loader, a.Runner, a.Reports,
		pipeline.WithLogger(log.WithComponent("pipeline")),
		pipeline.WithMetrics(a.Metrics),
	)
	return a, nil
}

// Transcribe processes one request.
func (a *App) Transcribe(ctx context.Context, req pipeline.Request) pipeline.Response {
	return a.Orchestrator.Process(ctx, req)
}

// NewServer builds the HTTP surface over the pipeline.
func (a *App) NewServer() *server.Server {
	srv := server.New(a.Cfg.Server, a.Logger.WithComponent("server"))
	srv.RegisterDefaultEndpoints(a.Name, a.Components.HealthAll)

	h := api.NewHandler(a.Orchestrator, a.Reports, a.Models, api.Options{
		UploadDir: a.Cfg.Server.UploadDir,
		Serialize: !a.Cfg.Report.UniqueNames,
	}, a.Logger.WithComponent("api"))
	h.Register(srv.Engine())
	return srv
}

// Serve runs the HTTP surface until ctx ends or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Components.Register(server.NewComponent(a.NewServer())); err != nil {
		return err
	}
	return a.Run(ctx)
}

// Run starts every component and blocks until a shutdown signal or ctx
// cancellation, then stops them.
func (a *App) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask runs a finite task with the same lifecycle as Run. SIGINT and
// SIGTERM cancel the task's context.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			a.Logger.Warn("component not ready", logger.Fields(
				logger.FieldComponent, h.Name, logger.FieldStatus, string(h.Status), "hint", h.Message,
			))
		}
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady: %w", err)
	}
	a.logSummary(time.Since(start))
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("shutdown signal received", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		return nil
	}
}

func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook failed", logger.ErrorFields("shutdown", err))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("shutdown", err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}
