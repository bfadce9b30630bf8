package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/config"
	"github.com/kbukum/audioreport/logger"
	modeltest "github.com/kbukum/audioreport/model/testutil"
	"github.com/kbukum/audioreport/pipeline"
	"github.com/kbukum/audioreport/resilience"
	transcriptiontest "github.com/kbukum/audioreport/transcription/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Models.Dir = t.TempDir()
	cfg.Models.Device = "cpu"
	cfg.Report.Dir = t.TempDir()
	cfg.Server.UploadDir = t.TempDir()
	cfg.ASR.Retry = resilience.RetryConfig{MaxAttempts: 1}
	modeltest.WriteAllowListed(t, cfg.Models.Dir, "tiny")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, backend *transcriptiontest.Backend) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg,
		WithLogger(logger.Nop()),
		WithBackend(backend),
		WithGracefulTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp_Transcribe(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg, transcriptiontest.NewBackend().WithText("Hello world."))

	resp := app.Transcribe(context.Background(), pipeline.Request{AudioPath: "a.wav", Model: "tiny", Format: "txt"})
	if resp.Status != pipeline.StatusOK {
		t.Fatalf("status = %s (%v)", resp.Status, resp.Err)
	}
	if resp.DisplayText != "Transcription:\n\nHello world." {
		t.Errorf("display = %q", resp.DisplayText)
	}
	want := filepath.Join(cfg.Report.Dir, "structured_report.txt")
	if resp.ReportPath != want {
		t.Errorf("path = %q, want %q", resp.ReportPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ASR.Backend = "kaldi"

	_, err := NewApp(context.Background(), cfg, WithLogger(logger.Nop()))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewApp_RetriesUnavailableBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.ASR.Retry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	backend := transcriptiontest.NewBackend().WithError(apperrors.ServiceUnavailable("fake"))
	app := newTestApp(t, cfg, backend)

	resp := app.Transcribe(context.Background(), pipeline.Request{AudioPath: "a.wav", Model: "tiny", Format: "txt"})
	if resp.Status != pipeline.StatusTranscriptionError {
		t.Fatalf("status = %s", resp.Status)
	}
	if got := len(backend.Requests()); got != 3 {
		t.Errorf("backend calls = %d, want 3", got)
	}
}

func TestNewApp_DoesNotRetryModelFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.ASR.Retry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	backend := transcriptiontest.NewBackend().WithError(errors.New("unsupported codec"))
	app := newTestApp(t, cfg, backend)

	app.Transcribe(context.Background(), pipeline.Request{AudioPath: "a.wav", Model: "tiny", Format: "txt"})
	if got := len(backend.Requests()); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

func TestBackendsRegistersBuiltins(t *testing.T) {
	names := Backends().List()
	for _, want := range []string{"torch", "whisper"} {
		if !slices.Contains(names, want) {
			t.Errorf("backend %q not registered: %v", want, names)
		}
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app := newTestApp(t, testConfig(t), transcriptiontest.NewBackend())

	var order []string
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if strings.Join(order, ",") != "ready,task,stop" {
		t.Errorf("order = %v", order)
	}
}

func TestRunTask_ReturnsTaskError(t *testing.T) {
	app := newTestApp(t, testConfig(t), transcriptiontest.NewBackend())
	boom := errors.New("boom")

	if err := app.RunTask(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t, testConfig(t), transcriptiontest.NewBackend())
	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewServer_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t), transcriptiontest.NewBackend())
	h := app.NewServer().Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("models status = %d", rec.Code)
	}
	var body struct {
		Data struct {
			Models []string `json:"models"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(body.Data.Models, "medium") {
		t.Errorf("models = %v", body.Data.Models)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewServer_NotReadyWhenBackendDown(t *testing.T) {
	app := newTestApp(t, testConfig(t), transcriptiontest.NewBackend().Unavailable())

	rec := httptest.NewRecorder()
	app.NewServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d", rec.Code)
	}
}

func TestNewApp_PreloadSurvivesMiddleware(t *testing.T) {
	cfg := testConfig(t)
	backend := transcriptiontest.NewPreloadingBackend()
	backend.WithText("Hello world.")
	app, err := NewApp(context.Background(), cfg,
		WithLogger(logger.Nop()),
		WithBackend(backend),
		WithGracefulTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	resp := app.Transcribe(context.Background(), pipeline.Request{AudioPath: "a.wav", Model: "tiny", Format: "txt"})
	if resp.Status != pipeline.StatusOK {
		t.Fatalf("status = %s (%v)", resp.Status, resp.Err)
	}
	if got := len(backend.Loads()); got != 1 {
		t.Fatalf("preloads = %d, want 1", got)
	}
	sessions := backend.Sessions()
	if len(sessions) != 1 || !sessions[0].Closed() {
		t.Error("session must be closed once the request is done")
	}
	if reqs := backend.Requests(); len(reqs) != 1 || reqs[0].Session != sessions[0] {
		t.Errorf("transcription did not run on the preloaded session: %+v", reqs)
	}
}
