package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audioreport/component"
	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/server"
)

func newServer(t *testing.T, checker func(context.Context) []component.Health) *server.Server {
	t.Helper()
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	s := server.New(cfg, logger.Nop())
	s.RegisterDefaultEndpoints("audioreport", checker)
	return s
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr.Code, body
}

func TestDefaultEndpoints(t *testing.T) {
	healthy := true
	s := newServer(t, func(context.Context) []component.Health {
		status := component.StatusHealthy
		if !healthy {
			status = component.StatusUnhealthy
		}
		return []component.Health{{Name: "asr-backend", Status: status}}
	})

	if code, body := get(t, s.Handler(), "/health"); code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: %d %v", code, body)
	}
	if code, body := get(t, s.Handler(), "/info"); code != http.StatusOK || body["service"] != "audioreport" || body["version"] == "" {
		t.Errorf("info: %d %v", code, body)
	}
	if code, body := get(t, s.Handler(), "/ready"); code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("ready: %d %v", code, body)
	}

	healthy = false
	if code, body := get(t, s.Handler(), "/ready"); code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Errorf("not ready: %d %v", code, body)
	}
}

func TestRespondWithError(t *testing.T) {
	s := newServer(t, nil)
	s.Engine().GET("/missing", func(c *gin.Context) {
		server.RespondWithError(c, apperrors.NotFound("report", "x"))
	})
	s.Engine().GET("/plain", func(c *gin.Context) {
		server.RespondWithError(c, context.DeadlineExceeded)
	})

	code, body := get(t, s.Handler(), "/missing")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if errBody, _ := body["error"].(map[string]any); errBody["code"] != string(apperrors.ErrCodeNotFound) {
		t.Errorf("unexpected body %v", body)
	}
	if code, _ := get(t, s.Handler(), "/plain"); code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", code)
	}
}

func TestStartStop(t *testing.T) {
	cfg := server.Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := server.New(cfg, logger.Nop())
	s.RegisterDefaultEndpoints("audioreport", nil)

	c := server.NewComponent(s)
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := server.Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Port != 8080 || cfg.MaxBodySize != "500MB" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	bad := cfg
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected port error")
	}
	bad = cfg
	bad.MaxBodySize = "huge"
	if err := bad.Validate(); err == nil {
		t.Error("expected max_body_size error")
	}
}
