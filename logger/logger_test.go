package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func jsonLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()
	cfg := &Config{Level: "debug", Format: "json"}
	return NewWithWriter(cfg, "audioreport", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	return m
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestJSONOutputCarriesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf)

	l.Info("model loaded", Fields(FieldModel, "tiny", FieldDevice, "cpu"))

	m := decodeLine(t, &buf)
	if m["message"] != "model loaded" {
		t.Errorf("expected message, got %v", m["message"])
	}
	if m[FieldService] != "audioreport" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
	if m[FieldModel] != "tiny" || m[FieldDevice] != "cpu" {
		t.Errorf("expected model/device fields, got %v", m)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf).WithComponent("report")
	l.Warn("overwriting report")

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "report" {
		t.Errorf("expected component=report, got %v", m[FieldComponent])
	}
	if m["level"] != "warn" {
		t.Errorf("expected warn level, got %v", m["level"])
	}
}

func TestWithContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	if RequestIDFromContext(ctx) != "req-123" {
		t.Fatal("expected request id round trip through context")
	}
	l.WithContext(ctx).Info("processing")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-123" {
		t.Errorf("expected request_id, got %v", m[FieldRequestID])
	}
}

func TestWithContextWithoutRequestID(t *testing.T) {
	l := New(&Config{Level: "info", Format: "json"}, "test")
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when no request id is present")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf).WithError(errors.New("disk full"))
	l.Error("write failed", Fields(FieldFormat, "pdf"))

	m := decodeLine(t, &buf)
	if m[FieldFormat] != "pdf" {
		t.Errorf("expected format field, got %v", m[FieldFormat])
	}
	if m[FieldError] != "disk full" {
		t.Errorf("expected error field, got %v", m[FieldError])
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Info("nothing", Fields("k", "v"))
}

func TestInitAndGlobal(t *testing.T) {
	Init(Config{Level: "info", Format: "json", Output: "stderr", ServiceName: "svc"})
	if GetGlobalLogger() == nil {
		t.Fatal("expected global logger to be set after Init")
	}

	globalLogger = nil
	l := GetGlobalLogger()
	if l == nil || l.service != "default" {
		t.Fatal("expected default global logger to be created")
	}
	if GetGlobalLogger() != l {
		t.Error("expected the default logger to be reused")
	}
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format console, got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output stderr, got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp to be enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"pretty", Config{Level: "debug", Format: "pretty"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConsoleLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "svc", &buf)
	l.Info("hello", Fields("k", "v"))
	out := buf.String()
	if !strings.Contains(out, "[INF]") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := Nop()
	Register("pipeline", l)
	if Get("pipeline") != l {
		t.Error("expected registered logger")
	}
	if Get("unregistered-component") == nil {
		t.Error("expected fallback logger for unregistered name")
	}

	var buf bytes.Buffer
	RegisterComponents(jsonLogger(t, &buf), "model", "runner")
	Get("model").Info("loaded")
	if m := decodeLine(t, &buf); m[FieldComponent] != "model" {
		t.Errorf("expected component=model, got %v", m[FieldComponent])
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored-non-string-key", "dangling")
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f) != 2 {
		t.Errorf("expected 2 fields, got %d", len(f))
	}

	ef := ErrorFields("load", errors.New("boom"))
	if ef[FieldOperation] != "load" || ef[FieldError] != "boom" {
		t.Errorf("unexpected error fields %v", ef)
	}
}

func TestOutputWriter(t *testing.T) {
	if outputWriter("stdout") != os.Stdout {
		t.Error("expected stdout")
	}
	if outputWriter("anything") != os.Stderr {
		t.Error("expected stderr default")
	}
}
