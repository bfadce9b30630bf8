package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleYAML = `
name: transcriber
environment: production
models:
  dir: /srv/models
  device: cpu
  strict_custom: true
asr:
  backend: whisper
  whisper:
    url: http://whisper:9000
    timeout: 90s
  retry:
    max_attempts: 5
report:
  dir: /srv/reports
  unique_names: true
server:
  port: 9090
  max_body_size: 1GB
`

func TestLoadFromYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", sampleYAML)

	cfg, err := Load(WithConfigFile(path), WithFileSystem(RealFileSystem{}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "transcriber" || cfg.Environment != "production" || cfg.Debug {
		t.Errorf("service = %+v", cfg.ServiceConfig)
	}
	if cfg.Models.Dir != "/srv/models" || cfg.Models.Device != "cpu" || !cfg.Models.StrictCustom {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.ASR.Backend != "whisper" || cfg.ASR.Whisper.URL != "http://whisper:9000" {
		t.Errorf("asr = %+v", cfg.ASR)
	}
	if cfg.ASR.Whisper.Timeout != 90*time.Second {
		t.Errorf("whisper timeout = %v", cfg.ASR.Whisper.Timeout)
	}
	if cfg.ASR.Retry.MaxAttempts != 5 {
		t.Errorf("retry attempts = %d", cfg.ASR.Retry.MaxAttempts)
	}
	if cfg.Report.Dir != "/srv/reports" || !cfg.Report.UniqueNames {
		t.Errorf("report = %+v", cfg.Report)
	}
	if cfg.Server.Port != 9090 || cfg.Server.MaxBodySize != "1GB" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Logging.ServiceName != "transcriber" {
		t.Errorf("logging service = %q", cfg.Logging.ServiceName)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "models:\n  dir: weights\n")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != ServiceName || cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("service = %+v", cfg.ServiceConfig)
	}
	if cfg.ASR.Backend != "torch" || cfg.ASR.Python != "python3" {
		t.Errorf("asr = %+v", cfg.ASR)
	}
	if cfg.ASR.HelperTimeout != 30*time.Minute {
		t.Errorf("helper timeout = %v", cfg.ASR.HelperTimeout)
	}
	if cfg.ASR.Retry.MaxAttempts != 3 {
		t.Errorf("retry attempts = %d", cfg.ASR.Retry.MaxAttempts)
	}
	if cfg.Models.Device != "auto" {
		t.Errorf("device = %q", cfg.Models.Device)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", sampleYAML)
	t.Setenv("AUDIOREPORT_ASR_WHISPER_URL", "http://other:9000")
	t.Setenv("AUDIOREPORT_MODELS_STRICT_CUSTOM", "false")
	t.Setenv("AUDIOREPORT_SERVER_PORT", "7070")
	t.Setenv("UNRELATED_SERVER_PORT", "1")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ASR.Whisper.URL != "http://other:9000" {
		t.Errorf("whisper url = %q", cfg.ASR.Whisper.URL)
	}
	if cfg.Models.StrictCustom {
		t.Error("strict_custom should be overridden to false")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", sampleYAML)
	envPath := writeFile(t, dir, ".env", "AUDIOREPORT_REPORT_DIR=/tmp/from-env\n")
	t.Cleanup(func() { os.Unsetenv("AUDIOREPORT_REPORT_DIR") })

	cfg, err := Load(WithConfigFile(path), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Report.Dir != "/tmp/from-env" {
		t.Errorf("report dir = %q", cfg.Report.Dir)
	}
}

func TestLoadOverrideWins(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", sampleYAML)
	t.Setenv("AUDIOREPORT_MODELS_DIR", "/from/env")

	cfg, err := Load(WithConfigFile(path), WithOverride("models.dir", "/from/flag"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.Dir != "/from/flag" {
		t.Errorf("models dir = %q", cfg.Models.Dir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "environment: qa\nasr:\n  backend: kaldi\n")

	_, err := Load(WithConfigFile(path))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"environment", "asr.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidatePublishRequiresBucket(t *testing.T) {
	cfg := &Config{}
	cfg.Report.Publish.Enabled = true
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "report.publish") {
		t.Errorf("expected publish error, got %v", err)
	}
}

func TestBackendConfig(t *testing.T) {
	c := ASRConfig{Backend: "whisper"}
	c.Whisper.URL = "http://w:9000"
	if got := c.BackendConfig()["url"]; got != "http://w:9000" {
		t.Errorf("whisper url = %v", got)
	}

	c = ASRConfig{}
	c.ApplyDefaults()
	m := c.BackendConfig()
	if m["python"] != "python3" || m["timeout"] != 30*time.Minute {
		t.Errorf("torch config = %v", m)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("MODELS_STRICT_CUSTOM")
	for _, want := range []string{"models_strict_custom", "models.strict.custom", "models.strict_custom"} {
		if !slices.Contains(got, want) {
			t.Errorf("variants %v missing %q", got, want)
		}
	}
	if got := envKeyVariants("DEBUG"); !slices.Equal(got, []string{"debug"}) {
		t.Errorf("single-part variants = %v", got)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config/config.yml":          true,
		"./cmd/audioreport/config.yml": true,
		"./.env":                       true,
	}}
	r := &Resolver{FileSystem: fs}

	files := r.ResolveFiles(LoaderConfig{})
	if files.ConfigFile != "./cmd/audioreport/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("env file = %q", files.EnvFile)
	}

	files = r.ResolveFiles(LoaderConfig{ConfigFile: "custom.yml"})
	if files.ConfigFile != "custom.yml" {
		t.Errorf("explicit config file = %q", files.ConfigFile)
	}
}

func TestResolverNothingFound(t *testing.T) {
	files := (&Resolver{FileSystem: &mockFS{}}).ResolveFiles(LoaderConfig{})
	if files.ConfigFile != "" || files.EnvFile != "" {
		t.Errorf("files = %+v", files)
	}
}
