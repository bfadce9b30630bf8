package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/audioreport/model"
	"github.com/kbukum/audioreport/observability"
	"github.com/kbukum/audioreport/report"
	"github.com/kbukum/audioreport/resilience"
	"github.com/kbukum/audioreport/server"
	"github.com/kbukum/audioreport/transcription/torch"
	"github.com/kbukum/audioreport/transcription/whisper"
	"github.com/kbukum/audioreport/validation"
)

const (
	defaultHelperTimeout = 30 * time.Minute
	defaultPython        = "python3"
)

// Config is the full audioreport configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Models        model.Config         `yaml:"models" mapstructure:"models"`
	ASR           ASRConfig            `yaml:"asr" mapstructure:"asr"`
	Report        report.Config        `yaml:"report" mapstructure:"report"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ASRConfig selects and configures the speech-recognition backend.
type ASRConfig struct {
	// Backend is the registered backend name.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=torch whisper"`
	// Python runs the torch helper.
	Python string `yaml:"python" mapstructure:"python"`
	// HelperTimeout bounds one torch helper run.
	HelperTimeout time.Duration `yaml:"helper_timeout" mapstructure:"helper_timeout" validate:"gte=0"`
	// ScriptDir is where the torch helper script is materialized.
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`
	// Env is extra KEY=value environment for the torch helper.
	Env []string `yaml:"env" mapstructure:"env"`

	Whisper whisper.Config `yaml:"whisper" mapstructure:"whisper"`

	// Retry wraps backend calls. MaxAttempts 1 disables retries.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// BackendConfig returns the factory settings for the selected backend.
func (c ASRConfig) BackendConfig() map[string]any {
	switch c.Backend {
	case whisper.BackendName:
		return map[string]any{
			"url":          c.Whisper.URL,
			"language":     c.Whisper.Language,
			"compute_type": c.Whisper.ComputeType,
			"timeout":      c.Whisper.Timeout,
		}
	default:
		return map[string]any{
			"python":     c.Python,
			"timeout":    c.HelperTimeout,
			"script_dir": c.ScriptDir,
			"env":        c.Env,
		}
	}
}

// ApplyDefaults fills in zero-valued fields.
func (c *ASRConfig) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = torch.BackendName
	}
	if c.Python == "" {
		c.Python = defaultPython
	}
	if c.HelperTimeout == 0 {
		c.HelperTimeout = defaultHelperTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		def := resilience.DefaultRetryConfig()
		c.Retry.MaxAttempts = def.MaxAttempts
		if c.Retry.InitialBackoff == 0 {
			c.Retry.InitialBackoff = def.InitialBackoff
		}
		if c.Retry.MaxBackoff == 0 {
			c.Retry.MaxBackoff = def.MaxBackoff
		}
		if c.Retry.BackoffFactor == 0 {
			c.Retry.BackoffFactor = def.BackoffFactor
		}
	}
}

// ApplyDefaults fills in zero-valued fields across every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Models.ApplyDefaults()
	c.ASR.ApplyDefaults()
	c.Report.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ServiceConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := validation.Validate(c); err != nil {
		errs = append(errs, err)
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Report.Publish.Enabled {
		if err := c.Report.Publish.Config.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("report.publish: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Load reads the configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadInto(&cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
