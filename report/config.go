package report

import (
	"time"

	"github.com/kbukum/audioreport/storage"
)

// Config configures report output.
type Config struct {
	// Dir is the directory reports are written to.
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
	// UniqueNames embeds a per-request token in each file name instead of
	// overwriting structured_report.<ext>.
	UniqueNames bool `yaml:"unique_names" mapstructure:"unique_names"`
	// Publish copies every report to a remote store.
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`
}

// PublishConfig configures remote publishing of reports.
type PublishConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// URLExpiry is the lifetime of presigned URLs. Zero returns plain URLs.
	URLExpiry      time.Duration `yaml:"url_expiry" mapstructure:"url_expiry" validate:"gte=0"`
	storage.Config `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Publish.Enabled && c.Publish.Provider == "" {
		c.Publish.Provider = storage.ProviderS3
	}
}
