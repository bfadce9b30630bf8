package provider

import (
	"github.com/kbukum/audioreport/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped; zero config means pure passthrough.
type ResilienceConfig struct {
	// Retry automatically retries failed calls with exponential backoff.
	Retry *resilience.RetryConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.Retry == nil
}
