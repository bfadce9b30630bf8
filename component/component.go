package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the process.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Checker probes availability of a dependency that has no lifecycle of its
// own, such as a remote backend.
type Checker struct {
	name  string
	probe func(ctx context.Context) bool
	hint  string
}

// NewChecker returns a component whose health is probe's answer. hint is
// reported when the probe fails.
func NewChecker(name string, probe func(ctx context.Context) bool, hint string) *Checker {
	return &Checker{name: name, probe: probe, hint: hint}
}

func (c *Checker) Name() string { return c.name }
func (c *Checker) Start(context.Context) error { return nil }
func (c *Checker) Stop(context.Context) error { return nil }

func (c *Checker) Health(ctx context.Context) Health {
	if c.probe(ctx) {
		return Health{Name: c.name, Status: StatusHealthy}
	}
	return Health{Name: c.name, Status: StatusUnhealthy, Message: c.hint}
}
