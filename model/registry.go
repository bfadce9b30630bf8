package model

import (
	"path/filepath"
	"slices"
	"strings"

	apperrors "github.com/kbukum/audioreport/errors"
)

// Kind distinguishes allow-listed models from user-supplied checkpoints.
type Kind string

const (
	KindAllowListed Kind = "allow_listed"
	KindCustom      Kind = "custom"
)

// allowList is ordered for display.
var allowList = []string{"tiny", "base", "medium", "small", "large"}

// Resolution is the outcome of classifying a model identifier.
type Resolution struct {
	ID   string
	Kind Kind
	// WeightsPath is set for allow-listed models.
	WeightsPath string
	// Reference is the unchanged identifier of a custom model.
	Reference string
}

// Registry maps model identifiers to weights locations.
type Registry struct {
	dir       string
	overrides map[string]string
}

// NewRegistry creates a Registry from cfg. Overrides for ids outside the
// allow-list are ignored.
func NewRegistry(cfg Config) *Registry {
	cfg.ApplyDefaults()
	overrides := make(map[string]string, len(cfg.Weights))
	for id, path := range cfg.Weights {
		if slices.Contains(allowList, id) && path != "" {
			overrides[id] = path
		}
	}
	return &Registry{dir: cfg.Dir, overrides: overrides}
}

// AllowList returns the allow-listed identifiers in display order.
func (r *Registry) AllowList() []string {
	return slices.Clone(allowList)
}

// IsAllowed reports whether id is on the allow-list.
func (r *Registry) IsAllowed(id string) bool {
	return slices.Contains(allowList, id)
}

// WeightsPath returns the local weights path for an allow-listed id.
func (r *Registry) WeightsPath(id string) string {
	if p, ok := r.overrides[id]; ok {
		return p
	}
	return filepath.Join(r.dir, "whisper_"+id+".pth")
}

// Resolve classifies id. It never touches the filesystem.
func (r *Registry) Resolve(id string) (Resolution, error) {
	if strings.TrimSpace(id) == "" {
		return Resolution{}, apperrors.InvalidModel(id, "empty model identifier")
	}
	if r.IsAllowed(id) {
		return Resolution{ID: id, Kind: KindAllowListed, WeightsPath: r.WeightsPath(id)}, nil
	}
	return Resolution{ID: id, Kind: KindCustom, Reference: id}, nil
}
