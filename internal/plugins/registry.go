// Package plugins collects the platform plugins into one registry.
package plugins

import (
	"errors"
	"fmt"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/plugins/maker"
	"portfolio_aggregator/internal/plugins/suilend"
)

// ErrDuplicateID is returned when two plugins share a platform, job or fetcher id.
var ErrDuplicateID = errors.New("duplicate plugin id")

// Plugin is one platform integration: the jobs that keep its reference data
// fresh and the fetchers that read positions.
type Plugin interface {
	Platform() entity.Platform
	Jobs() []port.Job
	Fetchers() []port.Fetcher
}

// Registry holds plugins in registration order.
type Registry struct {
	plugins []Plugin
}

// NewRegistry validates that platform, job and fetcher ids are unique.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	platforms := make(map[string]struct{})
	jobs := make(map[string]struct{})
	fetchers := make(map[string]struct{})
	for _, p := range plugins {
		id := p.Platform().ID
		if _, dup := platforms[id]; dup {
			return nil, fmt.Errorf("platform %q: %w", id, ErrDuplicateID)
		}
		platforms[id] = struct{}{}
		for _, j := range p.Jobs() {
			if _, dup := jobs[j.ID]; dup {
				return nil, fmt.Errorf("job %q: %w", j.ID, ErrDuplicateID)
			}
			jobs[j.ID] = struct{}{}
		}
		for _, f := range p.Fetchers() {
			if _, dup := fetchers[f.ID]; dup {
				return nil, fmt.Errorf("fetcher %q: %w", f.ID, ErrDuplicateID)
			}
			fetchers[f.ID] = struct{}{}
		}
	}
	return &Registry{plugins: plugins}, nil
}

// Default registers every built-in plugin.
func Default(clients port.ClientProvider, logger port.Logger) (*Registry, error) {
	return NewRegistry(
		suilend.New(clients, logger),
		maker.New(clients, logger),
	)
}

// Enabled keeps the plugins that have at least one fetcher on an active network.
func (r *Registry) Enabled(networks port.NetworkDefinitionProvider) *Registry {
	var kept []Plugin
	for _, p := range r.plugins {
		for _, f := range p.Fetchers() {
			if _, ok := networks.GetNetworkDefinition(f.NetworkID); ok {
				kept = append(kept, p)
				break
			}
		}
	}
	return &Registry{plugins: kept}
}

func (r *Registry) Platforms() []entity.Platform {
	out := make([]entity.Platform, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Platform())
	}
	return out
}

func (r *Registry) Jobs() []port.Job {
	var out []port.Job
	for _, p := range r.plugins {
		out = append(out, p.Jobs()...)
	}
	return out
}

func (r *Registry) Fetchers() []port.Fetcher {
	var out []port.Fetcher
	for _, p := range r.plugins {
		out = append(out, p.Fetchers()...)
	}
	return out
}
