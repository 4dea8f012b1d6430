// Package maker reads collateralized debt positions from the Maker protocol on Ethereum.
package maker

import (
	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// Plugin bundles the ilks job and the vaults fetcher.
type Plugin struct {
	clients port.ClientProvider
	logger  port.Logger
}

// New creates the plugin.
func New(clients port.ClientProvider, logger port.Logger) *Plugin {
	return &Plugin{clients: clients, logger: logger}
}

func (p *Plugin) Platform() entity.Platform {
	return Platform
}

func (p *Plugin) Jobs() []port.Job {
	return []port.Job{{
		ID:       PlatformID + "-ilks",
		Label:    entity.JobLabelNormal,
		Executor: p.fetchIlks,
	}}
}

func (p *Plugin) Fetchers() []port.Fetcher {
	return []port.Fetcher{{
		ID:        PlatformID + "-vaults",
		NetworkID: entity.NetworkEthereum,
		Executor:  p.fetchVaults,
	}}
}
