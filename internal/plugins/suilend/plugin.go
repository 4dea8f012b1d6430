// Package suilend reads borrow/lend positions from the Suilend protocol on Sui.
// A job caches the lending markets; a fetcher reads obligations live.
package suilend

import (
	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// Plugin bundles the Suilend job and fetcher.
type Plugin struct {
	clients   port.ClientProvider
	logger    port.Logger
	marketIDs []string
}

// New creates the plugin. Without marketIDs the main market is read.
func New(clients port.ClientProvider, logger port.Logger, marketIDs ...string) *Plugin {
	if len(marketIDs) == 0 {
		marketIDs = []string{MainMarketID}
	}
	return &Plugin{clients: clients, logger: logger, marketIDs: marketIDs}
}

func (p *Plugin) Platform() entity.Platform {
	return Platform
}

func (p *Plugin) Jobs() []port.Job {
	return []port.Job{{
		ID:       PlatformID + "-markets",
		Label:    entity.JobLabelNormal,
		Executor: p.fetchMarkets,
	}}
}

func (p *Plugin) Fetchers() []port.Fetcher {
	return []port.Fetcher{{
		ID:        PlatformID + "-obligations",
		NetworkID: entity.NetworkSui,
		Executor:  p.fetchObligations,
	}}
}
