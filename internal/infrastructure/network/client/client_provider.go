package client

import (
	"context"
	"fmt"
	"sync"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// clientProvider implements port.ClientProvider. Clients are dialed lazily and
// cached per network.
type clientProvider struct {
	definitions port.NetworkDefinitionProvider
	opts        Options
	logger      port.Logger

	mu      sync.Mutex
	evm     map[entity.NetworkID]port.BatchCaller
	objects map[entity.NetworkID]port.ObjectClient
}

// NewClientProvider creates a provider for the networks known to definitions.
func NewClientProvider(definitions port.NetworkDefinitionProvider, opts Options, logger port.Logger) port.ClientProvider {
	return &clientProvider{
		definitions: definitions,
		opts:        opts.withDefaults(),
		logger:      logger,
		evm:         make(map[entity.NetworkID]port.BatchCaller),
		objects:     make(map[entity.NetworkID]port.ObjectClient),
	}
}

func (p *clientProvider) definition(networkID entity.NetworkID, family entity.NetworkFamily) (entity.NetworkDefinition, error) {
	def, ok := p.definitions.GetNetworkDefinition(networkID)
	if !ok {
		return entity.NetworkDefinition{}, fmt.Errorf("network %s is not configured", networkID)
	}
	if def.Family != family {
		return entity.NetworkDefinition{}, fmt.Errorf("network %s is %s, not %s", networkID, def.Family, family)
	}
	return def, nil
}

// BatchCaller returns the cached EVM client of networkID, dialing it on first use.
func (p *clientProvider) BatchCaller(networkID entity.NetworkID) (port.BatchCaller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.evm[networkID]; ok {
		return c, nil
	}
	def, err := p.definition(networkID, entity.FamilyEVM)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Creating new EVM client", "network", networkID, "rpc_primary", def.PrimaryRPCURL)
	c, err := NewEVMClient(context.Background(), def, p.opts)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", networkID, "error", err)
		return nil, err
	}
	p.evm[networkID] = c
	return c, nil
}

// ObjectClient returns the cached object-model client of networkID, dialing it on first use.
func (p *clientProvider) ObjectClient(networkID entity.NetworkID) (port.ObjectClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.objects[networkID]; ok {
		return c, nil
	}
	def, err := p.definition(networkID, entity.FamilyMove)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Creating new Sui client", "network", networkID, "rpc_primary", def.PrimaryRPCURL)
	c, err := NewSuiClient(context.Background(), def, p.opts)
	if err != nil {
		p.logger.Error("Failed to create Sui client", "network", networkID, "error", err)
		return nil, err
	}
	p.objects[networkID] = c
	return c, nil
}
