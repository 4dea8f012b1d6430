package provider

import (
	"sync"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/tokenloader"
)

type tokenProviderImpl struct {
	tokenDir string
	logger   port.Logger

	mu          sync.Mutex
	tokensCache map[entity.NetworkID][]entity.TokenInfo
}

// NewTokenProvider creates a new TokenProvider reading token lists from tokenDir.
func NewTokenProvider(tokenDir string, logger port.Logger) port.TokenProvider {
	return &tokenProviderImpl{
		tokenDir: tokenDir,
		logger:   logger,
	}
}

// GetTokensByNetwork loads token definitions from JSON files for active networks.
// It caches the results after the first successful load.
func (p *tokenProviderImpl) GetTokensByNetwork(activeNetworkDefs []entity.NetworkDefinition) (map[entity.NetworkID][]entity.TokenInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tokensCache != nil {
		p.logger.Debug("Returning cached tokens by network")
		return filterActive(p.tokensCache, activeNetworkDefs), nil
	}

	p.logger.Debug("Loading tokens from disk", "directory", p.tokenDir)
	tokens, err := tokenloader.LoadTokens(p.tokenDir, activeNetworkDefs, p.logger)
	if err != nil {
		p.logger.Error("Failed to load tokens", "directory", p.tokenDir, "error", err)
		return nil, err
	}

	p.tokensCache = tokens
	p.logger.Info("Tokens loaded and cached successfully", "total_networks_with_tokens", len(tokens))
	return filterActive(tokens, activeNetworkDefs), nil
}

func filterActive(all map[entity.NetworkID][]entity.TokenInfo, defs []entity.NetworkDefinition) map[entity.NetworkID][]entity.TokenInfo {
	out := make(map[entity.NetworkID][]entity.TokenInfo, len(defs))
	for _, d := range defs {
		if tokens, ok := all[d.ID]; ok {
			out[d.ID] = tokens
		}
	}
	return out
}
