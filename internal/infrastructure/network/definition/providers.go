package networkdefinition

import (
	"fmt"
	"sort"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ID:                 entity.NetworkEthereum,
		Family:             entity.FamilyEVM,
		ChainID:            1,
		Name:               "Ethereum Mainnet",
		NativeSymbol:       "ETH",
		Decimals:           18,
		PrimaryRPCURL:      "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:    []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL:   "https://etherscan.io",
		DEXScreenerChainID: "ethereum",
	}
	Arbitrum = entity.NetworkDefinition{
		ID:                 entity.NetworkArbitrum,
		Family:             entity.FamilyEVM,
		ChainID:            42161,
		Name:               "Arbitrum One",
		NativeSymbol:       "ETH",
		Decimals:           18,
		PrimaryRPCURL:      "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:    []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL:   "https://arbiscan.io",
		DEXScreenerChainID: "arbitrum",
	}
	Base = entity.NetworkDefinition{
		ID:                 entity.NetworkBase,
		Family:             entity.FamilyEVM,
		ChainID:            8453,
		Name:               "Base Mainnet",
		NativeSymbol:       "ETH",
		Decimals:           18,
		PrimaryRPCURL:      "https://1rpc.io/base",
		FallbackRPCURLs:    []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL:   "https://basescan.org",
		DEXScreenerChainID: "base",
	}
	Polygon = entity.NetworkDefinition{
		ID:                 entity.NetworkPolygon,
		Family:             entity.FamilyEVM,
		ChainID:            137,
		Name:               "Polygon PoS",
		NativeSymbol:       "POL",
		Decimals:           18,
		PrimaryRPCURL:      "https://polygon-rpc.com/",
		FallbackRPCURLs:    []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL:   "https://polygonscan.com",
		DEXScreenerChainID: "polygon",
	}
	Sui = entity.NetworkDefinition{
		ID:                 entity.NetworkSui,
		Family:             entity.FamilyMove,
		Name:               "Sui Mainnet",
		NativeSymbol:       "SUI",
		Decimals:           9,
		PrimaryRPCURL:      "https://fullnode.mainnet.sui.io:443",
		FallbackRPCURLs:    []string{"https://sui-rpc.publicnode.com"},
		BlockExplorerURL:   "https://suiscan.xyz",
		DEXScreenerChainID: "sui",
	}

	allKnownDefinitions = map[entity.NetworkID]entity.NetworkDefinition{
		Ethereum.ID: Ethereum,
		Arbitrum.ID: Arbitrum,
		Base.ID:     Base,
		Polygon.ID:  Polygon,
		Sui.ID:      Sui,
	}
)

// Override enables a known network and optionally replaces its RPC endpoints.
type Override struct {
	ID              entity.NetworkID
	PrimaryRPCURL   string
	FallbackRPCURLs []string
}

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger            port.Logger
	activeNetworkDefs []entity.NetworkDefinition
}

var _ port.NetworkDefinitionProvider = (*NetworkDefinitionProvider)(nil)

// NewNetworkDefinitionProvider activates the networks listed in overrides, or
// every known network when overrides is empty. Unknown ids are skipped.
func NewNetworkDefinitionProvider(log port.Logger, overrides []Override) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{logger: log}

	if len(overrides) == 0 {
		for _, def := range allKnownDefinitions {
			p.activeNetworkDefs = append(p.activeNetworkDefs, def)
		}
	}

	seen := make(map[entity.NetworkID]struct{})
	for _, o := range overrides {
		if _, dup := seen[o.ID]; dup {
			p.logger.Warn(fmt.Sprintf("Duplicate network '%s' in configuration. Skipping.", o.ID))
			continue
		}
		def, ok := allKnownDefinitions[o.ID]
		if !ok {
			p.logger.Warn(fmt.Sprintf("Network '%s' is configured but has no known definition. Skipping.", o.ID))
			continue
		}
		if o.PrimaryRPCURL != "" {
			def.PrimaryRPCURL = o.PrimaryRPCURL
		}
		if len(o.FallbackRPCURLs) > 0 {
			def.FallbackRPCURLs = append([]string(nil), o.FallbackRPCURLs...)
		}
		p.activeNetworkDefs = append(p.activeNetworkDefs, def)
		seen[o.ID] = struct{}{}
	}

	sort.Slice(p.activeNetworkDefs, func(i, j int) bool {
		return p.activeNetworkDefs[i].ID < p.activeNetworkDefs[j].ID
	})
	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Active networks: %d", len(p.activeNetworkDefs)))
	for _, netDef := range p.activeNetworkDefs {
		p.logger.Debug(fmt.Sprintf("  - Active network: %s (ID: %s, family: %s)", netDef.Name, netDef.ID, netDef.Family))
	}
	return p
}

// GetAllNetworkDefinitions returns the list of active network definitions.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.activeNetworkDefs))
	copy(defsCopy, p.activeNetworkDefs)
	return defsCopy
}

// GetNetworkDefinition returns a specific network definition by its id if it's active.
func (p *NetworkDefinitionProvider) GetNetworkDefinition(id entity.NetworkID) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.ID == id {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}
