package entity

import "strings"

// NetworkID identifies a chain across the whole application (cache keys, fetchers, prices).
type NetworkID string

const (
	NetworkEthereum NetworkID = "ethereum"
	NetworkArbitrum NetworkID = "arbitrum"
	NetworkBase     NetworkID = "base"
	NetworkPolygon  NetworkID = "polygon"
	NetworkSui      NetworkID = "sui"
)

// NetworkFamily selects which client implementation talks to a network.
type NetworkFamily string

const (
	// FamilyEVM networks are read through eth_call batches.
	FamilyEVM NetworkFamily = "evm"
	// FamilyMove networks expose an object model (owned objects, multi-get).
	FamilyMove NetworkFamily = "move"
)

// AccountFamily guesses the account model from the address length:
// 20-byte addresses are EVM, 32-byte ones are Move. An empty result means the
// address is not recognized.
func AccountFamily(address string) NetworkFamily {
	if !strings.HasPrefix(address, "0x") {
		return ""
	}
	switch len(address) {
	case 42:
		return FamilyEVM
	case 66:
		return FamilyMove
	default:
		return ""
	}
}

// NetworkDefinition holds the configuration for a specific blockchain network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ID                 NetworkID     `json:"id" yaml:"id"`
	Family             NetworkFamily `json:"family" yaml:"family"`
	ChainID            uint64        `json:"chainId,omitempty" yaml:"chainId,omitempty"`
	Name               string        `json:"name" yaml:"name"`
	NativeSymbol       string        `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals           int32         `json:"decimals" yaml:"decimals"` // native token decimals
	PrimaryRPCURL      string        `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs    []string      `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL   string        `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	DEXScreenerChainID string        `json:"dexScreenerChainId,omitempty" yaml:"dexScreenerChainId,omitempty"`
}
