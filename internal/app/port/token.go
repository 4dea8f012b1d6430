package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// TokenProvider defines the interface for fetching token definitions.
type TokenProvider interface {
	// GetTokensByNetwork returns the listed tokens of every active network keyed by network id.
	GetTokensByNetwork(activeNetworkDefs []entity.NetworkDefinition) (map[entity.NetworkID][]entity.TokenInfo, error)
}

// TokenQuote is one USD price reported by a price source.
type TokenQuote struct {
	Address  string
	Symbol   string
	PriceUSD string
	// LiquidityUSD ranks competing quotes for the same token.
	LiquidityUSD float64
	QuoteSymbol  string
}

// TokenPriceSource quotes USD prices for a batch of tokens on one chain.
type TokenPriceSource interface {
	GetQuotes(ctx context.Context, sourceChainID string, tokenAddresses []string) ([]TokenQuote, error)
}
