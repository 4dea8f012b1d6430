package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TokenInfo holds the details of a specific token as listed in the token files.
type TokenInfo struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// TokenPrice is a USD quote for one fungible unit of a token on one network.
// Missing quotes are absent from the cache, never stored as zero.
type TokenPrice struct {
	Address   string          `json:"address" msgpack:"address"`
	NetworkID NetworkID       `json:"networkId" msgpack:"networkId"`
	Decimals  int32           `json:"decimals" msgpack:"decimals"`
	Price     decimal.Decimal `json:"price" msgpack:"price"`
	Symbol    string          `json:"symbol,omitempty" msgpack:"symbol"`
	Platform  string          `json:"platformId,omitempty" msgpack:"platform"`
	Timestamp int64           `json:"timestamp" msgpack:"timestamp"` // unix millis
}

const suiAddressHexLen = 64

// FormatTokenAddress normalizes a token address so that writers and readers of
// the price cache agree on the key. EVM addresses are lowercased; Move coin
// types get their package id zero-padded to 32 bytes.
func FormatTokenAddress(address string, networkID NetworkID) string {
	switch networkID {
	case NetworkSui:
		return formatMoveCoinType(address)
	case NetworkEthereum, NetworkArbitrum, NetworkBase, NetworkPolygon:
		return strings.ToLower(address)
	default:
		return address
	}
}

// formatMoveCoinType turns "0x2::sui::SUI" into "0x000...0002::sui::SUI".
func formatMoveCoinType(coinType string) string {
	parts := strings.SplitN(coinType, "::", 2)
	pkg := strings.TrimPrefix(strings.ToLower(parts[0]), "0x")
	if len(pkg) < suiAddressHexLen {
		pkg = strings.Repeat("0", suiAddressHexLen-len(pkg)) + pkg
	}
	if len(parts) == 1 {
		return "0x" + pkg
	}
	return "0x" + pkg + "::" + parts[1]
}
