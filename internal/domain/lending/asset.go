package lending

import (
	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/domain/entity"
)

const unknownSymbol = "UNK"

// TokenAsset builds a token asset from a cached price. priceOverride, when set,
// replaces the cached price; protocols that report their own valuation use it.
func TokenAsset(tp entity.TokenPrice, amount decimal.Decimal, priceOverride *decimal.Decimal) entity.PortfolioAsset {
	price := tp.Price
	if priceOverride != nil {
		price = *priceOverride
	}
	value := amount.Mul(price)
	return entity.PortfolioAsset{
		Type:      entity.AssetTypeToken,
		NetworkID: tp.NetworkID,
		Address:   tp.Address,
		Amount:    amount,
		Price:     &price,
		Value:     &value,
	}
}

// ClaimableTokenAsset is TokenAsset for pending rewards.
func ClaimableTokenAsset(tp entity.TokenPrice, amount decimal.Decimal) entity.PortfolioAsset {
	asset := TokenAsset(tp, amount, nil)
	asset.Attributes.IsClaimable = true
	return asset
}

// AssetLabel returns a display label for asset. Tokens fall back to the symbol
// of tokenInfo, then to "UNK".
func AssetLabel(asset entity.PortfolioAsset, tokenInfo *entity.TokenInfo) string {
	switch asset.Type {
	case entity.AssetTypeToken:
		if asset.Name != "" {
			return asset.Name
		}
		if tokenInfo != nil && tokenInfo.Symbol != "" {
			return tokenInfo.Symbol
		}
		return unknownSymbol
	case entity.AssetTypeCollectible, entity.AssetTypeGeneric:
		return asset.Name
	default:
		return ""
	}
}
