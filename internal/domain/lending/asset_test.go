package lending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

func TestTokenAsset(t *testing.T) {
	tp := entity.TokenPrice{Address: "0xabc", NetworkID: entity.NetworkEthereum, Decimals: 18, Price: d("2000")}

	asset := TokenAsset(tp, d("1.5"), nil)
	require.NotNil(t, asset.Price)
	require.NotNil(t, asset.Value)
	assert.Equal(t, "2000", asset.Price.String())
	assert.Equal(t, "3000", asset.Value.String())
	assert.Equal(t, "0xabc", asset.Address)
	assert.False(t, asset.Attributes.IsClaimable)

	override := d("1990")
	asset = TokenAsset(tp, d("2"), &override)
	assert.Equal(t, "3980", asset.Value.String())

	reward := ClaimableTokenAsset(tp, d("0.001"))
	assert.True(t, reward.Attributes.IsClaimable)
	assert.Equal(t, "2", reward.Value.String())
}

func TestAssetLabel(t *testing.T) {
	token := entity.PortfolioAsset{Type: entity.AssetTypeToken}
	assert.Equal(t, "UNK", AssetLabel(token, nil))
	assert.Equal(t, "WETH", AssetLabel(token, &entity.TokenInfo{Symbol: "WETH"}))

	token.Name = "Wrapped Ether"
	assert.Equal(t, "Wrapped Ether", AssetLabel(token, &entity.TokenInfo{Symbol: "WETH"}))

	assert.Equal(t, "Punk #1", AssetLabel(entity.PortfolioAsset{Type: entity.AssetTypeCollectible, Name: "Punk #1"}, nil))
	assert.Equal(t, "", AssetLabel(entity.PortfolioAsset{Type: "unknown"}, nil))
}
