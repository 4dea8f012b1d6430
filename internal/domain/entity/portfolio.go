package entity

import "github.com/shopspring/decimal"

// PortfolioAssetType classifies a single holding.
type PortfolioAssetType string

const (
	AssetTypeToken       PortfolioAssetType = "token"
	AssetTypeCollectible PortfolioAssetType = "collectible"
	AssetTypeGeneric     PortfolioAssetType = "generic"
)

// PortfolioElementType classifies a group of positions.
type PortfolioElementType string

const (
	ElementTypeBorrowLend PortfolioElementType = "borrowlend"
	ElementTypeMultiple   PortfolioElementType = "multiple"
	ElementTypeLiquidity  PortfolioElementType = "liquidity"
)

// AssetAttributes carries flags about how an asset can be used.
type AssetAttributes struct {
	IsClaimable bool `json:"isClaimable,omitempty"`
}

// PortfolioAsset is one token or position holding. Price and Value are nil when unknown.
type PortfolioAsset struct {
	Type       PortfolioAssetType `json:"type"`
	NetworkID  NetworkID          `json:"networkId"`
	Address    string             `json:"address,omitempty"`
	Name       string             `json:"name,omitempty"`
	Amount     decimal.Decimal    `json:"amount"`
	Price      *decimal.Decimal   `json:"price"`
	Value      *decimal.Decimal   `json:"value"`
	Attributes AssetAttributes    `json:"attributes"`
}

// LendingData is the data of a borrowlend element.
// HealthRatio and CollateralRatio are nil when nothing is borrowed.
type LendingData struct {
	SuppliedAssets  []PortfolioAsset  `json:"suppliedAssets"`
	SuppliedValue   decimal.Decimal   `json:"suppliedValue"`
	SuppliedLtvs    []decimal.Decimal `json:"suppliedLtvs"`
	BorrowedAssets  []PortfolioAsset  `json:"borrowedAssets"`
	BorrowedValue   decimal.Decimal   `json:"borrowedValue"`
	BorrowedWeights []decimal.Decimal `json:"borrowedWeights"`
	RewardAssets    []PortfolioAsset  `json:"rewardAssets"`
	RewardValue     decimal.Decimal   `json:"rewardValue"`
	CollateralRatio *decimal.Decimal  `json:"collateralRatio"`
	HealthRatio     *decimal.Decimal  `json:"healthRatio"`
	Value           decimal.Decimal   `json:"value"`
}

// PortfolioElement is one logical position group for one platform on one network.
type PortfolioElement struct {
	Type       PortfolioElementType `json:"type"`
	NetworkID  NetworkID            `json:"networkId"`
	PlatformID string               `json:"platformId"`
	Label      string               `json:"label"`
	Value      decimal.Decimal      `json:"value"`
	Data       *LendingData         `json:"data,omitempty"`
}

// WalletPortfolio represents the aggregated elements of one owner across all
// fetchers and networks, plus the fetchers that failed.
type WalletPortfolio struct {
	Owner    string             `json:"owner"`
	Elements []PortfolioElement `json:"elements"`
	Value    decimal.Decimal    `json:"value"`
	Errors   []PortfolioError   `json:"errors,omitempty"`
	Date     int64              `json:"date"`
}

// Wallet is an owner address read from the wallets file.
type Wallet struct {
	Address string
}
