package suilend

import "portfolio_aggregator/internal/domain/entity"

const (
	PlatformID = "suilend"

	// PackageID is the original Suilend package; owner caps keep this type origin across upgrades.
	PackageID = "0xf95b06141ed4a174f239417323bde3f209b972f5930d8521ea38a52aff3a6ddf"

	// MainMarketID is the main pool lending market.
	MainMarketID = "0x84030d26d85eaa7035084a057f2f11f701b7e2e4eda87551becbc7c97505ece1"

	// MarketsKey stores []LendingMarket under the platform prefix.
	MarketsKey = "markets"

	obligationOwnerCapType = PackageID + "::lending_market::ObligationOwnerCap"

	elementLabel = "Lending"
)

// ltvScale: ltv fields are percents.
const ltvScale int32 = 2

var cacheOpts = entity.CacheOpts{Prefix: PlatformID, NetworkID: entity.NetworkSui} //nolint:gochecknoglobals

// Platform describes Suilend.
var Platform = entity.Platform{ //nolint:gochecknoglobals
	ID:      PlatformID,
	Name:    "Suilend",
	Website: "https://suilend.fi",
}
