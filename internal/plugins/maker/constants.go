package maker

import "portfolio_aggregator/internal/domain/entity"

const (
	PlatformID = "maker"

	// IlksKey stores []Ilk under the platform prefix.
	IlksKey = "ilks"

	elementLabel = "Lending"
)

// Mainnet deployment.
const (
	ilkRegistryAddress   = "0x5a464C28D19848f44199D003BeF5ecc87d090F87"
	vatAddress           = "0x35D1b3F3D7966A1DFe207aa4514C12a259A0492B"
	spotterAddress       = "0x65C79fcB50Ca1594B025960e539eD7A9a6D434A3"
	getCdpsAddress       = "0x36a724Bd100c39f0Ea4D3A20F7097eE01A8Ff573"
	cdpManagerAddress    = "0x5ef30b9986345249bc32d8928B7ee64DE9435E39"
	proxyRegistryAddress = "0x4678f0a6958e4D2Bc4F1BAF7Bc52E8F3564f3fE4"
	daiAddress           = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

var cacheOpts = entity.CacheOpts{Prefix: PlatformID, NetworkID: entity.NetworkEthereum} //nolint:gochecknoglobals

// Platform describes Maker.
var Platform = entity.Platform{ //nolint:gochecknoglobals
	ID:      PlatformID,
	Name:    "Maker",
	Website: "https://makerdao.com",
}
