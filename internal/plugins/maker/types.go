package maker

import (
	"strings"

	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/domain/entity"
)

// Ilk is a collateral type and its risk parameters. Raw integer fields keep
// their on-chain scale: Art wad, Rate ray, Spot ray, Line rad, Dust rad, Mat ray.
type Ilk struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Symbol        string             `json:"symbol"`
	Gem           string             `json:"gem"`
	Dec           int32              `json:"dec"`
	Join          string             `json:"join"`
	Pip           string             `json:"pip"`
	Art           decimal.Decimal    `json:"art"`
	Rate          decimal.Decimal    `json:"rate"`
	Spot          decimal.Decimal    `json:"spot"`
	Line          decimal.Decimal    `json:"line"`
	Dust          decimal.Decimal    `json:"dust"`
	Mat           decimal.Decimal    `json:"mat"`
	GemTokenPrice *entity.TokenPrice `json:"gemTokenPrice,omitempty"`
}

// Urn is one vault: a cdp id, its urn address and the ilk it is opened on.
// Ink and Art are wad-scaled.
type Urn struct {
	CdpID string          `json:"cdpId"`
	Urn   string          `json:"urn"`
	Ilk   string          `json:"ilk"`
	Ink   decimal.Decimal `json:"ink"`
	Art   decimal.Decimal `json:"art"`
}

// ilkLabel turns a zero-padded bytes32 ilk id into "ETH-A".
func ilkLabel(id [32]byte) string {
	return strings.TrimRight(string(id[:]), "\x00")
}
