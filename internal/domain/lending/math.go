// Package lending converts on-chain fixed-point fields into asset amounts and
// computes the composite metrics of borrow/lend positions. All arithmetic is
// done on arbitrary-precision decimals.
package lending

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fixed-point scales as powers of ten.
const (
	WadScale int32 = 18
	RayScale int32 = 27
	RadScale int32 = 45
	BpsScale int32 = 4
	PctScale int32 = 2
)

// AmountPrecision is the number of fractional digits kept for token amounts.
// Anything smaller rounds to zero.
const AmountPrecision int32 = 18

// divPrecision bounds the fractional digits of intermediate quotients.
const divPrecision int32 = 40

// FromFixedPoint returns raw / 10^scale.
func FromFixedPoint(raw decimal.Decimal, scale int32) decimal.Decimal {
	return raw.Shift(-scale)
}

// FromBigInt returns raw / 10^scale. A nil raw is zero.
func FromBigInt(raw *big.Int, scale int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -scale)
}

// ParseFixedPoint parses a base-10 integer string and scales it down by 10^scale.
func ParseFixedPoint(raw string, scale int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Shift(-scale), nil
}

// SupplyAmount converts deposited share tokens into underlying token units:
//
//	shares * (available + borrowedWad/10^18) / totalShares / 10^decimals
//
// A zero share supply yields zero.
func SupplyAmount(depositedShares, availableLiquidity, borrowedWad, totalShares decimal.Decimal, decimals int32) decimal.Decimal {
	if totalShares.IsZero() {
		return decimal.Zero
	}
	liquidity := availableLiquidity.Add(borrowedWad.Shift(-WadScale))
	return depositedShares.Mul(liquidity).
		DivRound(totalShares, divPrecision).
		Shift(-decimals).
		Truncate(AmountPrecision)
}

// BorrowAmount scales a borrowed amount recorded at snapshotRate up to currentRate:
//
//	raw * (current / snapshot) / 10^(wadScale + decimals)
//
// A zero snapshot yields zero. Callers drop zero results as fully repaid.
func BorrowAmount(rawBorrowed, currentRate, snapshotRate decimal.Decimal, wadScale, decimals int32) decimal.Decimal {
	if snapshotRate.IsZero() {
		return decimal.Zero
	}
	return rawBorrowed.Mul(currentRate).
		DivRound(snapshotRate, divPrecision).
		Shift(-(wadScale + decimals)).
		Truncate(AmountPrecision)
}

// DerivePrice returns the unit price implied by a USD market value reported by
// the protocol itself. Nil when amount is zero.
func DerivePrice(marketValue, amount decimal.Decimal) *decimal.Decimal {
	if amount.IsZero() {
		return nil
	}
	p := marketValue.DivRound(amount, divPrecision)
	return &p
}

// RewardAccrual returns (current - snapshot) * share / 10^wadScale in raw token
// units. Non-positive accruals are reported as zero.
func RewardAccrual(currentPerShare, snapshotPerShare, share decimal.Decimal, wadScale int32) decimal.Decimal {
	accrued := currentPerShare.Sub(snapshotPerShare).Mul(share).Shift(-wadScale)
	if !accrued.IsPositive() {
		return decimal.Zero
	}
	return accrued
}

// RewardAccumulator sums accruals per reward mint, keeping first-seen order.
type RewardAccumulator struct {
	order   []string
	amounts map[string]decimal.Decimal
}

// NewRewardAccumulator creates an empty accumulator.
func NewRewardAccumulator() *RewardAccumulator {
	return &RewardAccumulator{amounts: make(map[string]decimal.Decimal)}
}

// Add records amount for mint. Zero amounts are ignored and reported as false.
func (a *RewardAccumulator) Add(mint string, amount decimal.Decimal) bool {
	if amount.IsZero() {
		return false
	}
	prev, ok := a.amounts[mint]
	if !ok {
		a.order = append(a.order, mint)
		a.amounts[mint] = amount
		return true
	}
	a.amounts[mint] = prev.Add(amount)
	return true
}

// Len returns the number of distinct mints.
func (a *RewardAccumulator) Len() int {
	return len(a.order)
}

// Each calls fn for every mint in first-seen order.
func (a *RewardAccumulator) Each(fn func(mint string, amount decimal.Decimal)) {
	for _, mint := range a.order {
		fn(mint, a.amounts[mint])
	}
}
