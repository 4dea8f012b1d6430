package lending

import (
	"fmt"

	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/domain/entity"
)

// LendingValues are the aggregate metrics of a borrow/lend element.
type LendingValues struct {
	SuppliedValue decimal.Decimal
	BorrowedValue decimal.Decimal
	RewardValue   decimal.Decimal
	// WeightedLtv is the value-weighted average LTV of supplied assets.
	WeightedLtv decimal.Decimal
	// WeightedBorrowedValue is the borrowed value scaled by per-asset borrow weights.
	WeightedBorrowedValue decimal.Decimal
	// HealthRatio is nil when nothing is borrowed, meaning unbounded.
	HealthRatio     *decimal.Decimal
	CollateralRatio *decimal.Decimal
	Value           decimal.Decimal
}

// ElementLendingValues computes the aggregate metrics of supplied, borrowed and
// reward assets. suppliedLtvs and borrowedWeights are aligned with their asset
// lists; a missing LTV counts as zero and a missing weight as one. Assets
// without a value contribute nothing.
func ElementLendingValues(
	supplied, borrowed, rewards []entity.PortfolioAsset,
	suppliedLtvs, borrowedWeights []decimal.Decimal,
) LendingValues {
	var v LendingValues
	collateral := decimal.Zero
	for i, asset := range supplied {
		if asset.Value == nil {
			continue
		}
		v.SuppliedValue = v.SuppliedValue.Add(*asset.Value)
		if i < len(suppliedLtvs) {
			collateral = collateral.Add(asset.Value.Mul(suppliedLtvs[i]))
		}
	}
	for i, asset := range borrowed {
		if asset.Value == nil {
			continue
		}
		v.BorrowedValue = v.BorrowedValue.Add(*asset.Value)
		weight := decimal.NewFromInt(1)
		if i < len(borrowedWeights) {
			weight = borrowedWeights[i]
		}
		v.WeightedBorrowedValue = v.WeightedBorrowedValue.Add(asset.Value.Mul(weight))
	}
	for _, asset := range rewards {
		if asset.Value != nil {
			v.RewardValue = v.RewardValue.Add(*asset.Value)
		}
	}

	if !v.SuppliedValue.IsZero() {
		v.WeightedLtv = collateral.DivRound(v.SuppliedValue, divPrecision)
	}
	if !v.BorrowedValue.IsZero() {
		// debt carrying only zero weights is still debt: fall back to its plain value
		denominator := v.WeightedBorrowedValue
		if !denominator.IsPositive() {
			denominator = v.BorrowedValue
		}
		hr := v.SuppliedValue.Mul(v.WeightedLtv).DivRound(denominator, divPrecision)
		v.HealthRatio = &hr
	}
	if !v.BorrowedValue.IsZero() {
		cr := v.SuppliedValue.DivRound(v.BorrowedValue, divPrecision)
		v.CollateralRatio = &cr
	}
	v.Value = v.SuppliedValue.Sub(v.BorrowedValue).Add(v.RewardValue)
	return v
}

// NewBorrowLendElement assembles a borrowlend element from fully accumulated asset lists.
func NewBorrowLendElement(
	networkID entity.NetworkID,
	platformID, label string,
	supplied, borrowed, rewards []entity.PortfolioAsset,
	suppliedLtvs, borrowedWeights []decimal.Decimal,
) entity.PortfolioElement {
	v := ElementLendingValues(supplied, borrowed, rewards, suppliedLtvs, borrowedWeights)
	return entity.PortfolioElement{
		Type:       entity.ElementTypeBorrowLend,
		NetworkID:  networkID,
		PlatformID: platformID,
		Label:      label,
		Value:      v.Value,
		Data: &entity.LendingData{
			SuppliedAssets:  nonNil(supplied),
			SuppliedValue:   v.SuppliedValue,
			SuppliedLtvs:    suppliedLtvs,
			BorrowedAssets:  nonNil(borrowed),
			BorrowedValue:   v.BorrowedValue,
			BorrowedWeights: borrowedWeights,
			RewardAssets:    nonNil(rewards),
			RewardValue:     v.RewardValue,
			CollateralRatio: v.CollateralRatio,
			HealthRatio:     v.HealthRatio,
			Value:           v.Value,
		},
	}
}

func nonNil(assets []entity.PortfolioAsset) []entity.PortfolioAsset {
	if assets == nil {
		return []entity.PortfolioAsset{}
	}
	return assets
}

// CheckElement verifies that an element's totals agree with its assets.
// A mismatch wraps entity.ErrInvariant.
func CheckElement(el entity.PortfolioElement) error {
	d := el.Data
	if d == nil {
		return nil
	}
	if len(d.BorrowedWeights) > len(d.BorrowedAssets) {
		return fmt.Errorf("%w: %s/%s has %d borrow weights for %d borrowed assets",
			entity.ErrInvariant, el.PlatformID, el.NetworkID, len(d.BorrowedWeights), len(d.BorrowedAssets))
	}
	checks := []struct {
		name   string
		total  decimal.Decimal
		assets []entity.PortfolioAsset
	}{
		{"supplied", d.SuppliedValue, d.SuppliedAssets},
		{"borrowed", d.BorrowedValue, d.BorrowedAssets},
		{"reward", d.RewardValue, d.RewardAssets},
	}
	for _, c := range checks {
		if sum := sumValues(c.assets); !sum.Equal(c.total) {
			return fmt.Errorf("%w: %s/%s %s value %s does not match assets sum %s",
				entity.ErrInvariant, el.PlatformID, el.NetworkID, c.name, c.total, sum)
		}
	}
	expected := d.SuppliedValue.Sub(d.BorrowedValue).Add(d.RewardValue)
	if !d.Value.Equal(expected) || !el.Value.Equal(expected) {
		return fmt.Errorf("%w: %s/%s value %s, expected supplied - borrowed + rewards = %s",
			entity.ErrInvariant, el.PlatformID, el.NetworkID, el.Value, expected)
	}
	return nil
}

func sumValues(assets []entity.PortfolioAsset) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range assets {
		if a.Value != nil {
			sum = sum.Add(*a.Value)
		}
	}
	return sum
}
