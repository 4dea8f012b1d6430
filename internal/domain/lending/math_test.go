package lending

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFromFixedPoint(t *testing.T) {
	assert.Equal(t, "1.5", FromFixedPoint(d("1500000000000000000"), WadScale).String())
	assert.Equal(t, "0.0025", FromFixedPoint(d("25"), BpsScale).String())
	assert.Equal(t, "1", FromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil), RayScale).String())
	assert.True(t, FromBigInt(nil, WadScale).IsZero())

	got, err := ParseFixedPoint("1000000", 6)
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())

	_, err = ParseFixedPoint("not-a-number", 6)
	assert.Error(t, err)
}

func TestSupplyAmount(t *testing.T) {
	tests := []struct {
		name      string
		shares    string
		available string
		borrowed  string
		supply    string
		decimals  int32
		want      string
	}{
		{"ratio one", "1000000", "1000000", "0", "1000000", 6, "1"},
		{"interest accrued", "1000000", "1000000", "500000000000000000000000", "1000000", 6, "1.5"},
		{"zero supply", "1000000", "1000000", "0", "0", 6, "0"},
		{"nine decimals", "2000000000", "3000000000", "1000000000000000000000000000", "4000000000", 9, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SupplyAmount(d(tt.shares), d(tt.available), d(tt.borrowed), d(tt.supply), tt.decimals)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestBorrowAmount(t *testing.T) {
	// 2 tokens (6 decimals) recorded at rate 1.0, current rate 1.1.
	raw := d("2000000000000000000000000")
	got := BorrowAmount(raw, d("1100000000000000000"), d("1000000000000000000"), WadScale, 6)
	assert.True(t, got.Equal(d("2.2")), "got %s", got)

	assert.True(t, BorrowAmount(raw, d("1"), decimal.Zero, WadScale, 6).IsZero())
}

func TestBorrowAmount_RoundsToZero(t *testing.T) {
	got := BorrowAmount(d("1"), d("1"), d("1"), WadScale, 6)
	assert.True(t, got.IsZero(), "dust below amount precision must round to zero, got %s", got)
}

func TestBorrowAmount_MonotonicInCurrentRate(t *testing.T) {
	raw := d("5000000000000000000000000")
	snapshot := d("1000000000000000000")
	prev := BorrowAmount(raw, snapshot, snapshot, WadScale, 6)
	for _, rate := range []string{"1000000000000000001", "1000000000100000000", "1050000000000000000", "2000000000000000000", "7300000000000000000"} {
		next := BorrowAmount(raw, d(rate), snapshot, WadScale, 6)
		assert.True(t, next.GreaterThan(prev), "rate %s: %s should exceed %s", rate, next, prev)
		prev = next
	}
}

func TestDerivePrice(t *testing.T) {
	p := DerivePrice(d("3"), d("2"))
	require.NotNil(t, p)
	assert.Equal(t, "1.5", p.String())
	assert.Nil(t, DerivePrice(d("3"), decimal.Zero))
}

func TestRewardAccrual(t *testing.T) {
	got := RewardAccrual(d("3000000000000000000"), d("1000000000000000000"), d("500"), WadScale)
	assert.True(t, got.Equal(d("1000")), "got %s", got)

	assert.True(t, RewardAccrual(d("1"), d("1"), d("500"), WadScale).IsZero())
	assert.True(t, RewardAccrual(d("1"), d("2"), d("500"), WadScale).IsZero(), "negative accrual")
}

func TestRewardAccumulator(t *testing.T) {
	acc := NewRewardAccumulator()
	assert.True(t, acc.Add("0x2::sui::SUI", d("1")))
	assert.True(t, acc.Add("0xdead::usdc::USDC", d("5")))
	assert.True(t, acc.Add("0x2::sui::SUI", d("2.5")))
	assert.False(t, acc.Add("0xbeef::x::X", decimal.Zero))

	var mints []string
	var amounts []string
	acc.Each(func(mint string, amount decimal.Decimal) {
		mints = append(mints, mint)
		amounts = append(amounts, amount.String())
	})
	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, []string{"0x2::sui::SUI", "0xdead::usdc::USDC"}, mints)
	assert.Equal(t, []string{"3.5", "5"}, amounts)
}
