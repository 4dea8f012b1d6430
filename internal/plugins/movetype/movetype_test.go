package movetype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

func TestParseTypeArgs(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want []string
	}{
		{"no args", "0x2::coin::Coin", nil},
		{"one arg", "0x2::coin::Coin<0x2::sui::SUI>", []string{"0x2::sui::SUI"}},
		{
			"three args with spaces",
			"0xabc::pool::Pool<0x2::sui::SUI, 0xdef::usdc::USDC,0xabc::fee::FEE3000>",
			[]string{"0x2::sui::SUI", "0xdef::usdc::USDC", "0xabc::fee::FEE3000"},
		},
		{
			"nested generic kept intact",
			"0xabc::pool::Pool<0x2::coin::Coin<0x2::sui::SUI>, 0xdef::usdc::USDC>",
			[]string{"0x2::coin::Coin<0x2::sui::SUI>", "0xdef::usdc::USDC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTypeArgs(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeArgs_Malformed(t *testing.T) {
	for _, typ := range []string{
		"0x1::m::S<0x2::sui::SUI,>",
		"0x1::m::S<,A>",
		"0x1::m::S<A",
		"0x1::m::S<A>>",
		"0x1::m::S<>",
		"0x1::m::S<A<B>",
		"0x1::m::S>",
	} {
		t.Run(typ, func(t *testing.T) {
			args, err := ParseTypeArgs(typ)
			require.Error(t, err)
			assert.Nil(t, args)
			assert.ErrorIs(t, err, ErrMalformedType)
			assert.ErrorIs(t, err, entity.ErrInvariant)
		})
	}
}

func TestParse(t *testing.T) {
	args, err := Parse("0xabc::pool::Pool<A, B, C>", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, args)

	_, err = Parse("0xabc::pool::Pool<A, B>", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongArity)
	assert.True(t, errors.Is(err, entity.ErrInvariant))
	assert.False(t, entity.IsRetryable(err))

	_, err = Parse("0xabc::pool::Pool", 2)
	assert.ErrorIs(t, err, ErrWrongArity)

	_, err = Parse("0x1::m::S<0x2::sui::SUI,>", 2)
	assert.ErrorIs(t, err, ErrMalformedType)
}

func TestStructName(t *testing.T) {
	assert.Equal(t, "0xabc::pool::Pool", StructName("0xabc::pool::Pool<A, B>"))
	assert.Equal(t, "0x2::sui::SUI", StructName("0x2::sui::SUI"))
}

func TestFormatForNative(t *testing.T) {
	assert.Equal(t, "0x2::sui::SUI", FormatForNative(suiLongCoinType))
	assert.Equal(t, "0xdef::usdc::USDC", FormatForNative("0xdef::usdc::USDC"))
}
