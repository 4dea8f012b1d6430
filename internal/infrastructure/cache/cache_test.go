package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/logger"
)

type testReserve struct {
	Index     int             `json:"index"`
	CoinType  string          `json:"coinType"`
	Available decimal.Decimal `json:"available"`
}

type testMarket struct {
	ID       string        `json:"id"`
	Reserves []testReserve `json:"reserves"`
	Limit    *decimal.Decimal
}

func newTestCache() *Cache {
	return New(NewMemoryDriver(0), logger.Nop())
}

func suiOpts() entity.CacheOpts {
	return entity.CacheOpts{Prefix: "suilend", NetworkID: entity.NetworkSui}
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	limit := decimal.RequireFromString("1000000.25")
	markets := []testMarket{{
		ID: "0xmarket",
		Reserves: []testReserve{
			{Index: 0, CoinType: "0x2::sui::SUI", Available: decimal.RequireFromString("123456789.000000001")},
			{Index: 1, CoinType: "0xdba3::usdc::USDC", Available: decimal.NewFromInt(42)},
		},
		Limit: &limit,
	}}

	require.NoError(t, c.SetItem(ctx, "markets", markets, suiOpts()))

	got, found, err := GetItem[[]testMarket](ctx, c, "markets", suiOpts())
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "0xmarket", got[0].ID)
	require.Len(t, got[0].Reserves, 2)
	assert.True(t, got[0].Reserves[0].Available.Equal(markets[0].Reserves[0].Available))
	assert.Equal(t, "0xdba3::usdc::USDC", got[0].Reserves[1].CoinType)
	require.NotNil(t, got[0].Limit)
	assert.True(t, got[0].Limit.Equal(limit))
}

func TestCache_NetworkIsolation(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	require.NoError(t, c.SetItem(ctx, "markets", []string{"a"}, suiOpts()))

	other := entity.CacheOpts{Prefix: "suilend", NetworkID: entity.NetworkEthereum}
	_, found, err := GetItem[[]string](ctx, c, "markets", other)
	require.NoError(t, err)
	assert.False(t, found)

	otherPrefix := entity.CacheOpts{Prefix: "maker", NetworkID: entity.NetworkSui}
	_, found, err = GetItem[[]string](ctx, c, "markets", otherPrefix)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_MissingKeyIsNotAnError(t *testing.T) {
	var out []string
	found, err := newTestCache().GetItem(context.Background(), "nope", suiOpts(), &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestCache_ReadersGetIndependentCopies(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	require.NoError(t, c.SetItem(ctx, "list", []string{"a", "b"}, suiOpts()))

	first, _, err := GetItem[[]string](ctx, c, "list", suiOpts())
	require.NoError(t, err)
	first[0] = "mutated"

	second, _, err := GetItem[[]string](ctx, c, "list", suiOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, second)
}

func TestCache_UndecodableEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	require.NoError(t, c.SetItem(ctx, "markets", "a plain string", suiOpts()))

	_, found, err := GetItem[[]testMarket](ctx, c, "markets", suiOpts())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values := make([]int, 100)
			for j := range values {
				values[j] = i
			}
			assert.NoError(t, c.SetItem(ctx, "table", values, suiOpts()))
		}(i)
	}
	wg.Wait()

	got, found, err := GetItem[[]int](ctx, c, "table", suiOpts())
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 100)
	for _, v := range got {
		assert.Equal(t, got[0], v, "entries must never mix two writes")
	}
}

func seedPrices(t *testing.T, c *Cache) {
	t.Helper()
	require.NoError(t, c.SetTokenPrices(context.Background(), []entity.TokenPrice{
		{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", NetworkID: entity.NetworkEthereum, Decimals: 6, Price: decimal.NewFromInt(1)},
		{Address: "0x2::sui::SUI", NetworkID: entity.NetworkSui, Decimals: 9, Price: decimal.RequireFromString("3.21")},
	}))
}

func TestCache_GetTokenPrices_AlignedWithInput(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	seedPrices(t, c)

	addresses := []string{"0xunknown", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "0xdeadbeef"}
	prices, err := c.GetTokenPrices(ctx, addresses, entity.NetworkEthereum)
	require.NoError(t, err)
	require.Len(t, prices, len(addresses))
	assert.Nil(t, prices[0])
	require.NotNil(t, prices[1])
	assert.Equal(t, int32(6), prices[1].Decimals)
	assert.Nil(t, prices[2])

	empty, err := c.GetTokenPrices(ctx, nil, entity.NetworkEthereum)
	require.NoError(t, err)
	assert.Len(t, empty, 0)
}

func TestCache_GetTokenPricesAsMap_OmitsUnresolved(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	seedPrices(t, c)

	// The short sui coin type resolves to the padded key written by SetTokenPrices.
	prices, err := c.GetTokenPricesAsMap(ctx, []string{"0x2::sui::SUI", "0x5d4b::coin::COIN"}, entity.NetworkSui)
	require.NoError(t, err)
	require.Len(t, prices, 1)

	sui, ok := prices[entity.FormatTokenAddress("0x2::sui::SUI", entity.NetworkSui)]
	require.True(t, ok)
	assert.Equal(t, "3.21", sui.Price.String())
	_, ok = prices[entity.FormatTokenAddress("0x5d4b::coin::COIN", entity.NetworkSui)]
	assert.False(t, ok)

	// Same address on another network has no price.
	prices, err = c.GetTokenPricesAsMap(ctx, []string{"0x2::sui::SUI"}, entity.NetworkEthereum)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

type failingDriver struct{ port.CacheDriver }

var errDriverDown = errors.New("connection refused")

func (failingDriver) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errDriverDown
}
func (failingDriver) MGet(context.Context, []string) ([][]byte, error) { return nil, errDriverDown }
func (failingDriver) Set(context.Context, string, []byte, time.Duration) error {
	return errDriverDown
}

func TestCache_DriverFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	c := New(failingDriver{}, logger.Nop())

	var out []string
	_, err := c.GetItem(ctx, "markets", suiOpts(), &out)
	require.Error(t, err)
	assert.True(t, entity.IsRetryable(err))
	assert.ErrorIs(t, err, errDriverDown)

	_, err = c.GetTokenPrices(ctx, []string{"0x1"}, entity.NetworkEthereum)
	assert.True(t, entity.IsRetryable(err))

	err = c.SetTokenPrices(ctx, []entity.TokenPrice{
		{Address: "0x1", NetworkID: entity.NetworkEthereum},
		{Address: "0x2", NetworkID: entity.NetworkEthereum},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}
