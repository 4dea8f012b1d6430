package suilend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/cache"
	"portfolio_aggregator/internal/pkg/logger"
	"portfolio_aggregator/internal/plugins/movetype"
)

const (
	owner        = "0x5f9d3cfb2e6e4b1a5c7e3d1b0a9f8e7d6c5b4a39281706f5e4d3c2b1a0f9e8d7"
	usdcCoinType = "5d4b302506645c37ff133b98c4b50a5ae14841659738d6d733d59d0d217a93bf::coin::COIN"
	suiCoinType  = "0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"
	obligationID = "0x0b1"
	capID        = "0xca9"
	wad          = "000000000000000000"
)

var errNoEVM = errors.New("no evm client in this test")

type fakeObjects struct {
	owned   []entity.MoveObject
	objects map[string]entity.MoveObject
	filters []entity.OwnedObjectsFilter
}

func (f *fakeObjects) GetOwnedObjects(_ context.Context, _ string, filter entity.OwnedObjectsFilter) ([]entity.MoveObject, error) {
	f.filters = append(f.filters, filter)
	return f.owned, nil
}

func (f *fakeObjects) MultiGetObjects(_ context.Context, ids []string) ([]entity.ObjectResult, error) {
	out := make([]entity.ObjectResult, len(ids))
	for i, id := range ids {
		obj, ok := f.objects[id]
		if !ok {
			out[i] = entity.ObjectFailure(fmt.Errorf("object %s: notExists", id))
			continue
		}
		out[i] = entity.ObjectSuccess(obj)
	}
	return out, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, id string) (entity.ObjectResult, error) {
	res, err := f.MultiGetObjects(ctx, []string{id})
	if err != nil {
		return entity.ObjectResult{}, err
	}
	return res[0], nil
}

func (f *fakeObjects) Definition() entity.NetworkDefinition {
	return entity.NetworkDefinition{ID: entity.NetworkSui, Family: entity.FamilyMove}
}

type fakeClients struct {
	objects port.ObjectClient
}

func (c fakeClients) BatchCaller(entity.NetworkID) (port.BatchCaller, error) { return nil, errNoEVM }
func (c fakeClients) ObjectClient(entity.NetworkID) (port.ObjectClient, error) {
	return c.objects, nil
}

func decimalJSON(v string) string {
	return fmt.Sprintf(`{"type":"0xf95b::decimal::Decimal","fields":{"value":"%s"}}`, v)
}

func typeNameJSON(name string) string {
	return fmt.Sprintf(`{"type":"0x1::type_name::TypeName","fields":{"name":"%s"}}`, name)
}

func poolRewardJSON(id, coin, perShare string) string {
	return fmt.Sprintf(`{"type":"0xf95b::liquidity_mining::PoolReward","fields":{"id":{"id":"%s"},"coin_type":%s,"cumulative_rewards_per_share":%s}}`,
		id, typeNameJSON(coin), decimalJSON(perShare))
}

// reserveJSON renders a reserve with a 1:1 ctoken ratio unless available differs from supply.
func reserveJSON(coin, available, ctokenSupply, rate string, poolRewards ...string) string {
	return fmt.Sprintf(`{"type":"0xf95b::reserve::Reserve","fields":{
		"array_index":"0","coin_type":%s,"available_amount":"%s","ctoken_supply":"%s",
		"borrowed_amount":%s,"cumulative_borrow_rate":%s,
		"config":{"type":"0x2::cell::Cell","fields":{"element":{"type":"0xf95b::reserve_config::ReserveConfig","fields":{
			"open_ltv_pct":70,"close_ltv_pct":75,"max_close_ltv_pct":80,"borrow_weight_bps":"10000"}}}},
		"deposits_pool_reward_manager":{"type":"0xf95b::liquidity_mining::PoolRewardManager","fields":{"pool_rewards":[%s]}},
		"borrows_pool_reward_manager":{"type":"0xf95b::liquidity_mining::PoolRewardManager","fields":{"pool_rewards":[null]}}
	}}`, typeNameJSON(coin), available, ctokenSupply, decimalJSON("0"), decimalJSON(rate), strings.Join(poolRewards, ","))
}

func marketObject(reserves ...string) entity.MoveObject {
	return entity.MoveObject{
		ObjectID: MainMarketID,
		Type:     PackageID + "::lending_market::LendingMarket<" + PackageID + "::suilend::MAIN_POOL>",
		Fields:   []byte(fmt.Sprintf(`{"id":{"id":"%s"},"reserves":[%s]}`, MainMarketID, strings.Join(reserves, ","))),
	}
}

func depositJSON(coin, index, ctokens, marketValueWad string) string {
	return fmt.Sprintf(`{"type":"0xf95b::obligation::Deposit","fields":{"coin_type":%s,"reserve_array_index":"%s","deposited_ctoken_amount":"%s","market_value":%s}}`,
		typeNameJSON(coin), index, ctokens, decimalJSON(marketValueWad))
}

func borrowJSON(coin, index, borrowedWad, snapshotRate, marketValueWad string) string {
	return fmt.Sprintf(`{"type":"0xf95b::obligation::Borrow","fields":{"coin_type":%s,"reserve_array_index":"%s","borrowed_amount":%s,"cumulative_borrow_rate":%s,"market_value":%s}}`,
		typeNameJSON(coin), index, decimalJSON(borrowedWad), decimalJSON(snapshotRate), decimalJSON(marketValueWad))
}

func userRewardJSON(poolRewardID, perShare string) string {
	return fmt.Sprintf(`{"type":"0xf95b::liquidity_mining::UserReward","fields":{"pool_reward_id":"%s","earned_rewards":%s,"cumulative_rewards_per_share":%s}}`,
		poolRewardID, decimalJSON("0"), decimalJSON(perShare))
}

func userRewardManagerJSON(share string, rewards ...string) string {
	return fmt.Sprintf(`{"type":"0xf95b::liquidity_mining::UserRewardManager","fields":{"share":"%s","rewards":[%s]}}`,
		share, strings.Join(rewards, ","))
}

type obligationParts struct {
	deposits []string
	borrows  []string
	managers []string
}

func obligationObject(p obligationParts) entity.MoveObject {
	return entity.MoveObject{
		ObjectID: obligationID,
		Type:     PackageID + "::obligation::Obligation<" + PackageID + "::suilend::MAIN_POOL>",
		Fields: []byte(fmt.Sprintf(`{"id":{"id":"%s"},"lending_market_id":"%s","deposits":[%s],"borrows":[%s],"user_reward_managers":[%s]}`,
			obligationID, MainMarketID,
			strings.Join(p.deposits, ","), strings.Join(p.borrows, ","), strings.Join(p.managers, ","))),
	}
}

func ownerCapObject(id, obligation string) entity.MoveObject {
	return entity.MoveObject{
		ObjectID: id,
		Type:     obligationOwnerCapType + "<" + PackageID + "::suilend::MAIN_POOL>",
		Fields:   []byte(fmt.Sprintf(`{"id":{"id":"%s"},"obligation_id":"%s"}`, id, obligation)),
	}
}

// setup caches the markets through the job, seeds prices and returns the plugin
// wired to an object client that knows the obligation.
func setup(t *testing.T, market entity.MoveObject, obligation entity.MoveObject) (*Plugin, *cache.Cache, *fakeObjects) {
	t.Helper()
	ctx := context.Background()
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())
	require.NoError(t, c.SetTokenPrices(ctx, []entity.TokenPrice{
		{Address: usdcCoinType, NetworkID: entity.NetworkSui, Decimals: 6, Price: decimal.NewFromInt(1), Symbol: "USDC"},
		{Address: suiCoinType, NetworkID: entity.NetworkSui, Decimals: 9, Price: decimal.NewFromInt(2), Symbol: "SUI"},
	}))

	objects := &fakeObjects{
		owned: []entity.MoveObject{
			ownerCapObject(capID, obligationID),
			{ObjectID: "0xother", Type: PackageID + "::reserve::CToken<0x2::sui::SUI>", Fields: []byte(`{}`)},
		},
		objects: map[string]entity.MoveObject{
			MainMarketID: market,
			obligationID: obligation,
		},
	}
	p := New(fakeClients{objects: objects}, logger.Nop())
	require.NoError(t, p.Jobs()[0].Executor(ctx, c))
	return p, c, objects
}

func fetch(t *testing.T, p *Plugin, c port.Cache) []entity.PortfolioElement {
	t.Helper()
	elements, err := p.Fetchers()[0].Executor(context.Background(), owner, c)
	require.NoError(t, err)
	return elements
}

func usdcReserve(poolRewards ...string) string {
	return reserveJSON(usdcCoinType, "1000000", "1000000", "1"+wad, poolRewards...)
}

func TestMarketsJob_WritesSnapshotOnce(t *testing.T) {
	_, c, _ := setup(t,
		marketObject(usdcReserve(poolRewardJSON("0xr1", suiCoinType, "2"+wad))),
		obligationObject(obligationParts{}),
	)

	markets, found, err := cache.GetItem[[]LendingMarket](context.Background(), c, MarketsKey, cacheOpts)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, MainMarketID, m.ID)
	require.Len(t, m.Reserves, 1)
	assert.Equal(t, usdcCoinType, m.Reserves[0].CoinType)
	assert.True(t, m.Reserves[0].MaxCloseLTVPct.Equal(decimal.NewFromInt(80)))
	assert.True(t, m.Reserves[0].BorrowWeightBps.Equal(decimal.NewFromInt(10000)))
	require.Len(t, m.PoolRewards, 1)
	assert.Equal(t, "0xr1", m.PoolRewards[0].ID)
}

func TestMarketsJob_KeepsSnapshotWhenNothingDecodes(t *testing.T) {
	ctx := context.Background()
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())
	p := New(fakeClients{objects: &fakeObjects{objects: map[string]entity.MoveObject{}}}, logger.Nop())

	err := p.Jobs()[0].Executor(ctx, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvariant)

	_, found, err := cache.GetItem[[]LendingMarket](ctx, c, MarketsKey, cacheOpts)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestObligations_SupplyWithUnitExchangeRate(t *testing.T) {
	p, c, objects := setup(t,
		marketObject(usdcReserve()),
		obligationObject(obligationParts{deposits: []string{depositJSON(usdcCoinType, "0", "1000000", "1"+wad)}}),
	)

	elements := fetch(t, p, c)
	require.Len(t, elements, 1)
	el := elements[0]
	assert.Equal(t, entity.ElementTypeBorrowLend, el.Type)
	assert.Equal(t, PlatformID, el.PlatformID)
	assert.Equal(t, entity.NetworkSui, el.NetworkID)
	assert.Equal(t, "Lending", el.Label)

	require.Len(t, el.Data.SuppliedAssets, 1)
	asset := el.Data.SuppliedAssets[0]
	assert.True(t, asset.Amount.Equal(decimal.NewFromInt(1)), asset.Amount.String())
	require.NotNil(t, asset.Price)
	assert.True(t, asset.Price.Equal(decimal.NewFromInt(1)), asset.Price.String())
	require.Len(t, el.Data.SuppliedLtvs, 1)
	assert.True(t, el.Data.SuppliedLtvs[0].Equal(decimal.RequireFromString("0.8")))
	assert.Empty(t, el.Data.BorrowedAssets)
	assert.Nil(t, el.Data.HealthRatio)
	assert.True(t, el.Value.Equal(decimal.NewFromInt(1)))

	require.Len(t, objects.filters, 1)
	assert.Equal(t, PackageID, objects.filters[0].Package)
}

func TestObligations_StaleReserveIndexIsSkipped(t *testing.T) {
	p, c, _ := setup(t,
		marketObject(usdcReserve()),
		obligationObject(obligationParts{deposits: []string{depositJSON(usdcCoinType, "3", "1000000", "1"+wad)}}),
	)

	assert.Empty(t, fetch(t, p, c))
}

func TestObligations_RewardsForSameMintAreSummed(t *testing.T) {
	p, c, _ := setup(t,
		marketObject(usdcReserve(
			poolRewardJSON("0xr1", suiCoinType, "2"+wad),
			poolRewardJSON("0xr2", suiCoinType, "3"+wad),
		)),
		obligationObject(obligationParts{managers: []string{
			userRewardManagerJSON("1000000000",
				userRewardJSON("0xr1", "1"+wad),
				"null",
				userRewardJSON("0xr2", "1"+wad),
			),
		}}),
	)

	elements := fetch(t, p, c)
	require.Len(t, elements, 1)
	rewards := elements[0].Data.RewardAssets
	require.Len(t, rewards, 1)
	assert.Equal(t, suiCoinType, strings.TrimPrefix(rewards[0].Address, "0x"))
	assert.True(t, rewards[0].Amount.Equal(decimal.NewFromInt(3)), rewards[0].Amount.String())
	assert.True(t, rewards[0].Attributes.IsClaimable)
	assert.True(t, elements[0].Data.RewardValue.Equal(decimal.NewFromInt(6)))
}

func TestObligations_RepaidBorrowIsDropped(t *testing.T) {
	p, c, _ := setup(t,
		marketObject(usdcReserve()),
		obligationObject(obligationParts{
			deposits: []string{depositJSON(usdcCoinType, "0", "1000000", "1"+wad)},
			borrows:  []string{borrowJSON(usdcCoinType, "0", "0", "1"+wad, "0")},
		}),
	)

	elements := fetch(t, p, c)
	require.Len(t, elements, 1)
	assert.Empty(t, elements[0].Data.BorrowedAssets)
	assert.Empty(t, elements[0].Data.BorrowedWeights)
	assert.Len(t, elements[0].Data.SuppliedAssets, 1)
}

func TestObligations_BorrowScaledByRateRatio(t *testing.T) {
	market := marketObject(reserveJSON(usdcCoinType, "1000000", "1000000", "11"+wad[:len(wad)-1]))
	p, c, _ := setup(t, market, obligationObject(obligationParts{
		deposits: []string{depositJSON(usdcCoinType, "0", "1000000", "1"+wad)},
		// 0.5 USDC in wad-scaled raw units, snapshot at rate 1.0
		borrows: []string{borrowJSON(usdcCoinType, "0", "500000"+wad, "1"+wad, "55"+wad[:len(wad)-2])},
	}))

	elements := fetch(t, p, c)
	require.Len(t, elements, 1)
	data := elements[0].Data
	require.Len(t, data.BorrowedAssets, 1)
	assert.True(t, data.BorrowedAssets[0].Amount.Equal(decimal.RequireFromString("0.55")), data.BorrowedAssets[0].Amount.String())
	require.Len(t, data.BorrowedWeights, 1)
	assert.True(t, data.BorrowedWeights[0].Equal(decimal.NewFromInt(1)))
	require.NotNil(t, data.HealthRatio)
	assert.True(t, data.HealthRatio.GreaterThan(decimal.NewFromInt(1)))
}

func TestObligations_NoMarketsCachedYet(t *testing.T) {
	objects := &fakeObjects{
		owned:   []entity.MoveObject{ownerCapObject(capID, obligationID)},
		objects: map[string]entity.MoveObject{obligationID: obligationObject(obligationParts{})},
	}
	p := New(fakeClients{objects: objects}, logger.Nop())
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())

	assert.Empty(t, fetch(t, p, c))
}

func TestObligations_NoOwnerCaps(t *testing.T) {
	p := New(fakeClients{objects: &fakeObjects{}}, logger.Nop())
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())

	assert.Empty(t, fetch(t, p, c))
}

func TestObligations_OwnerCapWithoutPoolTypeFails(t *testing.T) {
	objects := &fakeObjects{owned: []entity.MoveObject{{
		ObjectID: capID,
		Type:     obligationOwnerCapType,
		Fields:   []byte(fmt.Sprintf(`{"id":{"id":"%s"},"obligation_id":"%s"}`, capID, obligationID)),
	}}}
	p := New(fakeClients{objects: objects}, logger.Nop())
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())

	_, err := p.Fetchers()[0].Executor(context.Background(), owner, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, movetype.ErrWrongArity)
	assert.ErrorIs(t, err, entity.ErrInvariant)
}

func TestObligations_UnclosedOwnerCapTypeFails(t *testing.T) {
	objects := &fakeObjects{owned: []entity.MoveObject{{
		ObjectID: capID,
		Type:     obligationOwnerCapType + "<" + PackageID + "::suilend::MAIN_POOL",
		Fields:   []byte(fmt.Sprintf(`{"id":{"id":"%s"},"obligation_id":"%s"}`, capID, obligationID)),
	}}}
	p := New(fakeClients{objects: objects}, logger.Nop())
	c := cache.New(cache.NewMemoryDriver(0), logger.Nop())

	_, err := p.Fetchers()[0].Executor(context.Background(), owner, c)
	assert.ErrorIs(t, err, movetype.ErrMalformedType)
	assert.ErrorIs(t, err, entity.ErrInvariant)
}
