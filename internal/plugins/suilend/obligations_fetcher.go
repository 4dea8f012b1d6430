package suilend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/domain/lending"
	"portfolio_aggregator/internal/infrastructure/cache"
	"portfolio_aggregator/internal/pkg/utils"
	"portfolio_aggregator/internal/plugins/movetype"
)

// fetchObligations merges every obligation of owner into one borrowlend element.
func (p *Plugin) fetchObligations(ctx context.Context, owner string, c port.Cache) ([]entity.PortfolioElement, error) {
	client, err := p.clients.ObjectClient(entity.NetworkSui)
	if err != nil {
		return nil, fmt.Errorf("suilend obligations: %w", err)
	}

	caps, err := client.GetOwnedObjects(ctx, owner, entity.OwnedObjectsFilter{Package: PackageID})
	if err != nil {
		return nil, err
	}
	obligationIDs := make([]string, 0, len(caps))
	for _, obj := range caps {
		if movetype.StructName(obj.Type) != obligationOwnerCapType {
			continue
		}
		// ObligationOwnerCap<P> где P - тип пула
		if _, err := movetype.Parse(obj.Type, 1); err != nil {
			return nil, fmt.Errorf("suilend obligations: %w", err)
		}
		capFields, err := decodeObligationOwnerCap(obj)
		if err != nil {
			p.logger.Debug("Skipping obligation owner cap", "owner", owner, "error", err)
			continue
		}
		if capFields.ObligationID != "" {
			obligationIDs = append(obligationIDs, capFields.ObligationID)
		}
	}
	if len(obligationIDs) == 0 {
		return nil, nil
	}

	results, err := client.MultiGetObjects(ctx, obligationIDs)
	if err != nil {
		return nil, err
	}
	obligations := make([]Obligation, 0, len(results))
	for i, res := range results {
		if !res.OK() {
			p.logger.Debug("Obligation not readable", "obligation", obligationIDs[i], "error", res.Err)
			continue
		}
		o, err := decodeObligation(res.Object)
		if err != nil {
			p.logger.Warn("Failed to decode obligation", "obligation", obligationIDs[i], "error", err)
			continue
		}
		obligations = append(obligations, o)
	}
	if len(obligations) == 0 {
		return nil, nil
	}

	markets, found, err := cache.GetItem[[]LendingMarket](ctx, c, MarketsKey, cacheOpts)
	if err != nil {
		return nil, err
	}
	if !found {
		p.logger.Debug("Lending markets not cached yet", "platform", PlatformID)
		return nil, nil
	}

	agg := newAggregator(markets, p.logger)
	prices, err := c.GetTokenPricesAsMap(ctx, agg.mints(obligations), entity.NetworkSui)
	if err != nil {
		return nil, err
	}
	agg.prices = prices
	for _, o := range obligations {
		agg.add(o)
	}
	agg.settleRewards()
	if agg.empty() {
		return nil, nil
	}

	return []entity.PortfolioElement{lending.NewBorrowLendElement(
		entity.NetworkSui, PlatformID, elementLabel,
		agg.supplied, agg.borrowed, agg.rewards,
		agg.suppliedLtvs, agg.borrowedWeights,
	)}, nil
}

// aggregator accumulates the positions of all obligations of one owner.
type aggregator struct {
	marketsByID map[string]LendingMarket
	poolRewards map[string]PoolReward
	prices      map[string]entity.TokenPrice
	accrued     *lending.RewardAccumulator
	logger      port.Logger

	supplied        []entity.PortfolioAsset
	borrowed        []entity.PortfolioAsset
	rewards         []entity.PortfolioAsset
	suppliedLtvs    []decimal.Decimal
	borrowedWeights []decimal.Decimal
}

func newAggregator(markets []LendingMarket, logger port.Logger) *aggregator {
	byID := make(map[string]LendingMarket, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}
	return &aggregator{
		marketsByID: byID,
		poolRewards: poolRewardsByID(markets),
		accrued:     lending.NewRewardAccumulator(),
		logger:      logger,
	}
}

// mints returns every coin type referenced by a position or a reward stream, deduplicated.
func (a *aggregator) mints(obligations []Obligation) []string {
	var mints []string
	for _, pr := range a.poolRewards {
		mints = append(mints, pr.CoinType)
	}
	for _, o := range obligations {
		for _, d := range o.Deposits {
			mints = append(mints, d.CoinType)
		}
		for _, b := range o.Borrows {
			mints = append(mints, b.CoinType)
		}
	}
	for i, m := range mints {
		mints[i] = entity.FormatTokenAddress(m, entity.NetworkSui)
	}
	return utils.Unique(mints)
}

func (a *aggregator) price(coinType string) (entity.TokenPrice, bool) {
	mint := entity.FormatTokenAddress(coinType, entity.NetworkSui)
	tp, ok := a.prices[mint]
	if !ok {
		a.logger.Debug("No price for reserve coin, skipping position", "coin", movetype.FormatForNative(mint))
	}
	return tp, ok
}

func reserveAt(reserves []Reserve, index int) (Reserve, bool) {
	if index < 0 || index >= len(reserves) {
		return Reserve{}, false
	}
	return reserves[index], true
}

func (a *aggregator) add(o Obligation) {
	market, ok := a.marketsByID[o.LendingMarketID]
	if !ok {
		return
	}

	for _, dep := range o.Deposits {
		reserve, ok := reserveAt(market.Reserves, dep.ReserveArrayIndex)
		if !ok {
			continue
		}
		tp, ok := a.price(dep.CoinType)
		if !ok {
			continue
		}
		amount := lending.SupplyAmount(dep.DepositedCTokenAmount, reserve.AvailableAmount,
			reserve.BorrowedAmountWad, reserve.CTokenSupply, tp.Decimals)
		price := lending.DerivePrice(lending.FromFixedPoint(dep.MarketValueWad, lending.WadScale), amount)
		a.supplied = append(a.supplied, lending.TokenAsset(tp, amount, price))
		a.suppliedLtvs = append(a.suppliedLtvs, lending.FromFixedPoint(reserve.MaxCloseLTVPct, ltvScale))
	}

	for _, bor := range o.Borrows {
		reserve, ok := reserveAt(market.Reserves, bor.ReserveArrayIndex)
		if !ok {
			continue
		}
		tp, ok := a.price(bor.CoinType)
		if !ok {
			continue
		}
		amount := lending.BorrowAmount(bor.BorrowedAmountWad, reserve.CumulativeBorrowRateWad,
			bor.CumulativeBorrowRateWad, lending.WadScale, tp.Decimals)
		// repaid
		if amount.IsZero() {
			continue
		}
		price := lending.DerivePrice(lending.FromFixedPoint(bor.MarketValueWad, lending.WadScale), amount)
		a.borrowed = append(a.borrowed, lending.TokenAsset(tp, amount, price))
		a.borrowedWeights = append(a.borrowedWeights, lending.FromFixedPoint(reserve.BorrowWeightBps, lending.BpsScale))
	}

	for _, manager := range o.UserRewardManagers {
		for _, ur := range manager.Rewards {
			pool, ok := a.poolRewards[ur.PoolRewardID]
			if !ok {
				continue
			}
			accrued := lending.RewardAccrual(pool.CumulativeRewardsPerShareWad, ur.CumulativeRewardsPerShareWad,
				manager.Share, lending.WadScale)
			a.accrued.Add(entity.FormatTokenAddress(pool.CoinType, entity.NetworkSui), accrued)
		}
	}
}

// settleRewards converts the accrued rewards, summed per mint across all
// obligations, into claimable assets. Mints without a price are dropped.
func (a *aggregator) settleRewards() {
	a.accrued.Each(func(mint string, raw decimal.Decimal) {
		tp, ok := a.prices[mint]
		if !ok {
			return
		}
		a.rewards = append(a.rewards, lending.ClaimableTokenAsset(tp, lending.FromFixedPoint(raw, tp.Decimals)))
	})
}

func (a *aggregator) empty() bool {
	return len(a.supplied) == 0 && len(a.borrowed) == 0 && len(a.rewards) == 0
}
