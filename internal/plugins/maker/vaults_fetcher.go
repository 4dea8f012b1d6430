package maker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/domain/lending"
	"portfolio_aggregator/internal/infrastructure/cache"
	"portfolio_aggregator/internal/pkg/utils"
)

// fetchVaults merges the vaults owned by owner, directly or through its DSProxy,
// into one borrowlend element. Collateral is ink in gem units, debt is
// art*rate in DAI and each collateral counts with ltv = 1/mat. Gem prices come
// from the price cache, the snapshot stored on the ilk is only a fallback.
func (p *Plugin) fetchVaults(ctx context.Context, owner string, c port.Cache) ([]entity.PortfolioElement, error) {
	client, err := p.clients.BatchCaller(entity.NetworkEthereum)
	if err != nil {
		return nil, fmt.Errorf("maker vaults: %w", err)
	}

	guys, err := vaultHolders(ctx, client, owner)
	if err != nil {
		return nil, err
	}
	urns, err := findUrns(ctx, client, guys)
	if err != nil {
		return nil, err
	}
	if len(urns) == 0 {
		return nil, nil
	}

	ilks, found, err := cache.GetItem[[]Ilk](ctx, c, IlksKey, cacheOpts)
	if err != nil {
		return nil, err
	}
	if !found {
		p.logger.Debug("Ilks not cached yet", "platform", PlatformID)
		return nil, nil
	}
	ilkByID := make(map[string]Ilk, len(ilks))
	for _, ilk := range ilks {
		ilkByID[ilk.ID] = ilk
	}

	if err := readUrns(ctx, client, urns); err != nil {
		return nil, err
	}

	// Цены gem берутся из кэша при каждом запросе: ilks могли закэшироваться раньше цен.
	addresses := []string{daiAddress}
	for _, u := range urns {
		if ilk, ok := ilkByID[u.Ilk]; ok {
			addresses = append(addresses, ilk.Gem)
		}
	}
	prices, err := c.GetTokenPricesAsMap(ctx, addresses, entity.NetworkEthereum)
	if err != nil {
		return nil, err
	}
	dai, hasDai := prices[entity.FormatTokenAddress(daiAddress, entity.NetworkEthereum)]

	var (
		supplied, borrowed            []entity.PortfolioAsset
		suppliedLtvs, borrowedWeights []decimal.Decimal
	)
	for _, u := range urns {
		ilk, ok := ilkByID[u.Ilk]
		if !ok {
			continue
		}
		collateral := lending.FromFixedPoint(u.Ink, lending.WadScale)
		debt := lending.FromFixedPoint(u.Art.Mul(ilk.Rate), lending.RadScale).Truncate(lending.AmountPrecision)
		p.logger.Debug("Vault",
			"cdp", u.CdpID, "ilk", ilk.Name,
			"ink", utils.FormatUnits(u.Ink.BigInt(), lending.WadScale),
			"debt", utils.FormatUnits(u.Art.Mul(ilk.Rate).BigInt(), lending.RadScale))

		gemPrice := ilk.GemTokenPrice
		if fresh, ok := prices[entity.FormatTokenAddress(ilk.Gem, entity.NetworkEthereum)]; ok {
			gemPrice = &fresh
		}
		if collateral.IsPositive() && gemPrice != nil {
			asset := lending.TokenAsset(*gemPrice, collateral, nil)
			p.logger.Debug("Vault collateral priced",
				"cdp", u.CdpID, "asset", lending.AssetLabel(asset, &entity.TokenInfo{Symbol: ilk.Symbol}), "value", asset.Value)
			supplied = append(supplied, asset)
			suppliedLtvs = append(suppliedLtvs, liquidationLtv(ilk.Mat))
		}
		if debt.IsPositive() && hasDai {
			borrowed = append(borrowed, lending.TokenAsset(dai, debt, nil))
			borrowedWeights = append(borrowedWeights, decimal.NewFromInt(1))
		}
	}
	if len(supplied) == 0 && len(borrowed) == 0 {
		return nil, nil
	}

	return []entity.PortfolioElement{lending.NewBorrowLendElement(
		entity.NetworkEthereum, PlatformID, elementLabel,
		supplied, borrowed, nil,
		suppliedLtvs, borrowedWeights,
	)}, nil
}

// liquidationLtv returns 1/mat, or zero when mat is unset.
func liquidationLtv(matRay decimal.Decimal) decimal.Decimal {
	mat := lending.FromFixedPoint(matRay, lending.RayScale)
	if mat.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).DivRound(mat, lending.AmountPrecision)
}

// vaultHolders returns owner and, when it has one, its DSProxy.
func vaultHolders(ctx context.Context, client port.BatchCaller, owner string) ([]common.Address, error) {
	ownerAddr := common.HexToAddress(owner)
	res, err := client.Multicall(ctx, []entity.ContractCall{{
		Address: proxyRegistryAddress, ABI: proxyRegistryABI, Method: "proxies", Args: []any{ownerAddr},
	}})
	if err != nil {
		return nil, fmt.Errorf("maker vaults: %w", err)
	}
	guys := []common.Address{ownerAddr}
	if len(res) == 1 && res[0].OK() {
		if proxy, ok := value[common.Address](res[0], 0); ok && proxy != (common.Address{}) {
			guys = append(guys, proxy)
		}
	}
	return guys, nil
}

// findUrns lists the cdps of every holder in one batch.
func findUrns(ctx context.Context, client port.BatchCaller, guys []common.Address) ([]Urn, error) {
	calls := make([]entity.ContractCall, len(guys))
	for i, guy := range guys {
		calls[i] = entity.ContractCall{
			Address: getCdpsAddress, ABI: getCdpsABI, Method: "getCdpsAsc",
			Args: []any{common.HexToAddress(cdpManagerAddress), guy},
		}
	}
	results, err := client.Multicall(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("maker vaults: %w", err)
	}

	var urns []Urn
	for _, r := range results {
		if !r.OK() {
			continue
		}
		ids, _ := value[[]*big.Int](r, 0)
		addrs, _ := value[[]common.Address](r, 1)
		ilkIDs, _ := value[[][32]byte](r, 2)
		if len(addrs) != len(ids) || len(ilkIDs) != len(ids) {
			continue
		}
		for i := range ids {
			urns = append(urns, Urn{
				CdpID: ids[i].String(),
				Urn:   addrs[i].Hex(),
				Ilk:   common.Hash(ilkIDs[i]).Hex(),
			})
		}
	}
	return urns, nil
}

// readUrns fills ink and art of every urn from the vat. Urns whose read
// failed keep zero balances.
func readUrns(ctx context.Context, client port.BatchCaller, urns []Urn) error {
	calls := make([]entity.ContractCall, len(urns))
	for i, u := range urns {
		calls[i] = entity.ContractCall{
			Address: vatAddress, ABI: vatABI, Method: "urns",
			Args: []any{[32]byte(common.HexToHash(u.Ilk)), common.HexToAddress(u.Urn)},
		}
	}
	results, err := client.Multicall(ctx, calls)
	if err != nil {
		return fmt.Errorf("maker vaults: %w", err)
	}
	for i, r := range results {
		if !r.OK() {
			continue
		}
		urns[i].Ink = bigValue(r, 0)
		urns[i].Art = bigValue(r, 1)
	}
	return nil
}
