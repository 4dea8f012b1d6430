package maker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// fetchIlks reads the ilk registry, the vat and the spotter for every
// collateral type, attaches gem prices and caches the list in one write.
// Ilks with any failed read are left out.
func (p *Plugin) fetchIlks(ctx context.Context, cache port.Cache) error {
	client, err := p.clients.BatchCaller(entity.NetworkEthereum)
	if err != nil {
		return fmt.Errorf("maker ilks: %w", err)
	}

	ids, err := listIlks(ctx, client)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("maker ilks: registry is empty: %w", entity.ErrInvariant)
	}

	regCalls := make([]entity.ContractCall, len(ids))
	vatCalls := make([]entity.ContractCall, len(ids))
	spotCalls := make([]entity.ContractCall, len(ids))
	for i, id := range ids {
		regCalls[i] = entity.ContractCall{Address: ilkRegistryAddress, ABI: ilkRegistryABI, Method: "ilkData", Args: []any{id}}
		vatCalls[i] = entity.ContractCall{Address: vatAddress, ABI: vatABI, Method: "ilks", Args: []any{id}}
		spotCalls[i] = entity.ContractCall{Address: spotterAddress, ABI: spotterABI, Method: "ilks", Args: []any{id}}
	}

	var regResults, vatResults, spotResults []entity.CallResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		regResults, err = client.Multicall(gctx, regCalls)
		return err
	})
	g.Go(func() (err error) {
		vatResults, err = client.Multicall(gctx, vatCalls)
		return err
	})
	g.Go(func() (err error) {
		spotResults, err = client.Multicall(gctx, spotCalls)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("maker ilks: %w", err)
	}

	ilks := make([]Ilk, 0, len(ids))
	for i, id := range ids {
		ilk, err := buildIlk(id, regResults[i], vatResults[i], spotResults[i])
		if err != nil {
			p.logger.Debug("Skipping ilk", "ilk", ilkLabel(id), "error", err)
			continue
		}
		ilks = append(ilks, ilk)
	}

	gems := make([]string, len(ilks))
	for i, ilk := range ilks {
		gems[i] = ilk.Gem
	}
	prices, err := cache.GetTokenPrices(ctx, gems, entity.NetworkEthereum)
	if err != nil {
		return fmt.Errorf("maker ilks: %w", err)
	}
	for i := range ilks {
		ilks[i].GemTokenPrice = prices[i]
	}

	if err := cache.SetItem(ctx, IlksKey, ilks, cacheOpts); err != nil {
		return fmt.Errorf("maker ilks: %w", err)
	}
	p.logger.Info("Cached ilks", "platform", PlatformID, "ilks", len(ilks), "listed", len(ids))
	return nil
}

func listIlks(ctx context.Context, client port.BatchCaller) ([][32]byte, error) {
	res, err := client.Multicall(ctx, []entity.ContractCall{{Address: ilkRegistryAddress, ABI: ilkRegistryABI, Method: "list"}})
	if err != nil {
		return nil, fmt.Errorf("maker ilks: %w", err)
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("maker ilks: got %d results for one call: %w", len(res), entity.ErrInvariant)
	}
	if !res[0].OK() {
		return nil, fmt.Errorf("maker ilks: registry list failed: %v", res[0].Err)
	}
	ids, ok := value[[][32]byte](res[0], 0)
	if !ok {
		return nil, fmt.Errorf("maker ilks: unexpected list result: %w", entity.ErrInvariant)
	}
	return ids, nil
}

func buildIlk(id [32]byte, reg, vat, spot entity.CallResult) (Ilk, error) {
	for _, r := range []entity.CallResult{reg, vat, spot} {
		if !r.OK() {
			return Ilk{}, fmt.Errorf("call failed: %v", r.Err)
		}
	}
	if len(reg.Values) < 9 || len(vat.Values) < 5 || len(spot.Values) < 2 {
		return Ilk{}, fmt.Errorf("short result: %w", entity.ErrInvariant)
	}

	join, _ := value[common.Address](reg, 1)
	gem, _ := value[common.Address](reg, 2)
	dec, _ := value[uint8](reg, 3)
	pip, _ := value[common.Address](reg, 5)
	name, _ := value[string](reg, 7)
	symbol, _ := value[string](reg, 8)

	return Ilk{
		ID:     common.Hash(id).Hex(),
		Name:   name,
		Symbol: symbol,
		Gem:    entity.FormatTokenAddress(gem.Hex(), entity.NetworkEthereum),
		Dec:    int32(dec),
		Join:   join.Hex(),
		Pip:    pip.Hex(),
		Art:    bigValue(vat, 0),
		Rate:   bigValue(vat, 1),
		Spot:   bigValue(vat, 2),
		Line:   bigValue(vat, 3),
		Dust:   bigValue(vat, 4),
		Mat:    bigValue(spot, 1),
	}, nil
}

// value returns the i-th decoded output of r as T.
func value[T any](r entity.CallResult, i int) (T, bool) {
	var zero T
	if i >= len(r.Values) {
		return zero, false
	}
	v, ok := r.Values[i].(T)
	return v, ok
}

// bigValue returns the i-th uint output of r as an unscaled decimal, zero when absent.
func bigValue(r entity.CallResult, i int) decimal.Decimal {
	v, ok := value[*big.Int](r, i)
	if !ok || v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}
