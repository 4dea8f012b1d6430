package suilend

import (
	"context"
	"fmt"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// fetchMarkets reads every configured market and replaces the cached snapshot
// in one write. Markets that cannot be read are left out; if none can be
// read the previous snapshot is kept.
func (p *Plugin) fetchMarkets(ctx context.Context, cache port.Cache) error {
	client, err := p.clients.ObjectClient(entity.NetworkSui)
	if err != nil {
		return fmt.Errorf("suilend markets: %w", err)
	}

	results, err := client.MultiGetObjects(ctx, p.marketIDs)
	if err != nil {
		return fmt.Errorf("suilend markets: %w", err)
	}

	markets := make([]LendingMarket, 0, len(results))
	for i, res := range results {
		if !res.OK() {
			p.logger.Warn("Failed to read lending market", "market", p.marketIDs[i], "error", res.Err)
			continue
		}
		market, err := decodeLendingMarket(res.Object)
		if err != nil {
			p.logger.Warn("Failed to decode lending market", "market", p.marketIDs[i], "error", err)
			continue
		}
		markets = append(markets, market)
	}
	if len(markets) == 0 {
		return fmt.Errorf("suilend markets: none of %d markets could be decoded: %w", len(p.marketIDs), entity.ErrInvariant)
	}

	if err := cache.SetItem(ctx, MarketsKey, markets, cacheOpts); err != nil {
		return fmt.Errorf("suilend markets: %w", err)
	}
	p.logger.Info("Cached lending markets", "platform", PlatformID, "markets", len(markets))
	return nil
}
