package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// JobExecutor collects reference data and writes it into the cache.
type JobExecutor func(ctx context.Context, cache Cache) error

// Job is a wallet-independent task that keeps reference data fresh.
type Job struct {
	ID       string
	Label    entity.JobLabel
	Executor JobExecutor
}

// FetcherExecutor computes the positions of owner from cached reference data and live reads.
// Domain-level absence (no positions, no prices, no reference data) yields no elements and a nil error.
type FetcherExecutor func(ctx context.Context, owner string, cache Cache) ([]entity.PortfolioElement, error)

// Fetcher produces the portfolio elements of one platform on one network.
type Fetcher struct {
	ID        string
	NetworkID entity.NetworkID
	Executor  FetcherExecutor
}
