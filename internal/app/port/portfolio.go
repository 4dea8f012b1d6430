package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// PortfolioService defines the interface for fetching wallet portfolio information.
type PortfolioService interface {
	// FetchPortfolio runs every registered fetcher for owner and merges their elements.
	// Failed fetchers are reported in WalletPortfolio.Errors.
	FetchPortfolio(ctx context.Context, owner string) (entity.WalletPortfolio, error)

	// FetchPortfolios fetches portfolios for all owners concurrently.
	FetchPortfolios(ctx context.Context, owners []string) ([]entity.WalletPortfolio, []entity.PortfolioError)
}

// JobStatusProvider exposes the scheduler state of jobs.
type JobStatusProvider interface {
	Statuses() []entity.JobStatus
}
