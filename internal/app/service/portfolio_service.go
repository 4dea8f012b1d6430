package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// ErrInvalidOwner is returned for owner addresses no fetcher can serve.
var ErrInvalidOwner = errors.New("invalid owner address")

// PortfolioServiceImpl implements port.PortfolioService by running every
// registered fetcher for an owner and collecting their elements.
type PortfolioServiceImpl struct {
	runner                *FetcherRunner
	fetchers              []port.Fetcher
	networkProvider       port.NetworkDefinitionProvider
	logger                port.Logger
	maxConcurrentRoutines int
	now                   func() time.Time
}

var _ port.PortfolioService = (*PortfolioServiceImpl)(nil)

// NewPortfolioService creates a new instance of PortfolioServiceImpl.
// Fetcher ids must be unique.
func NewPortfolioService(
	runner *FetcherRunner,
	fetchers []port.Fetcher,
	np port.NetworkDefinitionProvider,
	l port.Logger,
	maxRoutines int,
) (*PortfolioServiceImpl, error) {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	seen := make(map[string]struct{}, len(fetchers))
	for _, f := range fetchers {
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("fetcher %q: %w", f.ID, ErrDuplicateID)
		}
		seen[f.ID] = struct{}{}
	}
	return &PortfolioServiceImpl{
		runner:                runner,
		fetchers:              fetchers,
		networkProvider:       np,
		logger:                l,
		maxConcurrentRoutines: maxRoutines,
		now:                   time.Now,
	}, nil
}

// fetchersFor returns the fetchers whose network is active and matches the owner's account model.
func (s *PortfolioServiceImpl) fetchersFor(owner string) []port.Fetcher {
	family := entity.AccountFamily(owner)
	out := make([]port.Fetcher, 0, len(s.fetchers))
	for _, f := range s.fetchers {
		if s.networkProvider != nil {
			def, ok := s.networkProvider.GetNetworkDefinition(f.NetworkID)
			if !ok || def.Family != family {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// FetchPortfolio implements port.PortfolioService.
func (s *PortfolioServiceImpl) FetchPortfolio(ctx context.Context, owner string) (entity.WalletPortfolio, error) {
	owner = strings.TrimSpace(owner)
	if entity.AccountFamily(owner) == "" {
		return entity.WalletPortfolio{}, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}

	fetchers := s.fetchersFor(owner)
	s.logger.Debug("Fetching portfolio", "owner", owner, "fetchers", len(fetchers))

	elements, perrs, err := s.runner.RunAll(ctx, owner, fetchers)
	if err != nil {
		s.logger.Warn("Some fetchers failed", "owner", owner, "failed", len(perrs), "error", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return entity.WalletPortfolio{}, ctxErr
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Value.GreaterThan(elements[j].Value)
	})
	total := decimal.Zero
	for _, el := range elements {
		total = total.Add(el.Value)
	}

	return entity.WalletPortfolio{
		Owner:    owner,
		Elements: elements,
		Value:    total,
		Errors:   perrs,
		Date:     s.now().UnixMilli(),
	}, nil
}

// FetchPortfolios fetches portfolios for all owners concurrently. Results keep
// the order of owners; owners that could not be fetched at all are reported
// as errors and left out.
func (s *PortfolioServiceImpl) FetchPortfolios(ctx context.Context, owners []string) ([]entity.WalletPortfolio, []entity.PortfolioError) {
	results := make([]*entity.WalletPortfolio, len(owners))
	var (
		wg        sync.WaitGroup
		errorMu   sync.Mutex
		allErrors []entity.PortfolioError
	)
	sem := make(chan struct{}, s.maxConcurrentRoutines)
	cancelled := func(owner string) {
		errorMu.Lock()
		allErrors = append(allErrors, entity.PortfolioError{Owner: owner, Message: ctx.Err().Error()})
		errorMu.Unlock()
	}

	for i, owner := range owners {
		wg.Add(1)
		go func(i int, owner string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				cancelled(owner)
				return
			}
			defer func() { <-sem }()
			// слот мог освободиться одновременно с отменой
			if ctx.Err() != nil {
				cancelled(owner)
				return
			}

			p, err := s.FetchPortfolio(ctx, owner)
			errorMu.Lock()
			defer errorMu.Unlock()
			if err != nil {
				allErrors = append(allErrors, entity.PortfolioError{Owner: owner, Message: err.Error()})
				return
			}
			allErrors = append(allErrors, p.Errors...)
			results[i] = &p
		}(i, owner)
	}
	wg.Wait()

	portfolios := make([]entity.WalletPortfolio, 0, len(owners))
	for _, p := range results {
		if p != nil {
			portfolios = append(portfolios, *p)
		}
	}
	s.logger.Info("Fetched portfolios", "requested", len(owners), "fetched", len(portfolios), "errors", len(allErrors))
	return portfolios, allErrors
}
