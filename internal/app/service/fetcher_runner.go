package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/domain/lending"
	"portfolio_aggregator/internal/pkg/metrics"
	"portfolio_aggregator/internal/pkg/tracing"
)

// FetcherRunnerConfig bounds fetcher execution.
type FetcherRunnerConfig struct {
	Timeout       time.Duration
	MaxConcurrent int
}

// FetcherRunner executes fetchers for an owner and validates what they return.
type FetcherRunner struct {
	cache   port.Cache
	logger  port.Logger
	cfg     FetcherRunnerConfig
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewFetcherRunner creates a FetcherRunner. m and tracer may be nil.
func NewFetcherRunner(cache port.Cache, logger port.Logger, cfg FetcherRunnerConfig, m *metrics.Metrics, tracer trace.Tracer) *FetcherRunner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &FetcherRunner{cache: cache, logger: logger, cfg: cfg, metrics: m, tracer: tracer}
}

// Run executes one fetcher for owner. Domain-level absence yields an empty
// slice. An element whose totals are inconsistent fails the run with
// entity.ErrInvariant.
func (r *FetcherRunner) Run(ctx context.Context, owner string, f port.Fetcher) ([]entity.PortfolioElement, error) {
	ctx, span := r.tracer.Start(ctx, "fetcher.run", trace.WithAttributes(
		attribute.String("fetcher.id", f.ID),
		attribute.String("fetcher.network", string(f.NetworkID)),
	))
	defer span.End()

	started := time.Now()
	elements, err := r.run(ctx, owner, f)
	took := time.Since(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.ObserveFetcher(f.ID, metrics.OutcomeFailure, 0, took)
		return nil, err
	}
	span.SetAttributes(attribute.Int("fetcher.elements", len(elements)))
	r.metrics.ObserveFetcher(f.ID, metrics.OutcomeSuccess, len(elements), took)
	return elements, nil
}

func (r *FetcherRunner) run(ctx context.Context, owner string, f port.Fetcher) ([]entity.PortfolioElement, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	elements, err := f.Executor(runCtx, owner, r.cache)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, entity.ErrTransport) {
			err = fmt.Errorf("%w: fetcher %s timed out after %s: %w", entity.ErrTransport, f.ID, r.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("fetcher %s: %w", f.ID, err)
	}
	if elements == nil {
		return []entity.PortfolioElement{}, nil
	}
	for i, el := range elements {
		if err := lending.CheckElement(el); err != nil {
			return nil, fmt.Errorf("fetcher %s element %d: %w", f.ID, i, err)
		}
	}
	return elements, nil
}

// RunAll executes fetchers concurrently. Elements keep the order of fetchers.
// Every failed fetcher becomes a PortfolioError; the combined error is
// returned as well so callers can log it once.
func (r *FetcherRunner) RunAll(ctx context.Context, owner string, fetchers []port.Fetcher) ([]entity.PortfolioElement, []entity.PortfolioError, error) {
	results := make([][]entity.PortfolioElement, len(fetchers))
	errs := make([]error, len(fetchers))

	sem := make(chan struct{}, r.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f port.Fetcher) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = fmt.Errorf("fetcher %s: %w", f.ID, ctx.Err())
				return
			}
			defer func() { <-sem }()
			results[i], errs[i] = r.Run(ctx, owner, f)
		}(i, f)
	}
	wg.Wait()

	var (
		elements []entity.PortfolioElement
		perrs    []entity.PortfolioError
		merr     *multierror.Error
	)
	for i, f := range fetchers {
		if errs[i] != nil {
			r.logger.Warn("Fetcher failed", "fetcher", f.ID, "owner", owner, "error", errs[i])
			perrs = append(perrs, entity.PortfolioError{
				Owner:     owner,
				NetworkID: f.NetworkID,
				FetcherID: f.ID,
				Retryable: entity.IsRetryable(errs[i]),
				Message:   errs[i].Error(),
			})
			merr = multierror.Append(merr, errs[i])
			continue
		}
		elements = append(elements, results[i]...)
	}
	if elements == nil {
		elements = []entity.PortfolioElement{}
	}
	return elements, perrs, merr.ErrorOrNil()
}
