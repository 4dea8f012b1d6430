// Package bootstrap wires configuration into a running aggregator: cache,
// network clients, plugins, the job scheduler and the HTTP router.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/app/provider"
	"portfolio_aggregator/internal/app/service"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/cache"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/infrastructure/httpclient"
	clientprovider "portfolio_aggregator/internal/infrastructure/network/client"
	networkdefinition "portfolio_aggregator/internal/infrastructure/network/definition"
	"portfolio_aggregator/internal/infrastructure/restapi"
	"portfolio_aggregator/internal/pkg/logger"
	"portfolio_aggregator/internal/pkg/metrics"
	"portfolio_aggregator/internal/pkg/tracing"
	"portfolio_aggregator/internal/plugins"
)

// Options carries process-level dependencies that tests replace.
type Options struct {
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// PriceSource replaces the DEXScreener client when set.
	PriceSource port.TokenPriceSource
}

// App is the assembled aggregator.
type App struct {
	Config    *configloader.Config
	Cache     *cache.Cache
	Networks  port.NetworkDefinitionProvider
	Clients   port.ClientProvider
	Plugins   *plugins.Registry
	Jobs      *service.JobRunner
	Portfolio *service.PortfolioServiceImpl
	Wallets   port.WalletProvider
	Router    *gin.Engine

	logger        port.Logger
	shutdownTrace func(context.Context) error
}

// New builds every component from cfg. Nothing is started: call
// App.Jobs.Start or App.Jobs.RunAll to populate the cache.
func New(ctx context.Context, cfg *configloader.Config, zapLogger *zap.Logger, opts Options) (*App, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	appLogger := logger.Named("bootstrap")

	tracer, shutdownTrace, err := initTracing(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	m := metrics.New(opts.Registerer)

	driver, err := cache.NewDriver(ctx, cache.DriverConfig{
		Driver:     cfg.Cache.Driver,
		RedisURL:   cfg.Cache.RedisURL,
		Namespace:  cfg.Cache.Namespace,
		LRUSize:    cfg.Cache.LRUSize,
		DefaultTTL: cfg.CacheTTL(),
	})
	if err != nil {
		_ = shutdownTrace(ctx)
		return nil, fmt.Errorf("create cache driver: %w", err)
	}
	priceTTL := time.Duration(cfg.TokenPriceSvc.CacheTTLMinutes) * time.Minute
	store := cache.New(driver, logger.Named("cache"), cache.WithPriceTTL(priceTTL))
	appLogger.Info("Cache initialized", "driver", cfg.Cache.Driver)

	networks := networkdefinition.NewNetworkDefinitionProvider(logger.Named("networks"), networkOverrides(cfg.Networks))
	clients := clientprovider.NewClientProvider(networks, clientprovider.Options{
		ConnectionTimeout:    time.Duration(cfg.Performance.ConnectionTimeoutSeconds) * time.Second,
		RPCCallTimeout:       time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		MaxBatchSize:         cfg.Performance.MaxBatchSize,
		RateLimit:            cfg.Performance.RateLimit,
		RateBurst:            cfg.Performance.RateBurst,
		OwnedObjectsPageSize: cfg.Performance.OwnedObjectsPageSize,
		MaxOwnedObjects:      cfg.Performance.MaxOwnedObjects,
	}, logger.Named("clients"))

	all, err := plugins.Default(clients, logger.Named("plugins"))
	if err != nil {
		_ = shutdownTrace(ctx)
		return nil, err
	}
	registry := all.Enabled(networks)
	appLogger.Info("Plugins enabled", "platforms", len(registry.Platforms()), "fetchers", len(registry.Fetchers()))

	priceSource := opts.PriceSource
	if priceSource == nil {
		priceSource = httpclient.NewDEXScreenerClient(
			cfg.DEXScreener.BaseURL,
			time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
			zapLogger.Named("dexscreener"),
			cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
		)
	}
	prices := service.NewTokenPriceService(
		provider.NewTokenProvider(cfg.TokenPriceSvc.TokensDir, logger.Named("tokens")),
		networks,
		priceSource,
		logger.Named("prices"),
		service.TokenPriceServiceConfig{
			MaxTokensPerBatchRequest: cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
			MaxConcurrentRequests:    cfg.TokenPriceSvc.MaxConcurrentRequests,
			RequestTimeout:           time.Duration(cfg.TokenPriceSvc.RequestTimeoutMillis) * time.Millisecond,
		},
	)

	jobs := service.NewJobRunner(store, logger.Named("jobs"), service.JobRunnerConfig{
		Intervals:      jobIntervals(cfg),
		Timeout:        time.Duration(cfg.Jobs.TimeoutSeconds) * time.Second,
		MaxConcurrent:  cfg.Jobs.MaxConcurrent,
		MaxRetries:     cfg.Jobs.MaxRetries,
		InitialBackoff: time.Duration(cfg.Jobs.InitialBackoffMillis) * time.Millisecond,
	}, m, tracer)
	if err := jobs.Register(prices.Job()); err != nil {
		_ = shutdownTrace(ctx)
		return nil, err
	}
	if err := jobs.Register(registry.Jobs()...); err != nil {
		_ = shutdownTrace(ctx)
		return nil, err
	}

	fetchers := service.NewFetcherRunner(store, logger.Named("fetchers"), service.FetcherRunnerConfig{
		Timeout:       time.Duration(cfg.Fetchers.TimeoutSeconds) * time.Second,
		MaxConcurrent: cfg.Fetchers.MaxConcurrent,
	}, m, tracer)
	portfolio, err := service.NewPortfolioService(fetchers, registry.Fetchers(), networks, logger.Named("portfolio"), cfg.Fetchers.MaxConcurrent)
	if err != nil {
		_ = shutdownTrace(ctx)
		return nil, err
	}

	handler := restapi.NewPortfolioHandler(portfolio, jobs, registry.Platforms(), cfg.Fetchers.MaxOwners)
	router := restapi.SetupRouter(handler, zapLogger, restapi.RouterOptions{
		MetricsHandler: promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
		EnablePprof:    cfg.Server.EnablePprof,
	})

	return &App{
		Config:        cfg,
		Cache:         store,
		Networks:      networks,
		Clients:       clients,
		Plugins:       registry,
		Jobs:          jobs,
		Portfolio:     portfolio,
		Wallets:       provider.NewWalletProvider(cfg.WalletsFile, logger.Named("wallets")),
		Router:        router,
		logger:        appLogger,
		shutdownTrace: shutdownTrace,
	}, nil
}

// Close flushes traces and releases the cache driver.
func (a *App) Close(ctx context.Context) error {
	var merr *multierror.Error
	if err := a.shutdownTrace(ctx); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("shutdown tracing: %w", err))
	}
	if err := a.Cache.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("close cache: %w", err))
	}
	a.logger.Info("Application resources released")
	return merr.ErrorOrNil()
}

func initTracing(ctx context.Context, cfg configloader.TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	tracer, shutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:       cfg.Enabled,
		Endpoint:      cfg.Endpoint,
		Insecure:      cfg.Insecure,
		ServiceName:   cfg.ServiceName,
		SampleRatio:   cfg.SampleRatio,
		ExportTimeout: time.Duration(cfg.ExportTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}
	return tracer, shutdown, nil
}

func networkOverrides(networks []configloader.NetworkConfig) []networkdefinition.Override {
	out := make([]networkdefinition.Override, 0, len(networks))
	for _, n := range networks {
		out = append(out, networkdefinition.Override{
			ID:              entity.NetworkID(n.ID),
			PrimaryRPCURL:   n.RPCURL,
			FallbackRPCURLs: n.FallbackRPCURLs,
		})
	}
	return out
}

func jobIntervals(cfg *configloader.Config) map[entity.JobLabel]time.Duration {
	labels := []entity.JobLabel{entity.JobLabelNormal, entity.JobLabelCronjob, entity.JobLabelRealtime}
	out := make(map[entity.JobLabel]time.Duration, len(labels))
	for _, label := range labels {
		out[label] = cfg.JobInterval(string(label))
	}
	return out
}
