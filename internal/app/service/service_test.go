package service

import (
	"portfolio_aggregator/internal/infrastructure/cache"
	"portfolio_aggregator/internal/pkg/logger"
)

func newMemoryCache() *cache.Cache {
	return cache.New(cache.NewMemoryDriver(0), logger.Nop())
}
