package cache

import (
	"context"
	"fmt"
	"time"

	"portfolio_aggregator/internal/app/port"
)

// Driver names accepted in configuration.
const (
	DriverMemory = "memory"
	DriverLRU    = "lru"
	DriverRedis  = "redis"
)

// DriverConfig selects and sizes a driver.
type DriverConfig struct {
	Driver     string
	RedisURL   string
	Namespace  string
	LRUSize    int
	DefaultTTL time.Duration
}

// NewDriver builds the driver named by cfg.Driver. An empty name selects memory.
func NewDriver(ctx context.Context, cfg DriverConfig) (port.CacheDriver, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryDriver(cfg.DefaultTTL), nil
	case DriverLRU:
		return NewLRUDriver(cfg.LRUSize, cfg.DefaultTTL), nil
	case DriverRedis:
		return NewRedisDriverFromURL(ctx, cfg.RedisURL, cfg.Namespace, cfg.DefaultTTL)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
