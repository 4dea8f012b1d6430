package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"portfolio_aggregator/internal/app/port"
)

const (
	defaultMemoryExpiration = time.Hour
	defaultCleanupInterval  = 10 * time.Minute
)

// memoryDriver keeps encoded entries in process memory.
type memoryDriver struct {
	store *gocache.Cache
}

// NewMemoryDriver creates an in-process driver. A non-positive expiration keeps entries forever.
func NewMemoryDriver(defaultExpiration time.Duration) port.CacheDriver {
	if defaultExpiration <= 0 {
		defaultExpiration = gocache.NoExpiration
	}
	return &memoryDriver{store: gocache.New(defaultExpiration, defaultCleanupInterval)}
}

func (m *memoryDriver) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := m.store.Get(key)
	if !found {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (m *memoryDriver) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		raw, found, _ := m.Get(ctx, k)
		if found {
			out[i] = raw
		}
	}
	return out, nil
}

func (m *memoryDriver) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, stored, ttl)
	return nil
}

func (m *memoryDriver) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

func (m *memoryDriver) Close() error {
	m.store.Flush()
	return nil
}
