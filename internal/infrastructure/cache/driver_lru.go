package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"portfolio_aggregator/internal/app/port"
)

const (
	// DefaultLRUSize is the default number of entries held by the LRU driver.
	DefaultLRUSize = 10000
	// DefaultLRUTTL is the default time-to-live of LRU entries.
	DefaultLRUTTL = time.Hour
)

// lruEntry carries its own deadline: expirable.LRU applies one TTL to every
// entry, a shorter per-call ttl is enforced on read.
type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// lruDriver bounds memory by entry count.
type lruDriver struct {
	lru *expirable.LRU[string, lruEntry]
	now func() time.Time
}

// NewLRUDriver creates a size-bounded in-process driver.
func NewLRUDriver(size int, ttl time.Duration) port.CacheDriver {
	if size <= 0 {
		size = DefaultLRUSize
	}
	if ttl <= 0 {
		ttl = DefaultLRUTTL
	}
	return &lruDriver{lru: expirable.NewLRU[string, lruEntry](size, nil, ttl), now: time.Now}
}

func (l *lruDriver) get(key string) ([]byte, bool) {
	e, found := l.lru.Get(key)
	if !found {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !l.now().Before(e.expiresAt) {
		l.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (l *lruDriver) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := l.get(key)
	return v, found, nil
}

func (l *lruDriver) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, found := l.get(k); found {
			out[i] = v
		}
	}
	return out, nil
}

// Set stores value. A positive ttl shorter than the LRU-wide TTL wins.
func (l *lruDriver) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := lruEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = l.now().Add(ttl)
	}
	l.lru.Add(key, e)
	return nil
}

func (l *lruDriver) Delete(_ context.Context, key string) error {
	l.lru.Remove(key)
	return nil
}

func (l *lruDriver) Close() error {
	l.lru.Purge()
	return nil
}
