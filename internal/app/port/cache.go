package port

import (
	"context"
	"time"

	"portfolio_aggregator/internal/domain/entity"
)

// Cache is the namespaced store shared by jobs (writers) and fetchers (readers).
// It is passed explicitly into every executor.
type Cache interface {
	// GetItem decodes the value stored under (opts.Prefix, opts.NetworkID, key) into out.
	// A missing key returns false and a nil error.
	GetItem(ctx context.Context, key string, opts entity.CacheOpts, out any) (bool, error)

	// SetItem encodes value and overwrites the stored entry in a single write.
	SetItem(ctx context.Context, key string, value any, opts entity.CacheOpts) error

	// GetTokenPrices returns one entry per address, nil where no price is known.
	GetTokenPrices(ctx context.Context, addresses []string, networkID entity.NetworkID) ([]*entity.TokenPrice, error)

	// GetTokenPricesAsMap returns the known prices keyed by normalized address.
	// Unresolved addresses are omitted.
	GetTokenPricesAsMap(ctx context.Context, addresses []string, networkID entity.NetworkID) (map[string]entity.TokenPrice, error)

	// SetTokenPrices stores prices under their normalized addresses.
	SetTokenPrices(ctx context.Context, prices []entity.TokenPrice) error
}

// CacheDriver is the raw byte store behind Cache. Implementations must be safe
// for concurrent use; same-key writes are last-writer-wins.
type CacheDriver interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// MGet returns one slot per key, nil for a miss.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
