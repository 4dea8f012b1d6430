package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// TokenPricePrefix namespaces token prices in the cache.
const TokenPricePrefix = "tokenPrices"

const defaultPriceTTL = 15 * time.Minute

// Cache implements port.Cache on top of a byte driver. Every read decodes a
// fresh copy, so readers never share memory with the stored value.
type Cache struct {
	driver   port.CacheDriver
	codec    Codec
	logger   port.Logger
	priceTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec overrides the msgpack codec.
func WithCodec(codec Codec) Option {
	return func(c *Cache) { c.codec = codec }
}

// WithPriceTTL sets the expiry of token prices.
func WithPriceTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.priceTTL = ttl
		}
	}
}

// New creates a Cache over driver.
func New(driver port.CacheDriver, logger port.Logger, opts ...Option) *Cache {
	c := &Cache{
		driver:   driver,
		codec:    MsgpackCodec(),
		logger:   logger,
		priceTTL: defaultPriceTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ port.Cache = (*Cache)(nil)

// GetItem implements port.Cache. An entry that no longer decodes into out is
// logged and reported as absent.
func (c *Cache) GetItem(ctx context.Context, key string, opts entity.CacheOpts, out any) (bool, error) {
	k := entity.NewCacheKey(key, opts).String()
	raw, found, err := c.driver.Get(ctx, k)
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w: %w", k, entity.ErrTransport, err)
	}
	if !found {
		return false, nil
	}
	if err := c.codec.Unmarshal(raw, out); err != nil {
		c.logger.Warn("Failed to decode cache entry, treating as absent", "key", k, "error", err)
		return false, nil
	}
	return true, nil
}

// SetItem implements port.Cache.
func (c *Cache) SetItem(ctx context.Context, key string, value any, opts entity.CacheOpts) error {
	k := entity.NewCacheKey(key, opts).String()
	raw, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", k, err)
	}
	if err := c.driver.Set(ctx, k, raw, opts.TTL); err != nil {
		return fmt.Errorf("cache set %s: %w: %w", k, entity.ErrTransport, err)
	}
	c.logger.Debug("Cache item stored", "key", k, "bytes", len(raw))
	return nil
}

func priceKey(address string, networkID entity.NetworkID) string {
	return entity.NewCacheKey(
		entity.FormatTokenAddress(address, networkID),
		entity.CacheOpts{Prefix: TokenPricePrefix, NetworkID: networkID},
	).String()
}

// GetTokenPrices implements port.Cache. The result has one slot per address.
func (c *Cache) GetTokenPrices(ctx context.Context, addresses []string, networkID entity.NetworkID) ([]*entity.TokenPrice, error) {
	out := make([]*entity.TokenPrice, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}
	keys := make([]string, len(addresses))
	for i, addr := range addresses {
		keys[i] = priceKey(addr, networkID)
	}
	raws, err := c.driver.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("cache mget token prices on %s: %w: %w", networkID, entity.ErrTransport, err)
	}
	for i, raw := range raws {
		if i >= len(out) || raw == nil {
			continue
		}
		var tp entity.TokenPrice
		if err := c.codec.Unmarshal(raw, &tp); err != nil {
			c.logger.Warn("Failed to decode token price, skipping", "key", keys[i], "error", err)
			continue
		}
		out[i] = &tp
	}
	return out, nil
}

// GetTokenPricesAsMap implements port.Cache. Keys are normalized addresses.
func (c *Cache) GetTokenPricesAsMap(ctx context.Context, addresses []string, networkID entity.NetworkID) (map[string]entity.TokenPrice, error) {
	prices, err := c.GetTokenPrices(ctx, addresses, networkID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entity.TokenPrice, len(prices))
	for i, tp := range prices {
		if tp == nil {
			continue
		}
		out[entity.FormatTokenAddress(addresses[i], networkID)] = *tp
	}
	return out, nil
}

// SetTokenPrices implements port.Cache. Each price is an independent entry;
// failures are collected and returned together.
func (c *Cache) SetTokenPrices(ctx context.Context, prices []entity.TokenPrice) error {
	var result *multierror.Error
	for _, tp := range prices {
		tp.Address = entity.FormatTokenAddress(tp.Address, tp.NetworkID)
		k := priceKey(tp.Address, tp.NetworkID)
		raw, err := c.codec.Marshal(tp)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("encode price %s: %w", k, err))
			continue
		}
		if err := c.driver.Set(ctx, k, raw, c.priceTTL); err != nil {
			result = multierror.Append(result, fmt.Errorf("set price %s: %w: %w", k, entity.ErrTransport, err))
		}
	}
	return result.ErrorOrNil()
}

// Close releases the driver.
func (c *Cache) Close() error {
	return c.driver.Close()
}

// GetItem is the typed form of port.Cache.GetItem.
func GetItem[T any](ctx context.Context, c port.Cache, key string, opts entity.CacheOpts) (T, bool, error) {
	var v T
	found, err := c.GetItem(ctx, key, opts, &v)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}
