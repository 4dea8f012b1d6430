package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"portfolio_aggregator/internal/app/port"
)

const defaultRedisChunkSize = 100

// redisDriver stores entries in Redis under an optional key namespace.
type redisDriver struct {
	client     redis.UniversalClient
	namespace  string
	defaultTTL time.Duration
	chunkSize  int
}

// NewRedisDriver wraps an existing client. ttl applies when a write carries none;
// zero keeps entries until overwritten.
func NewRedisDriver(client redis.UniversalClient, namespace string, ttl time.Duration) port.CacheDriver {
	return &redisDriver{
		client:     client,
		namespace:  namespace,
		defaultTTL: ttl,
		chunkSize:  defaultRedisChunkSize,
	}
}

// NewRedisDriverFromURL parses a redis:// URL and pings the server.
func NewRedisDriverFromURL(ctx context.Context, url, namespace string, ttl time.Duration) (port.CacheDriver, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return NewRedisDriver(client, namespace, ttl), nil
}

func (r *redisDriver) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *redisDriver) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}
	return raw, true, nil
}

// MGet issues one MGET per chunk of keys, chunks in parallel.
func (r *redisDriver) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(keys); start += r.chunkSize {
		end := min(start+r.chunkSize, len(keys))
		g.Go(func() error {
			namespaced := make([]string, 0, end-start)
			for _, k := range keys[start:end] {
				namespaced = append(namespaced, r.key(k))
			}
			vals, err := r.client.MGet(gctx, namespaced...).Result()
			if err != nil {
				return errors.WithStack(err)
			}
			for i, v := range vals {
				switch val := v.(type) {
				case string:
					out[start+i] = []byte(val)
				case []byte:
					out[start+i] = val
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *redisDriver) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return errors.WithStack(r.client.Set(ctx, r.key(key), value, ttl).Err())
}

func (r *redisDriver) Delete(ctx context.Context, key string) error {
	return errors.WithStack(r.client.Del(ctx, r.key(key)).Err())
}

func (r *redisDriver) Close() error {
	return r.client.Close()
}
