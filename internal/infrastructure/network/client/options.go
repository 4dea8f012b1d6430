package client

import (
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultConnectionTimeout = 10 * time.Second
	defaultRPCCallTimeout    = 15 * time.Second
	defaultMaxBatchSize      = 100
	defaultOwnedPageSize     = 50
	defaultMaxOwnedObjects   = 1500
	// multiGetChunkSize is the largest id list accepted by sui_multiGetObjects.
	multiGetChunkSize = 50
)

// Options tunes the network clients. Zero values fall back to defaults.
type Options struct {
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
	// MaxBatchSize caps the number of calls in one JSON-RPC batch.
	MaxBatchSize int
	// RateLimit is the number of round trips per second, zero disables limiting.
	RateLimit float64
	RateBurst int
	// OwnedObjectsPageSize and MaxOwnedObjects bound owned-object pagination.
	OwnedObjectsPageSize int
	MaxOwnedObjects      int
}

func (o Options) withDefaults() Options {
	if o.ConnectionTimeout <= 0 {
		o.ConnectionTimeout = defaultConnectionTimeout
	}
	if o.RPCCallTimeout <= 0 {
		o.RPCCallTimeout = defaultRPCCallTimeout
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = defaultMaxBatchSize
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	if o.OwnedObjectsPageSize <= 0 {
		o.OwnedObjectsPageSize = defaultOwnedPageSize
	}
	if o.MaxOwnedObjects <= 0 {
		o.MaxOwnedObjects = defaultMaxOwnedObjects
	}
	return o
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, o.RateBurst)
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), o.RateBurst)
}
