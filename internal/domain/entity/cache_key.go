package entity

import (
	"fmt"
	"strings"
	"time"
)

// CacheOpts namespaces a cache key. Prefix is the owning plugin, usually its platform id.
type CacheOpts struct {
	Prefix    string
	NetworkID NetworkID
	// TTL is optional staleness metadata, zero means the driver default.
	TTL time.Duration
}

// CacheKey is the composite address of one stored value.
type CacheKey struct {
	Prefix    string
	NetworkID NetworkID
	Key       string
}

// NewCacheKey builds the key addressed by key under opts.
func NewCacheKey(key string, opts CacheOpts) CacheKey {
	return CacheKey{Prefix: opts.Prefix, NetworkID: opts.NetworkID, Key: key}
}

// segmentEscaper keeps the separator out of the prefix and network segments,
// so only the trailing key may contain '/'.
var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// String renders the key as prefix/networkId/key. A '/' or '%' inside the
// prefix or network id is percent-escaped; the key is written as is.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s/%s/%s", segmentEscaper.Replace(k.Prefix), segmentEscaper.Replace(string(k.NetworkID)), k.Key)
}
