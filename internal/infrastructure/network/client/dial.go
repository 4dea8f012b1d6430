package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"portfolio_aggregator/internal/domain/entity"
)

// dialRPC connects to the primary RPC URL of netDef, then to each fallback in order.
func dialRPC(ctx context.Context, netDef entity.NetworkDefinition, opts Options) (*rpc.Client, error) {
	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error
	for _, rpcURL := range rpcURLs {
		if rpcURL == "" {
			continue
		}
		dialCtx, cancel := context.WithTimeout(ctx, opts.ConnectionTimeout)
		c, err := rpc.DialContext(dialCtx, rpcURL)
		cancel()
		if err == nil {
			return c, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC URL configured")
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w: %w", netDef.ID, entity.ErrTransport, lastErr)
}
