package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// SuiClient implements port.ObjectClient over the Sui JSON-RPC API.
type SuiClient struct {
	rpc     *rpc.Client
	netDef  entity.NetworkDefinition
	opts    Options
	limiter *rate.Limiter
}

var _ port.ObjectClient = (*SuiClient)(nil)

// NewSuiClient dials the network described by netDef.
func NewSuiClient(ctx context.Context, netDef entity.NetworkDefinition, opts Options) (*SuiClient, error) {
	opts = opts.withDefaults()
	c, err := dialRPC(ctx, netDef, opts)
	if err != nil {
		return nil, err
	}
	return NewSuiClientFromRPC(c, netDef, opts), nil
}

// NewSuiClientFromRPC wraps an already connected RPC client.
func NewSuiClientFromRPC(c *rpc.Client, netDef entity.NetworkDefinition, opts Options) *SuiClient {
	opts = opts.withDefaults()
	return &SuiClient{rpc: c, netDef: netDef, opts: opts, limiter: opts.limiter()}
}

// Definition returns the network definition for this client.
func (c *SuiClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close closes the underlying RPC connection.
func (c *SuiClient) Close() {
	c.rpc.Close()
}

func (c *SuiClient) call(ctx context.Context, result any, method string, args ...any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter on %s: %w: %w", c.netDef.ID, entity.ErrTransport, err)
	}
	rpcCallCtx, cancel := context.WithTimeout(ctx, c.opts.RPCCallTimeout)
	defer cancel()
	if err := c.rpc.CallContext(rpcCallCtx, result, method, args...); err != nil {
		return fmt.Errorf("%s on %s: %w: %w", method, c.netDef.ID, entity.ErrTransport, err)
	}
	return nil
}

// GetOwnedObjects implements port.ObjectClient. Pages are requested until the
// node reports no next page or MaxOwnedObjects objects were collected. Entries
// the node could not load are skipped.
func (c *SuiClient) GetOwnedObjects(ctx context.Context, owner string, filter entity.OwnedObjectsFilter) ([]entity.MoveObject, error) {
	query := newSuiObjectQuery(filter)
	var (
		objects []entity.MoveObject
		cursor  *string
	)
	for len(objects) < c.opts.MaxOwnedObjects {
		var page suiOwnedObjectsPage
		if err := c.call(ctx, &page, "suix_getOwnedObjects", owner, query, cursor, c.opts.OwnedObjectsPageSize); err != nil {
			return nil, err
		}
		for _, r := range page.Data {
			obj, err := r.toMoveObject()
			if err != nil {
				continue
			}
			objects = append(objects, obj)
		}
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	if len(objects) > c.opts.MaxOwnedObjects {
		objects = objects[:c.opts.MaxOwnedObjects]
	}
	return objects, nil
}

// MultiGetObjects implements port.ObjectClient. Ids are fetched in chunks of
// 50, chunks run concurrently.
func (c *SuiClient) MultiGetObjects(ctx context.Context, ids []string) ([]entity.ObjectResult, error) {
	results := make([]entity.ObjectResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += multiGetChunkSize {
		end := min(start+multiGetChunkSize, len(ids))
		g.Go(func() error {
			var resp []suiObjectResponse
			if err := c.call(gctx, &resp, "sui_multiGetObjects", ids[start:end], suiObjectOptions); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				j := i - start
				if j >= len(resp) {
					results[i] = entity.ObjectFailure(fmt.Errorf("object %s missing from response", ids[i]))
					continue
				}
				obj, err := resp[j].toMoveObject()
				if err != nil {
					results[i] = entity.ObjectFailure(err)
					continue
				}
				results[i] = entity.ObjectSuccess(obj)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetObject implements port.ObjectClient.
func (c *SuiClient) GetObject(ctx context.Context, id string) (entity.ObjectResult, error) {
	var resp suiObjectResponse
	if err := c.call(ctx, &resp, "sui_getObject", id, suiObjectOptions); err != nil {
		return entity.ObjectResult{}, err
	}
	obj, err := resp.toMoveObject()
	if err != nil {
		return entity.ObjectFailure(err), nil
	}
	return entity.ObjectSuccess(obj), nil
}
