package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

var errEmptyReturnData = errors.New("empty return data")

// EVMClient implements port.BatchCaller for EVM-compatible chains by sending
// eth_call requests as JSON-RPC batches.
type EVMClient struct {
	rpc     *rpc.Client
	netDef  entity.NetworkDefinition
	opts    Options
	limiter *rate.Limiter
}

var _ port.BatchCaller = (*EVMClient)(nil)

// NewEVMClient dials the network described by netDef.
func NewEVMClient(ctx context.Context, netDef entity.NetworkDefinition, opts Options) (*EVMClient, error) {
	opts = opts.withDefaults()
	c, err := dialRPC(ctx, netDef, opts)
	if err != nil {
		return nil, err
	}
	return NewEVMClientFromRPC(c, netDef, opts), nil
}

// NewEVMClientFromRPC wraps an already connected RPC client.
func NewEVMClientFromRPC(c *rpc.Client, netDef entity.NetworkDefinition, opts Options) *EVMClient {
	opts = opts.withDefaults()
	return &EVMClient{rpc: c, netDef: netDef, opts: opts, limiter: opts.limiter()}
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close closes the underlying RPC connection.
func (c *EVMClient) Close() {
	c.rpc.Close()
}

type pendingCall struct {
	index  int
	parsed *abi.ABI
	elem   rpc.BatchElem
}

// Multicall implements port.BatchCaller. Calls that cannot be packed fail
// individually without a round trip. Batches larger than MaxBatchSize are split
// and the chunks are sent concurrently.
func (c *EVMClient) Multicall(ctx context.Context, calls []entity.ContractCall) ([]entity.CallResult, error) {
	results := make([]entity.CallResult, len(calls))
	pending := make([]*pendingCall, 0, len(calls))

	for i, call := range calls {
		parsed, err := parseABI(call.ABI)
		if err != nil {
			results[i] = entity.CallFailure(err)
			continue
		}
		data, err := parsed.Pack(call.Method, call.Args...)
		if err != nil {
			results[i] = entity.CallFailure(fmt.Errorf("pack %s: %w", call.Method, err))
			continue
		}
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(call.Address),
			"data": hexutil.Bytes(data),
		}
		pending = append(pending, &pendingCall{
			index:  i,
			parsed: parsed,
			elem: rpc.BatchElem{
				Method: "eth_call",
				Args:   []interface{}{callArgs, "latest"},
				Result: new(hexutil.Bytes),
			},
		})
	}
	if len(pending) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(pending); start += c.opts.MaxBatchSize {
		chunk := pending[start:min(start+c.opts.MaxBatchSize, len(pending))]
		g.Go(func() error {
			return c.sendBatch(gctx, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range pending {
		call := calls[p.index]
		if p.elem.Error != nil {
			results[p.index] = entity.CallFailure(fmt.Errorf("%s.%s on %s: %w", call.Address, call.Method, c.netDef.ID, p.elem.Error))
			continue
		}
		out, _ := p.elem.Result.(*hexutil.Bytes)
		if out == nil || len(*out) == 0 {
			results[p.index] = entity.CallFailure(fmt.Errorf("%s.%s: %w", call.Address, call.Method, errEmptyReturnData))
			continue
		}
		values, err := p.parsed.Unpack(call.Method, *out)
		if err != nil {
			results[p.index] = entity.CallFailure(fmt.Errorf("unpack %s.%s: %w", call.Address, call.Method, err))
			continue
		}
		results[p.index] = entity.CallSuccess(values)
	}
	return results, nil
}

func (c *EVMClient) sendBatch(ctx context.Context, chunk []*pendingCall) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter on %s: %w: %w", c.netDef.ID, entity.ErrTransport, err)
	}
	elems := make([]rpc.BatchElem, len(chunk))
	for i, p := range chunk {
		elems[i] = p.elem
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.opts.RPCCallTimeout)
	defer cancel()
	if err := c.rpc.BatchCallContext(rpcCallCtx, elems); err != nil {
		return fmt.Errorf("RPC batch call of %d elements on %s failed: %w: %w", len(elems), c.netDef.ID, entity.ErrTransport, err)
	}
	for i := range elems {
		chunk[i].elem.Error = elems[i].Error
	}
	return nil
}

var (
	abiCacheMu sync.RWMutex
	abiCache   = make(map[string]*abi.ABI)
)

// parseABI parses an ABI JSON definition once and reuses it afterwards.
func parseABI(definition string) (*abi.ABI, error) {
	abiCacheMu.RLock()
	parsed, ok := abiCache[definition]
	abiCacheMu.RUnlock()
	if ok {
		return parsed, nil
	}

	a, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	abiCacheMu.Lock()
	abiCache[definition] = &a
	abiCacheMu.Unlock()
	return &a, nil
}
