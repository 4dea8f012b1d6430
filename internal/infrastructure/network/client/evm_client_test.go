package client

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

const testTokenABI = `[
	{"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var (
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	revertAddr   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	noCodeAddr   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	ownerAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

// fakeEth answers eth_call for a single token contract.
type fakeEth struct {
	parsed abi.ABI
	calls  atomic.Int64
}

func (f *fakeEth) Call(args map[string]interface{}, block string) (hexutil.Bytes, error) {
	f.calls.Add(1)
	to := common.HexToAddress(args["to"].(string))
	data, err := hexutil.Decode(args["data"].(string))
	if err != nil {
		return nil, err
	}
	switch to {
	case revertAddr:
		return nil, errors.New("execution reverted")
	case noCodeAddr:
		return hexutil.Bytes{}, nil
	}
	method, err := f.parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(uint8(6))
	case "balanceOf":
		in, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		owner := in[0].(common.Address)
		return method.Outputs.Pack(new(big.Int).SetBytes(owner.Bytes()[:4]))
	}
	return nil, errors.New("unsupported method")
}

func newTestEVMClient(t *testing.T, opts Options) (*EVMClient, *fakeEth) {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testTokenABI))
	require.NoError(t, err)
	svc := &fakeEth{parsed: parsed}

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	t.Cleanup(server.Stop)

	c := NewEVMClientFromRPC(rpc.DialInProc(server), entity.NetworkDefinition{ID: entity.NetworkEthereum, Family: entity.FamilyEVM}, opts)
	t.Cleanup(c.Close)
	return c, svc
}

func balanceCall(addr common.Address) entity.ContractCall {
	return entity.ContractCall{Address: addr.Hex(), ABI: testTokenABI, Method: "balanceOf", Args: []any{ownerAddress}}
}

func TestEVMClient_Multicall_PartialFailure(t *testing.T) {
	c, _ := newTestEVMClient(t, Options{})

	calls := []entity.ContractCall{
		balanceCall(tokenAddr),
		balanceCall(revertAddr),
		{Address: tokenAddr.Hex(), ABI: testTokenABI, Method: "decimals"},
		{Address: tokenAddr.Hex(), ABI: testTokenABI, Method: "totalSupply"},
		balanceCall(noCodeAddr),
		{Address: tokenAddr.Hex(), ABI: "not json", Method: "decimals"},
	}
	results, err := c.Multicall(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, len(calls))

	require.True(t, results[0].OK())
	assert.Equal(t, int64(0x11111111), results[0].Values[0].(*big.Int).Int64())

	assert.False(t, results[1].OK())
	assert.Contains(t, results[1].Err.Error(), "execution reverted")

	require.True(t, results[2].OK())
	assert.Equal(t, uint8(6), results[2].Values[0])

	assert.Equal(t, entity.StatusFailure, results[3].Status, "unknown method fails alone")
	assert.ErrorIs(t, results[4].Err, errEmptyReturnData)
	assert.Equal(t, entity.StatusFailure, results[5].Status)
}

func TestEVMClient_Multicall_ChunksKeepOrder(t *testing.T) {
	c, svc := newTestEVMClient(t, Options{MaxBatchSize: 3})

	var calls []entity.ContractCall
	for i := 0; i < 10; i++ {
		if i%4 == 1 {
			calls = append(calls, balanceCall(revertAddr))
		} else {
			calls = append(calls, entity.ContractCall{Address: tokenAddr.Hex(), ABI: testTokenABI, Method: "decimals"})
		}
	}
	results, err := c.Multicall(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		if i%4 == 1 {
			assert.False(t, r.OK(), "call %d", i)
		} else {
			require.True(t, r.OK(), "call %d", i)
			assert.Equal(t, uint8(6), r.Values[0])
		}
	}
	assert.Equal(t, int64(10), svc.calls.Load())
}

func TestEVMClient_Multicall_Empty(t *testing.T) {
	c, svc := newTestEVMClient(t, Options{})
	results, err := c.Multicall(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, svc.calls.Load())
}

func TestEVMClient_Multicall_TransportFailureIsRetryable(t *testing.T) {
	c, _ := newTestEVMClient(t, Options{})
	c.Close()

	_, err := c.Multicall(context.Background(), []entity.ContractCall{balanceCall(tokenAddr)})
	require.Error(t, err)
	assert.True(t, entity.IsRetryable(err))
}

func TestEVMClient_Multicall_CanceledContext(t *testing.T) {
	c, _ := newTestEVMClient(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Multicall(ctx, []entity.ContractCall{balanceCall(tokenAddr)})
	require.Error(t, err)
	assert.True(t, entity.IsRetryable(err))
}
