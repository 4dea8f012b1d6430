package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

const capType = "0xf95b::lending_market::ObligationOwnerCap<0xf95b::suilend::MAIN_POOL>"

func objectResponse(id, typ string, fields string) suiObjectResponse {
	return suiObjectResponse{Data: &suiObjectData{
		ObjectID: id,
		Version:  "7",
		Type:     typ,
		Content:  &suiObjectContent{DataType: "moveObject", Type: typ, Fields: json.RawMessage(fields)},
	}}
}

// fakeSui serves sui_* methods from an in-memory object table.
type fakeSui struct {
	objects map[string]suiObjectResponse
	calls   atomic.Int64
}

func (f *fakeSui) MultiGetObjects(ids []string, _ map[string]bool) ([]suiObjectResponse, error) {
	f.calls.Add(1)
	if len(ids) > multiGetChunkSize {
		return nil, fmt.Errorf("too many ids: %d", len(ids))
	}
	out := make([]suiObjectResponse, len(ids))
	for i, id := range ids {
		if obj, ok := f.objects[id]; ok {
			out[i] = obj
		} else {
			out[i] = suiObjectResponse{Error: &suiObjectError{Code: "notExists", ObjectID: id}}
		}
	}
	return out, nil
}

func (f *fakeSui) GetObject(id string, opts map[string]bool) (suiObjectResponse, error) {
	res, err := f.MultiGetObjects([]string{id}, opts)
	if err != nil {
		return suiObjectResponse{}, err
	}
	return res[0], nil
}

// fakeSuix pages over the owned objects of a single owner.
type fakeSuix struct {
	owned []suiObjectResponse
	pages atomic.Int64
	query atomic.Value
}

func (f *fakeSuix) GetOwnedObjects(owner string, query suiObjectQuery, cursor *string, limit int) (suiOwnedObjectsPage, error) {
	f.pages.Add(1)
	f.query.Store(query)
	start := 0
	if cursor != nil {
		n, err := strconv.Atoi(*cursor)
		if err != nil {
			return suiOwnedObjectsPage{}, err
		}
		start = n
	}
	end := min(start+limit, len(f.owned))
	page := suiOwnedObjectsPage{Data: f.owned[start:end]}
	if end < len(f.owned) {
		next := strconv.Itoa(end)
		page.NextCursor = &next
		page.HasNextPage = true
	}
	return page, nil
}

func newTestSuiClient(t *testing.T, opts Options, sui *fakeSui, suix *fakeSuix) *SuiClient {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("sui", sui))
	require.NoError(t, server.RegisterName("suix", suix))
	t.Cleanup(server.Stop)

	c := NewSuiClientFromRPC(rpc.DialInProc(server), entity.NetworkDefinition{ID: entity.NetworkSui, Family: entity.FamilyMove}, opts)
	t.Cleanup(c.Close)
	return c
}

func ownedCaps(n int) []suiObjectResponse {
	out := make([]suiObjectResponse, n)
	for i := range out {
		out[i] = objectResponse(fmt.Sprintf("0xcap%d", i), capType, fmt.Sprintf(`{"obligation_id":"0xob%d"}`, i))
	}
	return out
}

func TestSuiClient_GetOwnedObjects_Paginates(t *testing.T) {
	suix := &fakeSuix{owned: ownedCaps(7)}
	// One entry the node failed to load is skipped.
	suix.owned[4] = suiObjectResponse{Error: &suiObjectError{Code: "deleted", ObjectID: "0xcap4"}}
	c := newTestSuiClient(t, Options{OwnedObjectsPageSize: 3}, &fakeSui{}, suix)

	objects, err := c.GetOwnedObjects(context.Background(), "0xowner", entity.OwnedObjectsFilter{Package: "0xf95b"})
	require.NoError(t, err)
	require.Len(t, objects, 6)
	assert.Equal(t, "0xcap0", objects[0].ObjectID)
	assert.Equal(t, capType, objects[0].Type)
	assert.JSONEq(t, `{"obligation_id":"0xob0"}`, string(objects[0].Fields))
	assert.Equal(t, "0xcap6", objects[5].ObjectID)
	assert.Equal(t, int64(3), suix.pages.Load())

	q := suix.query.Load().(suiObjectQuery)
	assert.Equal(t, map[string]string{"Package": "0xf95b"}, q.Filter)
	assert.True(t, q.Options["showContent"])
}

func TestSuiClient_GetOwnedObjects_Capped(t *testing.T) {
	suix := &fakeSuix{owned: ownedCaps(10)}
	c := newTestSuiClient(t, Options{OwnedObjectsPageSize: 3, MaxOwnedObjects: 4}, &fakeSui{}, suix)

	objects, err := c.GetOwnedObjects(context.Background(), "0xowner", entity.OwnedObjectsFilter{StructType: capType})
	require.NoError(t, err)
	assert.Len(t, objects, 4)
	assert.Equal(t, int64(2), suix.pages.Load())
	q := suix.query.Load().(suiObjectQuery)
	assert.Equal(t, map[string]string{"StructType": capType}, q.Filter)
}

func TestSuiClient_MultiGetObjects_AlignedAcrossChunks(t *testing.T) {
	sui := &fakeSui{objects: map[string]suiObjectResponse{}}
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("0xob%d", i)
		if i%7 != 3 {
			sui.objects[ids[i]] = objectResponse(ids[i], "0xf95b::obligation::Obligation<0xf95b::suilend::MAIN_POOL>", fmt.Sprintf(`{"n":%d}`, i))
		}
	}
	c := newTestSuiClient(t, Options{}, sui, &fakeSuix{})

	results, err := c.MultiGetObjects(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))
	for i, r := range results {
		if i%7 == 3 {
			assert.False(t, r.OK(), "object %d", i)
			assert.Contains(t, r.Err.Error(), "notExists")
			continue
		}
		require.True(t, r.OK(), "object %d", i)
		assert.Equal(t, ids[i], r.Object.ObjectID)
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(r.Object.Fields))
	}
	assert.Equal(t, int64(3), sui.calls.Load())
}

func TestSuiClient_GetObject(t *testing.T) {
	sui := &fakeSui{objects: map[string]suiObjectResponse{
		"0xmarket": objectResponse("0xmarket", "0xf95b::lending_market::LendingMarket<0xf95b::suilend::MAIN_POOL>", `{"reserves":[]}`),
		"0xpkg":    {Data: &suiObjectData{ObjectID: "0xpkg", Content: &suiObjectContent{DataType: "package"}}},
	}}
	c := newTestSuiClient(t, Options{}, sui, &fakeSuix{})

	res, err := c.GetObject(context.Background(), "0xmarket")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "7", res.Object.Version)

	res, err = c.GetObject(context.Background(), "0xpkg")
	require.NoError(t, err)
	assert.False(t, res.OK())

	res, err = c.GetObject(context.Background(), "0xgone")
	require.NoError(t, err)
	assert.False(t, res.OK())
}

func TestSuiClient_TransportFailure(t *testing.T) {
	c := newTestSuiClient(t, Options{}, &fakeSui{}, &fakeSuix{})
	c.Close()

	_, err := c.MultiGetObjects(context.Background(), []string{"0x1"})
	require.Error(t, err)
	assert.True(t, entity.IsRetryable(err))

	_, err = c.GetOwnedObjects(context.Background(), "0xowner", entity.OwnedObjectsFilter{})
	assert.True(t, entity.IsRetryable(err))
}
