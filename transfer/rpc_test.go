package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refnetorg/refledger-go/ledger"
)

func testAddr(seed byte) ledger.Address {
	var a ledger.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

// fakeCustody records requests and replies with canned results per method.
type fakeCustody struct {
	t        *testing.T
	requests []rpcRequest
	results  map[string]interface{}
	errors   map[string]*rpcError
	wantUser string
	wantPass string
}

func (f *fakeCustody) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.wantUser != "" {
			user, pass, ok := r.BasicAuth()
			require.True(f.t, ok, "expected basic auth")
			assert.Equal(f.t, f.wantUser, user)
			assert.Equal(f.t, f.wantPass, pass)
		}

		var req rpcRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.requests = append(f.requests, req)

		resp := rpcResponse{ID: req.ID}
		if rpcErr, ok := f.errors[req.Method]; ok {
			resp.Error = rpcErr
		} else if result, ok := f.results[req.Method]; ok {
			raw, err := json.Marshal(result)
			require.NoError(f.t, err)
			resp.Result = raw
		} else {
			resp.Result = json.RawMessage("null")
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(f.t, json.NewEncoder(w).Encode(resp))
	}
}

func newTestClient(t *testing.T, fake *fakeCustody) *RPCClient {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewRPCClient(Config{URL: srv.URL, User: fake.wantUser, Password: fake.wantPass})
}

func TestRPCClient_Pull(t *testing.T) {
	fake := &fakeCustody{t: t}
	c := newTestClient(t, fake)

	from := testAddr(1)
	require.NoError(t, c.Pull(context.Background(), from, 1000))

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "pull", req.Method)
	assert.Equal(t, "1.0", req.JSONRPC)
	require.Len(t, req.Params, 2)
	assert.Equal(t, from.String(), req.Params[0])
	assert.Equal(t, float64(1000), req.Params[1]) // JSON numbers decode as float64
}

func TestRPCClient_PushAsset(t *testing.T) {
	fake := &fakeCustody{t: t}
	c := newTestClient(t, fake)

	to := testAddr(2)
	require.NoError(t, c.PushAsset(context.Background(), "wrapped-x", to, 7))

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "pushasset", req.Method)
	require.Len(t, req.Params, 3)
	assert.Equal(t, "wrapped-x", req.Params[0])
	assert.Equal(t, to.String(), req.Params[1])
}

func TestRPCClient_Decimals(t *testing.T) {
	fake := &fakeCustody{t: t, results: map[string]interface{}{"decimals": 8}}
	c := newTestClient(t, fake)

	d, err := c.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(8), d)
}

func TestRPCClient_BasicAuth(t *testing.T) {
	fake := &fakeCustody{t: t, wantUser: "ledger", wantPass: "secret"}
	c := newTestClient(t, fake)
	require.NoError(t, c.Push(context.Background(), testAddr(1), 5))
}

func TestRPCClient_ServerError(t *testing.T) {
	fake := &fakeCustody{t: t, errors: map[string]*rpcError{
		"pull": {Code: -6, Message: "insufficient funds"},
	}}
	c := newTestClient(t, fake)

	err := c.Pull(context.Background(), testAddr(1), 1000)
	require.Error(t, err)
	assert.ErrorContains(t, err, "insufficient funds")
}

func TestRPCClient_ConnectionFailed(t *testing.T) {
	// A closed server port.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewRPCClient(Config{URL: url})
	err := c.Pull(context.Background(), testAddr(1), 1)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClient_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	c := NewRPCClient(Config{URL: srv.URL})
	err := c.Pull(context.Background(), testAddr(1), 1)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRPCClient_IDsIncrease(t *testing.T) {
	fake := &fakeCustody{t: t}
	c := newTestClient(t, fake)

	require.NoError(t, c.Push(context.Background(), testAddr(1), 1))
	require.NoError(t, c.Push(context.Background(), testAddr(1), 2))
	require.Len(t, fake.requests, 2)
	assert.Greater(t, fake.requests[1].ID, fake.requests[0].ID)
}
