// Package transfer provides the production implementation of the
// ledger's value-transfer interface: a JSON-RPC 1.0 client speaking to
// the custody service over HTTP.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/refnetorg/refledger-go/ledger"
)

// Config holds the connection settings for the custody service.
type Config struct {
	URL      string
	User     string
	Password string
}

// RPCClient is a JSON-RPC 1.0 client for the custody service. It
// implements ledger.ValueTransfer; the service reports failure through
// JSON-RPC errors, which surface verbatim as operation failure.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ ledger.ValueTransfer = (*RPCClient)(nil)

// rpcRequest represents a JSON-RPC 1.0 request payload.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 1.0 response payload.
type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError represents an error returned by the JSON-RPC server.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a client with connection pooling. Basic auth is
// used when cfg.User is non-empty.
func NewRPCClient(cfg Config) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method on the custody service. If result is
// nil the response result is discarded. Transport failures map to
// ErrConnectionFailed, undecodable responses to ErrInvalidResponse;
// RPC-level errors are returned with the server's message.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("transfer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transfer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrInvalidResponse, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrInvalidResponse, resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("transfer: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: decode result: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}

// Pull moves amount of the native asset from the account into custody.
func (c *RPCClient) Pull(ctx context.Context, from ledger.Address, amount uint64) error {
	return c.Call(ctx, "pull", []interface{}{from.String(), amount}, nil)
}

// Push moves amount of the native asset out of custody to the account.
func (c *RPCClient) Push(ctx context.Context, to ledger.Address, amount uint64) error {
	return c.Call(ctx, "push", []interface{}{to.String(), amount}, nil)
}

// PushAsset moves amount of an arbitrary asset out of custody.
func (c *RPCClient) PushAsset(ctx context.Context, asset ledger.Asset, to ledger.Address, amount uint64) error {
	return c.Call(ctx, "pushasset", []interface{}{string(asset), to.String(), amount}, nil)
}

// Decimals reports the native asset's precision.
func (c *RPCClient) Decimals(ctx context.Context) (uint8, error) {
	var d uint8
	if err := c.Call(ctx, "decimals", nil, &d); err != nil {
		return 0, err
	}
	return d, nil
}
