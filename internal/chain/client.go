package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"forgedex/internal/model"
	"forgedex/internal/xvm"
)

// ErrNotConnected is returned by calls on a closed client.
var ErrNotConnected = errors.New("chain client is not connected")

// RPCError is a JSON-RPC error returned by the daemon.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client is a JSON-RPC client for the XELIS daemon WebSocket endpoint. Calls
// are serialized over one connection, which is redialed after any failure.
type Client struct {
	url    string
	dialer websocket.Dialer

	callMu sync.Mutex
	conn   *websocket.Conn
	nextID uint64
	closed bool

	mu     sync.RWMutex
	assets map[string]model.Asset
}

// NewClient dials the daemon at url, e.g. ws://127.0.0.1:8080/json_rpc.
func NewClient(ctx context.Context, url string) (*Client, error) {
	c := &Client{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		assets: make(map[string]model.Asset),
	}
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes the connection. Later calls fail with ErrNotConnected.
func (c *Client) Close() error {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial daemon %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Call invokes method with named params and decodes the result into result
// when it is non-nil.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	raw, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	if c.closed {
		return nil, ErrNotConnected
	}
	if c.conn == nil {
		if err := c.dial(ctx); err != nil {
			return nil, err
		}
	}
	conn := c.conn

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)
	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
		close(interrupted)
	})
	// the callback must not touch the connection once the next call owns it
	defer func() {
		if !stop() {
			<-interrupted
		}
	}()

	c.nextID++
	id := c.nextID
	if err := conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		c.drop()
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	for {
		var resp rpcResponse
		if err := conn.ReadJSON(&resp); err != nil {
			c.drop()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("read %s: %w", method, err)
		}
		// notifications and stale replies
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// ContractData is a decoded contract storage entry.
type ContractData struct {
	Data       xvm.Value
	Topoheight uint64
	Metadata   xvm.Metadata
}

// GetContractData reads the storage entry at key. key is a typed parameter,
// see xvm.Param.
func (c *Client) GetContractData(ctx context.Context, contract string, key any) (ContractData, error) {
	raw, err := c.call(ctx, "get_contract_data", map[string]any{"contract": contract, "key": key})
	if err != nil {
		return ContractData{}, err
	}
	var envelope struct {
		Data       json.RawMessage `json:"data"`
		Topoheight uint64          `json:"topoheight"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ContractData{}, fmt.Errorf("decode get_contract_data result: %w", err)
	}
	if len(envelope.Data) == 0 {
		envelope.Data = json.RawMessage("null")
	}
	value, meta, err := xvm.Parse(envelope.Data)
	if err != nil {
		return ContractData{}, err
	}
	return ContractData{Data: value, Topoheight: envelope.Topoheight, Metadata: meta}, nil
}

// GetContractAssets lists the assets held by a contract.
func (c *Client) GetContractAssets(ctx context.Context, contract string) ([]string, error) {
	var assets []string
	if err := c.Call(ctx, "get_contract_assets", map[string]any{"contract": contract}, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetAsset returns asset metadata, using an in-memory cache.
func (c *Client) GetAsset(ctx context.Context, hash string) (model.Asset, error) {
	c.mu.RLock()
	asset, ok := c.assets[hash]
	c.mu.RUnlock()
	if ok {
		return asset, nil
	}

	var resp struct {
		Decimals uint8  `json:"decimals"`
		Name     string `json:"name"`
		Ticker   string `json:"ticker"`
	}
	if err := c.Call(ctx, "get_asset", map[string]any{"asset": hash}, &resp); err != nil {
		return model.Asset{}, err
	}
	asset = model.Asset{
		Hash:     hash,
		Ticker:   strings.TrimSpace(resp.Ticker),
		Name:     resp.Name,
		Decimals: resp.Decimals,
	}

	c.mu.Lock()
	c.assets[hash] = asset
	c.mu.Unlock()
	return asset, nil
}

// GetAssetSupply returns the circulating supply of an asset in atomic units.
func (c *Client) GetAssetSupply(ctx context.Context, hash string) (decimal.Decimal, error) {
	raw, err := c.call(ctx, "get_asset_supply", map[string]any{"asset": hash})
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Data json.Number `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode get_asset_supply result: %w", err)
	}
	supply, err := decimal.NewFromString(resp.Data.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse supply of %s: %w", hash, err)
	}
	return supply, nil
}
