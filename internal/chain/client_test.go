package chain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgedex/internal/xvm"
)

type handlerFunc func(params map[string]any) (any, *RPCError)

// errHang makes the fake daemon swallow a request.
var errHang = &RPCError{Code: -1, Message: "hang"}

type fakeDaemon struct {
	mu       sync.Mutex
	handlers map[string]handlerFunc
	calls    map[string]int
	notify   bool
}

func newFakeDaemon(t *testing.T) (*fakeDaemon, string) {
	t.Helper()
	fd := &fakeDaemon{handlers: map[string]handlerFunc{}, calls: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(fd.serve))
	t.Cleanup(srv.Close)
	return fd, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (fd *fakeDaemon) handle(method string, h handlerFunc) {
	fd.mu.Lock()
	fd.handlers[method] = h
	fd.mu.Unlock()
}

func (fd *fakeDaemon) count(method string) int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.calls[method]
}

func (fd *fakeDaemon) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req struct {
			ID     uint64         `json:"id"`
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		fd.mu.Lock()
		fd.calls[req.Method]++
		h, ok := fd.handlers[req.Method]
		notify := fd.notify
		fd.mu.Unlock()

		if notify {
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "method": "new_block", "params": map[string]any{}})
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID + 1000, "result": "stale"})
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = &RPCError{Code: -32601, Message: "method not found"}
		} else {
			result, rpcErr := h(req.Params)
			if rpcErr == errHang {
				continue
			}
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func dialTest(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetContractAssetsSkipsNotifications(t *testing.T) {
	fd, url := newFakeDaemon(t)
	fd.mu.Lock()
	fd.notify = true
	fd.mu.Unlock()
	fd.handle("get_contract_assets", func(params map[string]any) (any, *RPCError) {
		if params["contract"] != "router" {
			return nil, &RPCError{Code: -32602, Message: "bad contract"}
		}
		return []string{"lp1", "lp2"}, nil
	})

	client := dialTest(t, url)
	assets, err := client.GetContractAssets(context.Background(), "router")
	require.NoError(t, err)
	assert.Equal(t, []string{"lp1", "lp2"}, assets)
}

func TestCallReturnsRPCError(t *testing.T) {
	_, url := newFakeDaemon(t)
	client := dialTest(t, url)

	err := client.Call(context.Background(), "nope", nil, nil)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestGetContractDataDecodesTypedValue(t *testing.T) {
	fd, url := newFakeDaemon(t)
	keys := make(chan any, 1)
	fd.handle("get_contract_data", func(params map[string]any) (any, *RPCError) {
		keys <- params["key"]
		return map[string]any{
			"topoheight": 42,
			"data": map[string]any{"type": "object", "value": []any{
				map[string]any{"type": "default", "value": map[string]any{"type": "u8", "value": 0}},
				map[string]any{"type": "map", "value": []any{
					[]any{
						map[string]any{"type": "default", "value": map[string]any{"type": "opaque", "value": map[string]any{"type": "Hash", "value": "aa"}}},
						map[string]any{"type": "default", "value": map[string]any{"type": "u64", "value": uint64(18446744073709551615)}},
					},
				}},
			}},
		}, nil
	})

	client := dialTest(t, url)
	data, err := client.GetContractData(context.Background(), "router", xvm.HashParam("lp1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), data.Topoheight)
	assert.True(t, data.Metadata.Empty())

	reserves, err := xvm.ReserveMap(data.Data)
	require.NoError(t, err)
	require.Len(t, reserves, 1)
	assert.Equal(t, uint64(18446744073709551615), reserves[0].Amount.Uint64())

	key, ok := (<-keys).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "default", key["type"])
}

func TestGetAssetIsCached(t *testing.T) {
	fd, url := newFakeDaemon(t)
	fd.handle("get_asset", func(params map[string]any) (any, *RPCError) {
		return map[string]any{"decimals": 6, "name": "Tether", "ticker": "USDT "}, nil
	})

	client := dialTest(t, url)
	for i := 0; i < 3; i++ {
		asset, err := client.GetAsset(context.Background(), "cafe")
		require.NoError(t, err)
		assert.Equal(t, "USDT", asset.Ticker)
		assert.Equal(t, uint8(6), asset.Decimals)
		assert.Equal(t, "cafe", asset.Hash)
	}
	assert.Equal(t, 1, fd.count("get_asset"))
}

func TestGetAssetSupplyKeepsPrecision(t *testing.T) {
	fd, url := newFakeDaemon(t)
	fd.handle("get_asset_supply", func(params map[string]any) (any, *RPCError) {
		return map[string]any{"data": uint64(18446744073709551615), "topoheight": 1}, nil
	})

	client := dialTest(t, url)
	supply, err := client.GetAssetSupply(context.Background(), "lp1")
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", supply.String())
}

func TestCallHonorsContextAndRedials(t *testing.T) {
	fd, url := newFakeDaemon(t)
	fd.handle("slow", func(map[string]any) (any, *RPCError) { return nil, errHang })
	fd.handle("fast", func(map[string]any) (any, *RPCError) { return "ok", nil })

	client := dialTest(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := client.Call(ctx, "slow", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var out string
	require.NoError(t, client.Call(context.Background(), "fast", nil, &out))
	assert.Equal(t, "ok", out)
}

func TestCancelAfterCallLeavesConnectionUsable(t *testing.T) {
	fd, url := newFakeDaemon(t)
	fd.handle("fast", func(map[string]any) (any, *RPCError) { return "ok", nil })

	client := dialTest(t, url)
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, client.Call(ctx, "fast", nil, nil))
		cancel()

		var out string
		require.NoError(t, client.Call(context.Background(), "fast", nil, &out), "iteration %d", i)
		assert.Equal(t, "ok", out)
	}
}

func TestClosedClient(t *testing.T) {
	_, url := newFakeDaemon(t)
	client := dialTest(t, url)
	require.NoError(t, client.Close())

	err := client.Call(context.Background(), "fast", nil, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestParseHash(t *testing.T) {
	upper := strings.Repeat("AB", 32)
	got, err := ParseHash("0x" + upper)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), got)

	got, err = ParseHash(" " + strings.Repeat("0", 64) + " ")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("0", 64), got)

	_, err = ParseHash("abcd")
	assert.Error(t, err)
	_, err = ParseHash(strings.Repeat("zz", 32))
	assert.Error(t, err)
}
