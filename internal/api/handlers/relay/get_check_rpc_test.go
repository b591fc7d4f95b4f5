package relay_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/test"
	"github/chapool/transfer-relay/internal/types"
)

func TestGetCheckRPC(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, http.MethodGet, "/check-rpc", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var out types.CheckRPCResponse
		test.ParseResponseBody(t, res, &out)
		assert.True(t, out.Connected)
		assert.True(t, out.Synced)
		assert.Equal(t, uint64(16), out.BlockNumber)
		assert.Empty(t, out.Error)
		assert.Contains(t, out.Message, "16")
	})
}

func TestGetCheckRPCDisconnected(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.RPCNode) {
		host := node.Server.Listener.Addr().String()
		node.Server.Close()

		res := test.PerformRequest(t, s, http.MethodGet, "/check-rpc", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var out types.CheckRPCResponse
		test.ParseResponseBody(t, res, &out)
		assert.False(t, out.Connected)
		assert.False(t, out.Synced)
		assert.NotEmpty(t, out.Error)
		assert.NotContains(t, out.Error, host)
		assert.Equal(t, "Cannot reach the blockchain node.", out.Message)
	})
}

func TestGetCheckRPCSyncing(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.RPCNode) {
		node.Handle("eth_syncing", func([]json.RawMessage) (any, *test.RPCError) {
			return map[string]any{
				"startingBlock": "0x0",
				"currentBlock":  "0x10",
				"highestBlock":  "0x20",
			}, nil
		})

		res := test.PerformRequest(t, s, http.MethodGet, "/check-rpc", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var out types.CheckRPCResponse
		test.ParseResponseBody(t, res, &out)
		assert.True(t, out.Connected)
		assert.False(t, out.Synced)
	})
}
