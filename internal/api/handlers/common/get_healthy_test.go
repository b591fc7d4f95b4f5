package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/test"
)

func TestGetHealthy(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), "Ready: OK.")
		assert.Contains(t, res.Body.String(), "RPC: block 16, synced.")
		assert.NotContains(t, res.Body.String(), "Redis")
	})
}

func TestGetHealthyRPCDown(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.RPCNode) {
		node.Server.Close()

		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, 521, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), "RPC: unreachable")
		assert.NotContains(t, res.Body.String(), node.URL())
	})
}
