package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/test"
)

func TestGetMetrics(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		// one request so the probe and http collectors have samples
		res := test.PerformRequest(t, s, "GET", "/check-rpc", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		body := res.Body.String()
		assert.Contains(t, body, "relay_rpc_up 1")
		assert.Contains(t, body, "relay_rpc_block_number 16")
		assert.Contains(t, body, "relay_http_requests_total{")
		assert.Contains(t, body, `url="/check-rpc"`)
	})
}
