package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/api/router"
	"github/chapool/transfer-relay/internal/config"
)

// NewTestServerConfig returns the env based config pointed at node, with
// redis disabled.
func NewTestServerConfig(node *RPCNode) config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Relay.RPCURLs = []string{node.URL()}
	//nolint:gosec // test chain ids are small
	cfg.Relay.ChainID = int64(node.ChainID)
	cfg.Redis = config.Redis{}
	cfg.Logger.PrettyPrintConsole = false

	return cfg
}

// WithTestServer executes closure with a fully initialized server backed by a
// fresh RPC node.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerAndNode(t, func(s *api.Server, _ *RPCNode) {
		t.Helper()
		closure(s)
	})
}

// WithTestServerAndNode is WithTestServer that also hands out the node so the
// test can change its answers.
func WithTestServerAndNode(t *testing.T, closure func(s *api.Server, node *RPCNode)) {
	t.Helper()

	node := NewRPCNode(t)

	WithTestServerConfigurable(t, NewTestServerConfig(node), func(s *api.Server) {
		t.Helper()
		closure(s, node)
	})
}

// WithTestServerConfigurable executes closure with a server built from cfg.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServer(cfg, t)
	require.NoError(t, err, "failed to init server")

	router.Init(s)

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	assert.Empty(t, s.Shutdown(ctx), "failed to shutdown server")
}
