//go:build wireinject

package api

import (
	"testing"

	"github.com/google/wire"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/metrics"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewClock,
	NewI18N,
	metrics.New,
	NewChain,
	NewRedis,
	NewBuilder,
	NewProbe,
	NewReplayGuard,
	NewGateway,
	NewRateLimiter,
)

// InitNewServer returns a new Server instance. Passing t switches the clock to
// a mock clock.
func InitNewServer(
	_ config.Server,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
