package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github/chapool/transfer-relay/internal/chain"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/i18n"
	"github/chapool/transfer-relay/internal/metrics"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/util"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	// Relay holds the rate limited relay endpoints.
	Relay *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// Components labeled as `optional:"true"` may stay nil, Ready ignores them.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config  config.Server
	Clock   time2.Clock
	I18n    *i18n.Service
	Metrics *metrics.Service
	Chain   *chain.Client
	Builder *transfer.Builder
	Probe   *relay.Probe
	Replay  relay.ReplayGuard
	Gateway *relay.Gateway
	Limiter RateLimiter
	// Redis is nil unless RELAY_REDIS_ADDR is set.
	Redis *redis.Client `optional:"true"`
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	clock time2.Clock,
	i18n *i18n.Service,
	metrics *metrics.Service,
	chainClient *chain.Client,
	builder *transfer.Builder,
	probe *relay.Probe,
	replay relay.ReplayGuard,
	gateway *relay.Gateway,
	limiter RateLimiter,
	rdb *redis.Client,
) *Server {
	return &Server{
		Config:  cfg,
		Clock:   clock,
		I18n:    i18n,
		Metrics: metrics,
		Chain:   chainClient,
		Builder: builder,
		Probe:   probe,
		Replay:  replay,
		Gateway: gateway,
		Limiter: limiter,
		Redis:   rdb,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Chain != nil {
		log.Debug().Msg("Closing RPC connections")
		s.Chain.Close()
	}

	if s.Redis != nil {
		log.Debug().Msg("Closing redis connection")

		if err := s.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			log.Error().Err(err).Msg("Failed to close redis connection")
			errs = append(errs, err)
		}
	}

	return errs
}
