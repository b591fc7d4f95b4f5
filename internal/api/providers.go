package api

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/go-redis/redis_rate/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github/chapool/transfer-relay/internal/chain"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/i18n"
	"github/chapool/transfer-relay/internal/metrics"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirement for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewClock returns a mock clock when running tests and the wall clock otherwise.
//
//nolint:ireturn
func NewClock(t ...*testing.T) time2.Clock {
	if len(t) > 0 && t[0] != nil {
		return time2.NewMockClock(time2.DefaultClock.Now())
	}

	return time2.DefaultClock
}

func NewI18N(cfg config.Server) (*i18n.Service, error) {
	return i18n.New(cfg)
}

func NewChain(cfg config.Server) (*chain.Client, error) {
	return chain.NewClient(context.Background(), cfg.Relay.RPCURLs)
}

// NewRedis returns nil when no redis address is configured.
func NewRedis(cfg config.Server) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// NewBuilder asks the node for its chain id when none is configured.
func NewBuilder(cfg config.Server, chainClient *chain.Client) (*transfer.Builder, error) {
	id := big.NewInt(cfg.Relay.ChainID)
	if cfg.Relay.ChainID <= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout(cfg))
		defer cancel()

		var err error
		if id, err = chainClient.ChainID(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to read chain id from RPC endpoint")
		}
	}

	return transfer.NewBuilder(chainClient, transfer.BuilderConfig{
		ChainID:         id,
		DefaultGasLimit: cfg.Relay.DefaultGasLimit,
		DefaultDecimals: cfg.Relay.DefaultDecimals,
	}), nil
}

func NewProbe(cfg config.Server, chainClient *chain.Client, clock time2.Clock, m *metrics.Service) *relay.Probe {
	return relay.NewProbe(chainClient, clock, m, relay.ProbeConfig{
		Timeout:  cfg.Relay.RPCTimeout,
		Interval: cfg.Relay.ProbeInterval,
	})
}

// NewReplayGuard keeps envelopes in redis when it is configured so several
// relay instances share one view, in memory otherwise.
//
//nolint:ireturn
func NewReplayGuard(cfg config.Server, rdb *redis.Client, clock time2.Clock) relay.ReplayGuard {
	if rdb != nil {
		return relay.NewRedisReplayGuard(rdb, cfg.Relay.ReplayTTL)
	}

	return relay.NewMemoryReplayGuard(clock, cfg.Relay.ReplayTTL)
}

// NewGateway serves the chain the builder prepares transactions for.
func NewGateway(chainClient *chain.Client, probe *relay.Probe, replay relay.ReplayGuard, builder *transfer.Builder) *relay.Gateway {
	return relay.NewGateway(chainClient, probe, replay, relay.GatewayConfig{
		ChainID: builder.ChainID(),
	})
}

//nolint:ireturn
func NewRateLimiter(cfg config.Server, rdb *redis.Client) RateLimiter {
	if rdb == nil || cfg.Relay.RateLimitPerMinute <= 0 {
		return Unlimited{}
	}

	return NewRedisRateLimiter(redis_rate.NewLimiter(rdb), cfg.Relay.RateLimitPerMinute)
}

func rpcTimeout(cfg config.Server) time.Duration {
	if cfg.Relay.RPCTimeout <= 0 {
		return relay.DefaultProbeTimeout
	}

	return cfg.Relay.RPCTimeout
}
