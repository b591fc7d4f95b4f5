package relay

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultReplayTTL = 24 * time.Hour

	replayPending   = "pending"
	replayKeyPrefix = "relay:envelope:"
)

type replayEntry struct {
	expires time.Time
	txHash  common.Hash
}

// MemoryReplayGuard keeps reservations in process memory. Suitable for a
// single relay instance.
type MemoryReplayGuard struct {
	mu      sync.Mutex
	clock   time2.Clock
	ttl     time.Duration
	entries map[common.Hash]replayEntry
}

func NewMemoryReplayGuard(clock time2.Clock, ttl time.Duration) *MemoryReplayGuard {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}

	return &MemoryReplayGuard{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[common.Hash]replayEntry),
	}
}

func (g *MemoryReplayGuard) Reserve(_ context.Context, key common.Hash) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	g.evict(now)

	if _, ok := g.entries[key]; ok {
		return false, nil
	}

	g.entries[key] = replayEntry{expires: now.Add(g.ttl)}

	return true, nil
}

// Release drops a reservation that never reached the chain.
func (g *MemoryReplayGuard) Release(_ context.Context, key common.Hash) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.entries[key]; ok && entry.txHash == (common.Hash{}) {
		delete(g.entries, key)
	}

	return nil
}

func (g *MemoryReplayGuard) Mark(_ context.Context, key common.Hash, txHash common.Hash) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entries[key] = replayEntry{
		expires: g.clock.Now().Add(g.ttl),
		txHash:  txHash,
	}

	return nil
}

func (g *MemoryReplayGuard) evict(now time.Time) {
	for key, entry := range g.entries {
		if !entry.expires.After(now) {
			delete(g.entries, key)
		}
	}
}

// RedisStore is the subset of redis.Cmdable used by RedisReplayGuard.
type RedisStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisReplayGuard shares reservations between relay instances.
type RedisReplayGuard struct {
	store RedisStore
	ttl   time.Duration
}

func NewRedisReplayGuard(store RedisStore, ttl time.Duration) *RedisReplayGuard {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}

	return &RedisReplayGuard{
		store: store,
		ttl:   ttl,
	}
}

func (g *RedisReplayGuard) Reserve(ctx context.Context, key common.Hash) (bool, error) {
	ok, err := g.store.SetNX(ctx, replayKey(key), replayPending, g.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to reserve envelope")
	}

	return ok, nil
}

// Release only deletes pending reservations.
func (g *RedisReplayGuard) Release(ctx context.Context, key common.Hash) error {
	value, err := g.store.Get(ctx, replayKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "failed to read envelope reservation")
	}

	if value != replayPending {
		return nil
	}

	if err := g.store.Del(ctx, replayKey(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to release envelope")
	}

	return nil
}

func (g *RedisReplayGuard) Mark(ctx context.Context, key common.Hash, txHash common.Hash) error {
	if err := g.store.Set(ctx, replayKey(key), txHash.Hex(), g.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to mark envelope")
	}

	return nil
}

func replayKey(key common.Hash) string {
	return replayKeyPrefix + key.Hex()
}
