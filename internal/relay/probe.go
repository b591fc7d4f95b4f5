package relay

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog/log"
	"github/chapool/transfer-relay/internal/metrics"
	"github/chapool/transfer-relay/internal/util"
)

const (
	DefaultProbeTimeout  = 5 * time.Second
	DefaultProbeInterval = 30 * time.Second
)

// ProbeClient is the part of the chain client the probe needs.
type ProbeClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error)
}

// redactor is implemented by clients whose errors may contain endpoint URLs.
type redactor interface {
	Redact(err error) string
}

// Status is the result of one health check.
type Status struct {
	Connected   bool
	Synced      bool
	BlockNumber uint64
	Error       string
	CheckedAt   time.Time
}

type ProbeConfig struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Probe checks RPC reachability and caches the last result.
type Probe struct {
	client  ProbeClient
	clock   time2.Clock
	metrics *metrics.Service
	config  ProbeConfig

	mu   sync.RWMutex
	last *Status
}

func NewProbe(client ProbeClient, clock time2.Clock, m *metrics.Service, config ProbeConfig) *Probe {
	if config.Timeout <= 0 {
		config.Timeout = DefaultProbeTimeout
	}

	if config.Interval <= 0 {
		config.Interval = DefaultProbeInterval
	}

	return &Probe{
		client:  client,
		clock:   clock,
		metrics: m,
		config:  config,
	}
}

// IsReachable performs a single eth_blockNumber round-trip.
func (p *Probe) IsReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	_, err := p.client.BlockNumber(ctx)
	return err == nil
}

// Check queries block number and sync state, stores the result and returns it.
func (p *Probe) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	status := Status{CheckedAt: p.clock.Now()}

	n, err := p.client.BlockNumber(ctx)
	if err != nil {
		status.Error = p.errorText(err)
		p.store(status)
		return status
	}

	status.Connected = true
	status.BlockNumber = n

	progress, err := p.client.SyncProgress(ctx)
	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to get RPC sync progress")
	} else {
		status.Synced = progress == nil || progress.Done()
	}

	p.store(status)
	return status
}

// Last returns the cached status, false if no check ran yet.
func (p *Probe) Last() (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.last == nil {
		return Status{}, false
	}

	return *p.last, true
}

// Ready reports whether broadcasts may proceed. A fresh successful cached
// check is trusted, anything else triggers a live check.
func (p *Probe) Ready(ctx context.Context) bool {
	if last, ok := p.Last(); ok && last.Connected &&
		p.clock.Now().Sub(last.CheckedAt) < 2*p.config.Interval {
		return true
	}

	return p.Check(ctx).Connected
}

// Run checks the endpoint every interval until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		status := p.Check(ctx)
		if !status.Connected {
			log.Warn().Str("error", status.Error).Msg("RPC endpoint is not reachable")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Probe) errorText(err error) string {
	if r, ok := p.client.(redactor); ok {
		return r.Redact(err)
	}

	return err.Error()
}

func (p *Probe) store(status Status) {
	p.mu.Lock()
	p.last = &status
	p.mu.Unlock()

	p.metrics.ObserveRPC(status.Connected, status.BlockNumber)
}
