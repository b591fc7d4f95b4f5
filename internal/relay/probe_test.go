package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/metrics"
	"github/chapool/transfer-relay/internal/relay"
)

type fakeProbeClient struct {
	block    uint64
	err      error
	progress *ethereum.SyncProgress
	calls    int
}

func (f *fakeProbeClient) BlockNumber(context.Context) (uint64, error) {
	f.calls++
	return f.block, f.err
}

func (f *fakeProbeClient) SyncProgress(context.Context) (*ethereum.SyncProgress, error) {
	return f.progress, nil
}

func newProbe(t *testing.T, client relay.ProbeClient, clock time2.Clock) (*relay.Probe, *metrics.Service) {
	t.Helper()

	m, err := metrics.New(config.Server{})
	require.NoError(t, err)

	return relay.NewProbe(client, clock, m, relay.ProbeConfig{Interval: time.Minute}), m
}

func TestProbeCheck(t *testing.T) {
	client := &fakeProbeClient{block: 42}
	probe, m := newProbe(t, client, time2.NewMockClock(time.Unix(1_700_000_000, 0)))

	assert.True(t, probe.IsReachable(context.Background()))

	status := probe.Check(context.Background())
	assert.True(t, status.Connected)
	assert.True(t, status.Synced)
	assert.Equal(t, uint64(42), status.BlockNumber)
	assert.Empty(t, status.Error)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCUp), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.RPCBlockNumber), 0)

	last, ok := probe.Last()
	require.True(t, ok)
	assert.Equal(t, status, last)
}

func TestProbeCheckSyncing(t *testing.T) {
	client := &fakeProbeClient{
		block:    42,
		progress: &ethereum.SyncProgress{CurrentBlock: 42, HighestBlock: 100},
	}
	probe, _ := newProbe(t, client, time2.DefaultClock)

	status := probe.Check(context.Background())
	assert.True(t, status.Connected)
	assert.False(t, status.Synced)
}

func TestProbeCheckUnreachable(t *testing.T) {
	client := &fakeProbeClient{err: assert.AnError}
	probe, m := newProbe(t, client, time2.DefaultClock)

	assert.False(t, probe.IsReachable(context.Background()))

	status := probe.Check(context.Background())
	assert.False(t, status.Connected)
	assert.Equal(t, assert.AnError.Error(), status.Error)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RPCUp), 0)
}

func TestProbeReadyUsesFreshCache(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1_700_000_000, 0))
	client := &fakeProbeClient{block: 1}
	probe, _ := newProbe(t, client, clock)

	require.True(t, probe.Ready(context.Background()))
	require.Equal(t, 1, client.calls)

	clock.Advance(time.Minute)
	require.True(t, probe.Ready(context.Background()))
	assert.Equal(t, 1, client.calls, "cached")

	clock.Advance(2 * time.Minute)
	client.err = assert.AnError
	assert.False(t, probe.Ready(context.Background()))
	assert.Equal(t, 2, client.calls, "stale cache is refreshed")

	// a failed check is never trusted
	client.err = nil
	assert.True(t, probe.Ready(context.Background()))
	assert.Equal(t, 3, client.calls)
}

func TestProbeRunStopsWithContext(t *testing.T) {
	client := &fakeProbeClient{block: 7}
	probe, _ := newProbe(t, client, time2.DefaultClock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		probe.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := probe.Last()
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("probe did not stop")
	}
}
