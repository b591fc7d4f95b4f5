package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/transfer-relay/internal/config"
)

const namespace = "relay"

// Service owns the relay's prometheus registry and collectors. A dedicated
// registry lets several servers coexist in one process (tests).
type Service struct {
	Registry *prometheus.Registry

	RPCUp          prometheus.Gauge
	RPCBlockNumber prometheus.Gauge
	Broadcasts     *prometheus.CounterVec
	Prepares       *prometheus.CounterVec
}

func New(cfg config.Server) (*Service, error) {
	registry := prometheus.NewRegistry()

	s := &Service{
		Registry: registry,
		RPCUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rpc_up",
			Help:      "1 when the last RPC health check succeeded.",
		}),
		RPCBlockNumber: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rpc_block_number",
			Help:      "Latest block number seen by the RPC health check.",
		}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Processed broadcast envelopes by result.",
		}, []string{"result"}),
		Prepares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prepares_total",
			Help:      "Prepared transfer transactions by result.",
		}, []string{"result"}),
	}

	toRegister := []prometheus.Collector{s.RPCUp, s.RPCBlockNumber, s.Broadcasts, s.Prepares}
	if cfg.Metrics.IncludeRuntime {
		toRegister = append(toRegister,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range toRegister {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// ObserveRPC records the outcome of an RPC health check.
func (s *Service) ObserveRPC(connected bool, blockNumber uint64) {
	if s == nil {
		return
	}

	if connected {
		s.RPCUp.Set(1)
		s.RPCBlockNumber.Set(float64(blockNumber))
		return
	}

	s.RPCUp.Set(0)
}

// ObserveBroadcast counts a broadcast outcome. result is "success" or an error kind.
func (s *Service) ObserveBroadcast(result string) {
	if s == nil {
		return
	}

	s.Broadcasts.WithLabelValues(result).Inc()
}

// ObservePrepare counts a prepare outcome. result is "success" or an error kind.
func (s *Service) ObservePrepare(result string) {
	if s == nil {
		return
	}

	s.Prepares.WithLabelValues(result).Inc()
}
