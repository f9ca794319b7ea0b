package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports scheduler activity as Prometheus collectors.
type Metrics struct {
	epochs        *prometheus.CounterVec
	fanout        *prometheus.HistogramVec
	epochDuration *prometheus.HistogramVec
	pools         *prometheus.GaugeVec
	guardTrips    *prometheus.CounterVec
	restarts      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		epochs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furrow_epochs_total",
				Help: "Total number of scheduling epochs",
			},
			[]string{"strategy"},
		),
		fanout: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "furrow_epoch_fanout",
				Help:    "Satisfiable successors produced per epoch",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
			[]string{"strategy"},
		),
		epochDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "furrow_epoch_duration_seconds",
				Help:    "Duration of scheduling epochs",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"strategy"},
		),
		pools: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "furrow_pool_states",
				Help: "Number of states per pool after the last epoch",
			},
			[]string{"pool"},
		),
		guardTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furrow_guard_trips_total",
				Help: "Total number of guard trips",
			},
			[]string{"reason"},
		),
		restarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furrow_restarts_total",
				Help: "Total number of restarts from the initial state",
			},
			[]string{"strategy", "forced"},
		),
	}

	for _, c := range []prometheus.Collector{m.epochs, m.fanout, m.epochDuration, m.pools, m.guardTrips, m.restarts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEpoch: func(ctx context.Context, e *domain.EpochEvent) {
			m.epochs.WithLabelValues(e.Strategy).Inc()
			m.fanout.WithLabelValues(e.Strategy).Observe(float64(e.Fanout))
			m.epochDuration.WithLabelValues(e.Strategy).Observe(e.Duration.Seconds())
			// Pools that emptied disappear from the snapshot; the delta still names them.
			for name := range e.Delta {
				m.pools.WithLabelValues(string(name)).Set(float64(e.Pools[name]))
			}
			for name, n := range e.Pools {
				m.pools.WithLabelValues(string(name)).Set(float64(n))
			}
		},
		OnGuardTrip: func(ctx context.Context, e *domain.GuardEvent) {
			m.guardTrips.WithLabelValues(string(e.Reason)).Inc()
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			m.restarts.WithLabelValues(e.Strategy, strconv.FormatBool(e.Forced)).Inc()
		},
	}
}
