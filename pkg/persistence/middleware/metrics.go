package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation results recorded in the result label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// StoreMetrics counts and times report store operations.
type StoreMetrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewStoreMetrics registers the store collectors on reg.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "furrow_store_operations_total",
			Help: "Report store operations by operation and result.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "furrow_store_operation_duration_seconds",
			Help:    "Report store operation latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.ops, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register store metrics: %w", err)
		}
	}
	return m, nil
}

// Middleware returns the instrumenting decorator.
func (m *StoreMetrics) Middleware() Middleware {
	return func(next ports.ReportStore) ports.ReportStore {
		return &metricsMiddleware{next: next, metrics: m}
	}
}

func (m *StoreMetrics) observe(op string, start time.Time, err error) {
	result := ResultOK
	switch {
	case errors.Is(err, domain.ErrReportNotFound):
		result = ResultNotFound
	case err != nil:
		result = ResultError
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type metricsMiddleware struct {
	next    ports.ReportStore
	metrics *StoreMetrics
}

func (m *metricsMiddleware) Save(ctx context.Context, report *domain.Report) error {
	start := time.Now()
	err := m.next.Save(ctx, report)
	m.metrics.observe("save", start, err)
	return err
}

func (m *metricsMiddleware) Load(ctx context.Context, sessionID string) (*domain.Report, error) {
	start := time.Now()
	report, err := m.next.Load(ctx, sessionID)
	m.metrics.observe("load", start, err)
	return report, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.metrics.observe("delete", start, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.metrics.observe("list", start, err)
	return ids, err
}
