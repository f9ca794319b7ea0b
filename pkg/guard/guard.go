package guard

import (
	"context"
	"log/slog"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/ports"
)

// DefaultThreshold is the live-state count above which the guard drains.
const DefaultThreshold = 100

// Verdict is the outcome of one inspection.
type Verdict struct {
	// Exploded and TimedOut are sticky: once set they stay set for the session.
	Exploded bool
	TimedOut bool

	// Total is the live count over the monitored pools before any drain.
	Total int

	// Dropped counts the monitored states drained by this inspection.
	Dropped int

	// Unconstrained counts the unconstrained states discarded by this inspection.
	Unconstrained int
}

// Tripped reports whether the session must stop.
func (v Verdict) Tripped() bool { return v.Exploded || v.TimedOut }

// Reason names the condition that tripped the guard, timeout first.
func (v Verdict) Reason() domain.GuardReason {
	switch {
	case v.TimedOut:
		return domain.GuardTimeout
	case v.Exploded:
		return domain.GuardExplosion
	}
	return ""
}

// Guard bounds state-space blow-up and enforces the session timeout.
type Guard struct {
	threshold int
	pools     []domain.PoolName
	signal    ports.Signal
	logger    *slog.Logger

	exploded bool
	timedOut bool
}

// Option configures the Guard.
type Option func(*Guard)

// WithThreshold sets the live-state threshold. Non-positive values are ignored.
func WithThreshold(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.threshold = n
		}
	}
}

// WithPools sets the monitored pools.
func WithPools(names ...domain.PoolName) Option {
	return func(g *Guard) {
		if len(names) > 0 {
			g.pools = names
		}
	}
}

// WithSignal installs the timeout signal.
func WithSignal(s ports.Signal) Option {
	return func(g *Guard) {
		g.signal = s
	}
}

// WithLogger configures a logger for the Guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New creates a guard monitoring the default pools with the default threshold.
func New(opts ...Option) *Guard {
	g := &Guard{
		threshold: DefaultThreshold,
		pools:     domain.DefaultMonitoredPools,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Threshold returns the configured threshold.
func (g *Guard) Threshold() int { return g.threshold }

// Pools returns the monitored pools.
func (g *Guard) Pools() []domain.PoolName { return g.pools }

// Inspect runs after every epoch. It discards unconstrained states, drains
// the monitored pools on timeout, then drains them again if the live count
// exceeds the threshold.
func (g *Guard) Inspect(ctx context.Context, m *pool.Manager) Verdict {
	var v Verdict
	v.Unconstrained = m.Move(domain.PoolUnconstrained, domain.PoolDrop, pool.All)
	if v.Unconstrained > 0 {
		g.logger.Debug("discarding unconstrained states", "count", v.Unconstrained)
	}

	counts := m.Counts()
	v.Total = counts.Total(g.pools...)

	if g.signal != nil && g.signal.IsSet() {
		if !g.timedOut {
			g.logger.Error("timed out", "states", v.Total, "pools", counts)
		}
		g.timedOut = true
		v.Dropped += m.Drain(g.pools...)
	}

	if live := m.Counts().Total(g.pools...); live > g.threshold {
		g.logger.Error("state explosion detected", "states", live, "threshold", g.threshold, "pools", counts)
		g.exploded = true
		v.Dropped += m.Drain(g.pools...)
	}

	v.Exploded = g.exploded
	v.TimedOut = g.timedOut
	return v
}

// Reset clears the sticky flags for a new session.
func (g *Guard) Reset() {
	g.exploded = false
	g.timedOut = false
}
