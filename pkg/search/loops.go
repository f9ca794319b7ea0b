package search

import (
	"context"
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

// Loops gives priority to the one state that keeps iterating the loops it
// occupies, parking the others until it stops making progress.
type Loops struct {
	logger   *slog.Logger
	limiter  LoopLimiter
	topCount float64
}

// NewLoops creates the loop-exhaustion strategy. Without WithLoopLimiter it
// cuts states above DefaultLoopBound.
func NewLoops(opts ...Option) *Loops {
	s := newSettings(opts)
	limiter := s.limiter
	if limiter == nil {
		limiter = NewBoundedLoops(DefaultLoopBound)
	}
	return &Loops{
		logger:  s.logger,
		limiter: limiter,
	}
}

// Name implements Strategy.
func (l *Loops) Name() string { return "loops" }

// Setup implements Strategy.
func (l *Loops) Setup(ctx context.Context, m *pool.Manager) error {
	l.topCount = 0
	return nil
}

// TopCount returns the rank of the state currently being exhausted.
func (l *Loops) TopCount() float64 { return l.topCount }

// LoopRank sums the current trip count of every loop the state occupies.
// States without a loop record rank 0.
func LoopRank(s *domain.State) float64 {
	return float64(s.Loops.Depth())
}

func lowestLoopRank(s *domain.State) float64 { return -LoopRank(s) }

// Step implements Strategy.
func (l *Loops) Step(ctx context.Context, m *pool.Manager) (Epoch, error) {
	report, err := m.Step(ctx, domain.PoolActive)
	epoch := newEpoch(report)
	if err != nil {
		return epoch, err
	}
	if cut := l.limiter.Limit(m); cut > 0 {
		l.logger.Debug("loop bound reached", "cut", cut)
	}

	switch active := m.Get(domain.PoolActive); {
	case len(active) == 1:
		rank := LoopRank(active[0])
		if rank > l.topCount || m.Len(domain.PoolDeferred) == 0 {
			l.topCount = rank
			return epoch, nil
		}
		m.Move(domain.PoolActive, domain.PoolDeferred, pool.All)
		l.promote(m, &epoch)

	case len(active) == 0:
		l.promote(m, &epoch)

	default:
		first := active[0].Loops
		for _, s := range active[1:] {
			if !s.Loops.Equal(first) {
				m.Split(domain.PoolActive, domain.PoolDeferred, lowestLoopRank, 1)
				l.topCount = LoopRank(m.First(domain.PoolActive))
				l.logger.Debug("loop siblings diverged", "active", m.Len(domain.PoolActive), "top", l.topCount)
				break
			}
		}
	}
	return epoch, nil
}

// promote moves the highest-ranked deferred state to the active pool.
func (l *Loops) promote(m *pool.Manager, epoch *Epoch) {
	if m.Split(domain.PoolDeferred, domain.PoolActive, LoopRank, 1) == 0 {
		return
	}
	epoch.Selected = m.First(domain.PoolActive)
	l.topCount = LoopRank(epoch.Selected)
	l.logger.Debug("loop selection", "addr", epoch.Selected.Addr, "top", l.topCount)
}
