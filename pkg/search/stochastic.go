package search

import (
	"context"
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

// Stochastic keeps a single active state. Each block address gets a random
// affinity, and at every split the survivor is drawn by affinity while the
// other states are discarded. When the path ends, or at random with a small
// probability, exploration restarts from the initial state with fresh
// affinities.
type Stochastic struct {
	rand        Rand
	logger      *slog.Logger
	restartProb float64

	initial  *domain.State
	affinity map[uint64]float64
	restarts int
}

// NewStochastic creates the stochastic affinity strategy.
func NewStochastic(opts ...Option) *Stochastic {
	s := newSettings(opts)
	return &Stochastic{
		rand:        s.rand,
		logger:      s.logger,
		restartProb: s.restartProb,
		affinity:    make(map[uint64]float64),
	}
}

// Name implements Strategy.
func (s *Stochastic) Name() string { return "stochastic" }

// Setup remembers the first active state as the restart point.
func (s *Stochastic) Setup(ctx context.Context, m *pool.Manager) error {
	first := m.First(domain.PoolActive)
	if first == nil {
		return domain.ErrNoActiveState
	}
	s.initial = first.Copy()
	return nil
}

// Restarts returns how many times exploration restarted.
func (s *Stochastic) Restarts() int { return s.restarts }

// Affinity returns the affinity of addr, drawing it on first use.
func (s *Stochastic) Affinity(addr uint64) float64 {
	if w, ok := s.affinity[addr]; ok {
		return w
	}
	w := s.rand.Float64()
	s.affinity[addr] = w
	return w
}

// SetAffinity pins the affinity of addr until the next restart.
func (s *Stochastic) SetAffinity(addr uint64, w float64) {
	s.affinity[addr] = w
}

// Step implements Strategy.
func (s *Stochastic) Step(ctx context.Context, m *pool.Manager) (Epoch, error) {
	report, err := m.Step(ctx, domain.PoolActive)
	epoch := newEpoch(report)
	if err != nil {
		return epoch, err
	}

	dry := m.Len(domain.PoolActive) == 0
	if dry || s.rand.Float64() < s.restartProb {
		s.restart(m)
		epoch.Restarted = true
		epoch.Forced = dry
		return epoch, nil
	}

	active := m.Get(domain.PoolActive)
	if len(active) < 2 {
		return epoch, nil
	}
	weights := make([]float64, len(active))
	for i, st := range active {
		weights[i] = s.Affinity(st.Addr)
	}
	survivor := active[Pick(s.rand, weights)]
	m.Move(domain.PoolActive, domain.PoolDrop, func(st *domain.State) bool {
		return st.ID != survivor.ID
	})
	epoch.Selected = survivor
	return epoch, nil
}

func (s *Stochastic) restart(m *pool.Manager) {
	m.Drain(domain.PoolActive)
	if s.initial != nil {
		m.Add(domain.PoolActive, s.initial.Copy())
	}
	clear(s.affinity)
	s.restarts++
	s.logger.Debug("stochastic restart", "restarts", s.restarts)
}
