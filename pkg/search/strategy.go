package search

import (
	"context"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

// Strategy decides, once per epoch, which states continue.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Setup prepares bookkeeping for the states already in the active pool.
	// It is called once before the first epoch.
	Setup(ctx context.Context, m *pool.Manager) error

	// Step steps the active pool once and selects the next active set.
	// Only context cancellation is returned as an error.
	Step(ctx context.Context, m *pool.Manager) (Epoch, error)
}

// Epoch summarizes one scheduling epoch.
type Epoch struct {
	// Stepped is how many states the engine advanced.
	Stepped int

	// Fanout is how many satisfiable successors the step produced.
	Fanout int

	// Reached lists the addresses of those successors.
	Reached []uint64

	// Selected is the state chosen by a weighted draw, nil when no draw happened.
	Selected *domain.State

	// Heuristic names the ranking heuristic used for the draw, if any.
	Heuristic string

	// Restarted is set when exploration restarted from the initial state.
	// Forced distinguishes a dry active pool from a random restart.
	Restarted bool
	Forced    bool
}

func newEpoch(report pool.StepReport) Epoch {
	succ := report.Successors()
	reached := make([]uint64, len(succ))
	for i, s := range succ {
		reached[i] = s.Addr
	}
	return Epoch{
		Stepped: len(report.Stepped),
		Fanout:  len(succ),
		Reached: reached,
	}
}

// drawFrom moves all active states to deferred and promotes one deferred
// state chosen by weight. It returns nil when nothing is deferred.
func drawFrom(m *pool.Manager, r Rand, weight func(*domain.State) float64) *domain.State {
	m.Move(domain.PoolActive, domain.PoolDeferred, pool.All)
	candidates := m.Get(domain.PoolDeferred)
	if len(candidates) == 0 {
		return nil
	}
	weights := make([]float64, len(candidates))
	for i, s := range candidates {
		weights[i] = weight(s)
	}
	chosen := candidates[Pick(r, weights)]
	m.Take(chosen.ID, domain.PoolActive)
	return chosen
}

// prune forgets metadata of states no pool holds anymore.
func prune[T any](meta *Meta[T], m *pool.Manager) {
	meta.Retain(func(id domain.StateID) bool {
		_, ok := m.Lookup(id)
		return ok
	})
}
