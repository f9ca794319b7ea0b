package search

import (
	"context"
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

// Tree is random path selection over the execution tree.
//
// Every state carries a weight: the root weighs 1 and a fork into k children
// gives each child parent/k, so each subtree keeps the probability mass of the
// branch that spawned it regardless of how many states it holds. A single
// successor keeps its parent's weight.
type Tree struct {
	rand    Rand
	logger  *slog.Logger
	weights *Meta[float64]
}

// NewTree creates the tree-weighted random strategy.
func NewTree(opts ...Option) *Tree {
	s := newSettings(opts)
	return &Tree{
		rand:    s.rand,
		logger:  s.logger,
		weights: NewMeta[float64](),
	}
}

// Name implements Strategy.
func (t *Tree) Name() string { return "tree" }

// Setup gives every state already scheduled the root weight.
func (t *Tree) Setup(ctx context.Context, m *pool.Manager) error {
	for _, s := range m.Get(domain.PoolActive) {
		t.weights.Ensure(s.ID, 1)
	}
	for _, s := range m.Get(domain.PoolDeferred) {
		t.weights.Ensure(s.ID, 1)
	}
	return nil
}

// Weight returns the current weight of a state. Unknown states weigh 1.
func (t *Tree) Weight(id domain.StateID) float64 {
	return t.weights.Value(id, 1)
}

// Step implements Strategy.
func (t *Tree) Step(ctx context.Context, m *pool.Manager) (Epoch, error) {
	report, err := m.Step(ctx, domain.PoolActive)
	epoch := newEpoch(report)

	for _, parent := range report.Stepped {
		children := report.Children[parent.ID]
		if len(children) > 0 {
			k := float64(len(children))
			t.weights.Inherit(parent.ID, 1, func(w float64) float64 { return w / k }, children...)
		}
		t.weights.Forget(parent.ID)
	}
	prune(t.weights, m)
	if err != nil {
		return epoch, err
	}

	if m.Len(domain.PoolActive) == 1 {
		return epoch, nil
	}

	epoch.Selected = drawFrom(m, t.rand, func(s *domain.State) float64 {
		return t.Weight(s.ID)
	})
	if epoch.Selected != nil {
		t.logger.Debug("tree selection",
			"addr", epoch.Selected.Addr,
			"weight", t.Weight(epoch.Selected.ID),
			"deferred", m.Len(domain.PoolDeferred))
	}
	return epoch, nil
}
