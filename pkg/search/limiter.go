package search

import (
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

// DefaultLoopBound is the trip count above which a state is cut.
const DefaultLoopBound = 10000

// LoopLimiter removes states that iterate a loop too often.
type LoopLimiter interface {
	// Limit moves offending active states out of the way and returns how many moved.
	Limit(m *pool.Manager) int
}

// BoundedLoops cuts every active state whose current trip count in any
// occupied loop exceeds Bound.
type BoundedLoops struct {
	Bound int
}

// NewBoundedLoops returns a limiter with the given bound, or the default
// bound when bound is not positive.
func NewBoundedLoops(bound int) *BoundedLoops {
	if bound <= 0 {
		bound = DefaultLoopBound
	}
	return &BoundedLoops{Bound: bound}
}

// Limit implements LoopLimiter.
func (b *BoundedLoops) Limit(m *pool.Manager) int {
	return m.Move(domain.PoolActive, domain.PoolCut, func(s *domain.State) bool {
		return s.Loops.Max() > b.Bound
	})
}
