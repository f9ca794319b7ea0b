package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/reach"
)

// Heuristic names a coverage ranking.
type Heuristic string

const (
	// MD2U favours states close to code no state has reached yet.
	MD2U Heuristic = "md2u"
	// CovNew favours states that reached new code recently.
	CovNew Heuristic = "covnew"
)

// CovNewGrace is how many instructions a state may run without reaching new
// code before its covnew score starts to decay.
const CovNewGrace = 1000

// coverageScore is the per-state bookkeeping of the coverage strategy.
type coverageScore struct {
	InsnsSinceNew int
	CovNew        float64
	MD2U          float64
}

func (c coverageScore) of(h Heuristic) float64 {
	if h == CovNew {
		return c.CovNew
	}
	return c.MD2U
}

// Coverage interleaves two coverage-oriented rankings, switching between
// them on every epoch that ends in a selection.
type Coverage struct {
	rand        Rand
	logger      *slog.Logger
	coverage    *reach.Coverage
	estimator   *reach.Estimator
	maxDistance int

	heuristics []Heuristic
	turn       int
	current    Heuristic
	scores     *Meta[coverageScore]
}

// NewCoverage creates the interleaved coverage/recency strategy.
// It requires a graph (WithGraph).
func NewCoverage(opts ...Option) (*Coverage, error) {
	s := newSettings(opts)
	if s.graph == nil {
		return nil, fmt.Errorf("coverage search: %w", domain.ErrNoGraph)
	}
	cov := s.coverage
	if cov == nil {
		cov = reach.NewCoverage()
	}
	return &Coverage{
		rand:        s.rand,
		logger:      s.logger,
		coverage:    cov,
		estimator:   reach.NewEstimator(s.graph, cov, reach.WithMaxHops(s.maxHops), reach.WithLogger(s.logger)),
		maxDistance: s.maxDistance,
		heuristics:  []Heuristic{MD2U, CovNew},
		scores:      NewMeta[coverageScore](),
	}, nil
}

// Name implements Strategy.
func (c *Coverage) Name() string { return "coverage" }

// Covered exposes the coverage set.
func (c *Coverage) Covered() *reach.Coverage { return c.coverage }

// Current returns the heuristic used by the latest selection, empty before the first.
func (c *Coverage) Current() Heuristic { return c.current }

// Setup scores the states already scheduled.
func (c *Coverage) Setup(ctx context.Context, m *pool.Manager) error {
	for _, name := range []domain.PoolName{domain.PoolActive, domain.PoolDeferred} {
		for _, s := range m.Get(name) {
			if _, ok := c.scores.Get(s.ID); !ok {
				c.update(s, 0)
			}
		}
	}
	return nil
}

// Score returns the bookkeeping of a state under the given heuristic.
func (c *Coverage) Score(id domain.StateID, h Heuristic) float64 {
	score, _ := c.scores.Get(id)
	return score.of(h)
}

// Step implements Strategy.
func (c *Coverage) Step(ctx context.Context, m *pool.Manager) (Epoch, error) {
	report, err := m.Step(ctx, domain.PoolActive)
	epoch := newEpoch(report)

	for _, parent := range report.Stepped {
		inherited := c.scores.Value(parent.ID, coverageScore{}).InsnsSinceNew
		for _, child := range report.Children[parent.ID] {
			c.update(child, inherited)
		}
		c.scores.Forget(parent.ID)
	}
	prune(c.scores, m)
	if err != nil {
		return epoch, err
	}

	if m.Len(domain.PoolActive) == 1 {
		return epoch, nil
	}

	c.current = c.heuristics[c.turn%len(c.heuristics)]
	c.turn++
	epoch.Heuristic = string(c.current)

	epoch.Selected = drawFrom(m, c.rand, func(s *domain.State) float64 {
		score, ok := c.scores.Get(s.ID)
		if !ok {
			score = c.update(s, 0)
		}
		return score.of(c.current)
	})
	if epoch.Selected != nil {
		c.logger.Debug("coverage selection",
			"heuristic", c.current,
			"addr", epoch.Selected.Addr,
			"score", c.Score(epoch.Selected.ID, c.current),
			"covered", c.coverage.Len())
	}
	return epoch, nil
}

// update records the state's address in the coverage set and rescores it.
func (c *Coverage) update(s *domain.State, inherited int) coverageScore {
	var score coverageScore
	if c.coverage.Add(s.Addr) {
		score.InsnsSinceNew = 0
	} else {
		score.InsnsSinceNew = inherited + s.BlockInsns
	}
	score.CovNew = CovNewScore(score.InsnsSinceNew)
	score.MD2U = MD2UScore(c.estimator.Distance(s.Addr), c.maxDistance)
	c.scores.Set(s.ID, score)
	return score
}

// CovNewScore is (1/max(1, insnsSinceNew-CovNewGrace))^2.
func CovNewScore(insnsSinceNew int) float64 {
	v := 1.0 / float64(max(1, insnsSinceNew-CovNewGrace))
	return v * v
}

// MD2UScore is (1/d)^2 where d is the distance capped at maxDistance and
// clamped below at 1.
func MD2UScore(distance, maxDistance int) float64 {
	d := max(min(distance, maxDistance), 1)
	v := 1.0 / float64(d)
	return v * v
}
