package search_test

import (
	"context"
	"testing"

	"github.com/aretw0/furrow/pkg/adapters/walker"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/stretchr/testify/require"
)

// seqRand replays a fixed sequence of draws and fails the test on overrun.
type seqRand struct {
	t    *testing.T
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	r.t.Helper()
	require.Less(r.t, r.i, len(r.vals), "unexpected extra draw")
	v := r.vals[r.i]
	r.i++
	return v
}

// script maps an address to the addresses its successors land on.
// Missing addresses end the path.
func script(fanout map[uint64][]uint64) ports.Stepper {
	return ports.StepperFunc(func(ctx context.Context, s *domain.State) (ports.StepResult, error) {
		var res ports.StepResult
		for _, to := range fanout[s.Addr] {
			child := s.Fork()
			child.Addr = to
			child.BlockInsns = 1
			res.Successors = append(res.Successors, child)
		}
		return res, nil
	})
}

// forkingGraph never dead-ends: every visit to 0x1 forks in two and both
// branches come back.
func forkingGraph(t *testing.T) *cfg.Graph {
	t.Helper()
	b := cfg.NewBuilder()
	b.Add(0x1, 2).Go(0x2, 0x3)
	b.Add(0x2, 3).Go(0x1)
	b.Add(0x3, 4).Go(0x1, 0x4)
	b.Add(0x4, 1).Go(0x1)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func walkerManager(t *testing.T, g *cfg.Graph) *pool.Manager {
	t.Helper()
	e := walker.New(g)
	m := pool.New(e)
	m.Add(domain.PoolActive, e.Initial())
	return m
}

func activeAddrs(m *pool.Manager) []uint64 {
	var out []uint64
	for _, s := range m.Get(domain.PoolActive) {
		out = append(out, s.Addr)
	}
	return out
}
