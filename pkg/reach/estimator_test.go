package reach_test

import (
	"testing"

	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, fn func(b *cfg.Builder)) *cfg.Graph {
	t.Helper()
	b := cfg.NewBuilder()
	fn(b)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func cover(addrs ...uint64) *reach.Coverage {
	c := reach.NewCoverage()
	for _, a := range addrs {
		c.Add(a)
	}
	return c
}

func TestCoverage_Monotonic(t *testing.T) {
	c := reach.NewCoverage()
	v0 := c.Version()

	assert.True(t, c.Add(0x10))
	assert.False(t, c.Add(0x10), "second add is not new")
	v1 := c.Version()
	assert.Greater(t, v1, v0)

	c.Add(0x20)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has(0x10), "earlier addresses remain covered")
	assert.Equal(t, []uint64{0x10, 0x20}, c.Addrs())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Greater(t, c.Version(), v1)
}

func TestEstimator_Distance(t *testing.T) {
	// 0x1(3) -> 0x2(5) -> 0x4(1)
	// 0x1(3) -> 0x3(hooked) -> 0x4(1)
	g := build(t, func(b *cfg.Builder) {
		b.Add(0x1, 3).Go(0x2, 0x3)
		b.Add(0x2, 5).Go(0x4)
		b.Add(0x3, 20).Hook().Go(0x4)
		b.Add(0x4, 1)
	})

	tests := []struct {
		name    string
		covered []uint64
		from    uint64
		want    int
	}{
		{"Uncovered start", nil, 0x1, 0},
		{"Direct successor", []uint64{0x1}, 0x1, 3},
		{"Cheapest path wins", []uint64{0x1, 0x2, 0x3}, 0x1, 3 + 5},
		{"Hooked block costs a flat amount", []uint64{0x3}, 0x3, reach.HookedBlockCost},
		{"Everything covered", []uint64{0x1, 0x2, 0x3, 0x4}, 0x1, reach.Infinite},
		{"Unknown address", []uint64{0x99}, 0x99, reach.Infinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := reach.NewEstimator(g, cover(tt.covered...))
			assert.Equal(t, tt.want, e.Distance(tt.from))
		})
	}
}

func TestEstimator_TerminatesOnCycles(t *testing.T) {
	// A fully covered cycle with an uncovered exit.
	g := build(t, func(b *cfg.Builder) {
		b.Add(0x1, 2).Go(0x2)
		b.Add(0x2, 2).Go(0x3)
		b.Add(0x3, 2).Go(0x1, 0x4)
		b.Add(0x4, 1).Go(0x4)
	})

	e := reach.NewEstimator(g, cover(0x1, 0x2, 0x3))
	assert.Equal(t, 6, e.Distance(0x1))

	all := cover(0x1, 0x2, 0x3, 0x4)
	e = reach.NewEstimator(g, all)
	assert.Equal(t, reach.Infinite, e.Distance(0x1), "a closed covered cycle has no uncovered target")
}

func TestEstimator_HopCap(t *testing.T) {
	// A straight chain of 60 covered blocks ending in an uncovered one.
	const n = 60
	g := build(t, func(b *cfg.Builder) {
		for i := uint64(1); i < n; i++ {
			b.Add(i, 1).Go(i + 1)
		}
		b.Add(n, 1)
	})
	covered := make([]uint64, 0, n-1)
	for i := uint64(1); i < n; i++ {
		covered = append(covered, i)
	}
	cov := cover(covered...)

	assert.Equal(t, reach.Infinite, reach.NewEstimator(g, cov).Distance(1), "target lies beyond the default cap")
	assert.Equal(t, n-1, reach.NewEstimator(g, cov, reach.WithMaxHops(n)).Distance(1))
	assert.Equal(t, 5, reach.NewEstimator(g, cov).Distance(n-5), "near targets are still found")
}

func TestEstimator_HopCapPrefersShorterRoute(t *testing.T) {
	// Two routes from 0x1 to 0x800:
	//   0x1 -> 47 one-instruction blocks -> 0x800 (cheap, 48 hops)
	//   0x1 -> 0x2 (1000 instructions) -> 0x800 (expensive, 2 hops)
	// Past 0x800 the uncovered 0x900 is three more hops away, which only
	// fits under the cap along the expensive route.
	const chain = 47
	g := build(t, func(b *cfg.Builder) {
		b.Add(0x1, 1).Go(0x100, 0x2)
		for i := uint64(0); i < chain-1; i++ {
			b.Add(0x100+i, 1).Go(0x100 + i + 1)
		}
		b.Add(0x100+chain-1, 1).Go(0x800)
		b.Add(0x2, 1000).Go(0x800)
		b.Add(0x800, 1).Go(0x801)
		b.Add(0x801, 1).Go(0x802)
		b.Add(0x802, 1).Go(0x900)
		b.Add(0x900, 1)
	})

	covered := []uint64{0x1, 0x2, 0x800, 0x801, 0x802}
	for i := uint64(0); i < chain; i++ {
		covered = append(covered, 0x100+i)
	}
	e := reach.NewEstimator(g, cover(covered...))

	assert.Equal(t, 1+1000+1+1+1, e.Distance(0x1))
}

func TestEstimator_MemoInvalidatedByCoverage(t *testing.T) {
	g := build(t, func(b *cfg.Builder) {
		b.Add(0x1, 4).Go(0x2)
		b.Add(0x2, 4).Go(0x3)
		b.Add(0x3, 4)
	})
	cov := cover(0x1)
	e := reach.NewEstimator(g, cov)

	assert.Equal(t, 4, e.Distance(0x1))
	cov.Add(0x2)
	assert.Equal(t, 8, e.Distance(0x1), "growing coverage pushes the target further away")
}
