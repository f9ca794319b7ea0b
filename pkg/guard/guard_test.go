package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(m *pool.Manager, name domain.PoolName, n int) {
	for i := range n {
		m.Add(name, domain.NewState(uint64(i), 1))
	}
}

func TestGuard_Explosion(t *testing.T) {
	ctx := context.Background()
	m := pool.New(nil)
	for _, name := range []domain.PoolName{
		domain.PoolActive, domain.PoolDeferred, domain.PoolErrored, domain.PoolCut, domain.PoolDeadended,
	} {
		fill(m, name, 21)
	}
	g := guard.New(guard.WithThreshold(100), guard.WithPools(
		domain.PoolActive, domain.PoolDeferred, domain.PoolErrored, domain.PoolCut, domain.PoolDeadended,
	))

	v := g.Inspect(ctx, m)

	assert.True(t, v.Exploded)
	assert.False(t, v.TimedOut)
	assert.True(t, v.Tripped())
	assert.Equal(t, domain.GuardExplosion, v.Reason())
	assert.Equal(t, 105, v.Total)
	assert.Equal(t, 105, v.Dropped)
	assert.Equal(t, 105, m.Len(domain.PoolDrop))
	for _, name := range g.Pools() {
		assert.Equal(t, 0, m.Len(name), "pool %s drained", name)
	}
}

func TestGuard_ThresholdIsExclusive(t *testing.T) {
	m := pool.New(nil)
	fill(m, domain.PoolActive, 50)
	fill(m, domain.PoolDeferred, 50)
	fill(m, domain.PoolDeadended, 30)

	v := guard.New().Inspect(context.Background(), m)

	assert.False(t, v.Tripped(), "exactly the threshold is still fine")
	assert.Equal(t, 100, v.Total, "deadended is not monitored by default")
	assert.Equal(t, 0, m.Len(domain.PoolDrop))
}

func TestGuard_DiscardsUnconstrained(t *testing.T) {
	m := pool.New(nil)
	fill(m, domain.PoolUnconstrained, 3)
	fill(m, domain.PoolActive, 1)

	v := guard.New().Inspect(context.Background(), m)

	assert.False(t, v.Tripped())
	assert.Equal(t, 3, v.Unconstrained)
	assert.Equal(t, 0, m.Len(domain.PoolUnconstrained))
	assert.Equal(t, 1, m.Len(domain.PoolActive))
}

func TestGuard_Timeout(t *testing.T) {
	ctx := context.Background()
	m := pool.New(nil)
	fill(m, domain.PoolActive, 2)
	fill(m, domain.PoolDeferred, 3)

	var flag guard.Flag
	g := guard.New(guard.WithSignal(&flag))

	require.False(t, g.Inspect(ctx, m).Tripped())

	flag.Set()
	v := g.Inspect(ctx, m)
	assert.True(t, v.TimedOut)
	assert.False(t, v.Exploded)
	assert.Equal(t, domain.GuardTimeout, v.Reason())
	assert.Equal(t, 5, v.Dropped)
	assert.Equal(t, 0, m.Len(domain.PoolActive))

	t.Run("Sticky", func(t *testing.T) {
		flag.Reset()
		assert.True(t, g.Inspect(ctx, m).TimedOut)
		g.Reset()
		assert.False(t, g.Inspect(ctx, m).TimedOut)
	})
}

func TestFlag(t *testing.T) {
	t.Run("Raised when the context ends", func(t *testing.T) {
		var f guard.Flag
		ctx, cancel := context.WithCancel(context.Background())
		defer f.RaiseOnDone(ctx)()

		cancel()
		assert.Eventually(t, f.IsSet, time.Second, time.Millisecond)
	})

	t.Run("Raised after a duration", func(t *testing.T) {
		var f guard.Flag
		defer f.RaiseAfter(5 * time.Millisecond)()
		assert.Eventually(t, f.IsSet, time.Second, time.Millisecond)
	})

	t.Run("Zero duration never raises", func(t *testing.T) {
		var f guard.Flag
		stop := f.RaiseAfter(0)
		assert.False(t, stop())
		assert.False(t, f.IsSet())
	})

	t.Run("Detached interrupt listener stays low", func(t *testing.T) {
		var f guard.Flag
		stop := f.RaiseOnInterrupt()
		stop()
		assert.Never(t, f.IsSet, 20*time.Millisecond, time.Millisecond)
	})
}
