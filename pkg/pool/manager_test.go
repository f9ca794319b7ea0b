package pool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStepper simulates the execution engine.
type MockStepper struct {
	mock.Mock
}

func (m *MockStepper) Step(ctx context.Context, s *domain.State) (ports.StepResult, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(ports.StepResult), args.Error(1)
}

func states(addrs ...uint64) []*domain.State {
	out := make([]*domain.State, len(addrs))
	for i, a := range addrs {
		out[i] = domain.NewState(a, 1)
	}
	return out
}

func addrs(ss []*domain.State) []uint64 {
	out := make([]uint64, len(ss))
	for i, s := range ss {
		out[i] = s.Addr
	}
	return out
}

func TestManager_AddIsDuplicateFree(t *testing.T) {
	m := pool.New(nil)
	s := states(1)[0]

	m.Add(domain.PoolActive, s)
	m.Add(domain.PoolActive, s)
	assert.Equal(t, 1, m.Len(domain.PoolActive))

	m.Add(domain.PoolDeferred, s)
	assert.Equal(t, 0, m.Len(domain.PoolActive), "re-adding elsewhere moves the state")
	assert.Equal(t, 1, m.Len(domain.PoolDeferred))

	where, ok := m.Lookup(s.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PoolDeferred, where)
}

func TestManager_Move(t *testing.T) {
	m := pool.New(nil)
	m.Add(domain.PoolActive, states(1, 2, 3, 4)...)

	moved := m.Move(domain.PoolActive, domain.PoolDeferred, func(s *domain.State) bool {
		return s.Addr%2 == 0
	})

	assert.Equal(t, 2, moved)
	assert.Equal(t, []uint64{1, 3}, addrs(m.Get(domain.PoolActive)))
	assert.Equal(t, []uint64{2, 4}, addrs(m.Get(domain.PoolDeferred)))

	t.Run("Nil filter moves everything", func(t *testing.T) {
		assert.Equal(t, 2, m.Move(domain.PoolActive, domain.PoolDeferred, nil))
		assert.Equal(t, []uint64{2, 4, 1, 3}, addrs(m.Get(domain.PoolDeferred)))
	})

	t.Run("Missing pool is a no-op", func(t *testing.T) {
		assert.False(t, m.Has("stashed"))
		assert.Equal(t, 0, m.Move("stashed", domain.PoolActive, nil))
		assert.Equal(t, 0, m.Len("stashed"))
	})
}

func TestManager_Split(t *testing.T) {
	rank := func(s *domain.State) float64 { return float64(s.Addr) }

	t.Run("Moves the highest ranked", func(t *testing.T) {
		m := pool.New(nil)
		m.Add(domain.PoolDeferred, states(3, 9, 1, 7)...)

		n := m.Split(domain.PoolDeferred, domain.PoolActive, rank, 1)
		assert.Equal(t, 1, n)
		assert.Equal(t, []uint64{9}, addrs(m.Get(domain.PoolActive)))
		assert.Equal(t, []uint64{3, 1, 7}, addrs(m.Get(domain.PoolDeferred)), "the rest keep their order")
	})

	t.Run("Negated ranker moves the lowest ranked", func(t *testing.T) {
		m := pool.New(nil)
		m.Add(domain.PoolActive, states(3, 9, 1, 7)...)

		m.Split(domain.PoolActive, domain.PoolDeferred, func(s *domain.State) float64 { return -rank(s) }, 1)
		assert.Equal(t, []uint64{1}, addrs(m.Get(domain.PoolDeferred)))
		assert.Equal(t, []uint64{3, 9, 7}, addrs(m.Get(domain.PoolActive)))
	})

	t.Run("Ties keep pool order", func(t *testing.T) {
		m := pool.New(nil)
		m.Add(domain.PoolDeferred, states(5, 6, 7)...)
		m.Split(domain.PoolDeferred, domain.PoolActive, func(*domain.State) float64 { return 0 }, 2)
		assert.Equal(t, []uint64{5, 6}, addrs(m.Get(domain.PoolActive)))
	})

	t.Run("Limit larger than pool", func(t *testing.T) {
		m := pool.New(nil)
		m.Add(domain.PoolDeferred, states(1, 2)...)
		assert.Equal(t, 2, m.Split(domain.PoolDeferred, domain.PoolActive, rank, 10))
		assert.Equal(t, []uint64{2, 1}, addrs(m.Get(domain.PoolActive)))
	})

	t.Run("Empty pool", func(t *testing.T) {
		m := pool.New(nil)
		assert.Equal(t, 0, m.Split(domain.PoolDeferred, domain.PoolActive, rank, 1))
	})
}

func TestManager_DrainReleasesIntoDrop(t *testing.T) {
	m := pool.New(nil)
	m.Add(domain.PoolActive, states(1, 2)...)
	m.Add(domain.PoolDeferred, states(3, 4, 5)...)

	n := m.Drain(domain.PoolActive, domain.PoolDeferred, "missing")

	assert.Equal(t, 5, n)
	assert.Equal(t, 0, m.Len(domain.PoolActive))
	assert.Equal(t, 0, m.Len(domain.PoolDeferred))
	assert.Equal(t, 5, m.Len(domain.PoolDrop))
	assert.Empty(t, m.Get(domain.PoolDrop), "dropped states are released")
	assert.Equal(t, 5, m.Counts()[domain.PoolDrop])
}

func TestManager_Step(t *testing.T) {
	ctx := context.Background()
	stepper := new(MockStepper)
	m := pool.New(stepper)

	forking, single, failing, ending, jumping := states(0x10, 0x20, 0x30, 0x40, 0x50)[0], states(0x20)[0], states(0x30)[0], states(0x40)[0], states(0x50)[0]
	left, right := forking.Fork(), forking.Fork()
	next := single.Fork()
	wild := jumping.Fork()

	stepper.On("Step", mock.Anything, forking).Return(ports.StepResult{Successors: []*domain.State{left, right}}, nil)
	stepper.On("Step", mock.Anything, single).Return(ports.StepResult{Successors: []*domain.State{next}}, nil)
	stepper.On("Step", mock.Anything, failing).Return(ports.StepResult{}, errors.New("unsupported instruction"))
	stepper.On("Step", mock.Anything, ending).Return(ports.StepResult{}, nil)
	stepper.On("Step", mock.Anything, jumping).Return(ports.StepResult{Unconstrained: []*domain.State{wild}}, nil)

	m.Add(domain.PoolActive, forking, single, failing, ending, jumping)

	report, err := m.Step(ctx, domain.PoolActive)
	require.NoError(t, err)

	assert.Len(t, report.Stepped, 5)
	assert.Equal(t, []*domain.State{left, right}, report.Children[forking.ID])
	assert.Equal(t, []*domain.State{left, right, next}, report.Successors())
	assert.Equal(t, 1, report.Errored)
	assert.Equal(t, 1, report.Deadended)
	assert.Equal(t, 1, report.Unconstrained)

	assert.Equal(t, []*domain.State{left, right, next}, m.Get(domain.PoolActive))
	assert.Equal(t, []*domain.State{failing}, m.Get(domain.PoolErrored))
	assert.Equal(t, []*domain.State{ending}, m.Get(domain.PoolDeadended))
	assert.Equal(t, []*domain.State{wild}, m.Get(domain.PoolUnconstrained))
	stepper.AssertExpectations(t)
}

func TestManager_StepRecoversEnginePanic(t *testing.T) {
	s := states(0x99)[0]
	m := pool.New(ports.StepperFunc(func(ctx context.Context, st *domain.State) (ports.StepResult, error) {
		panic("lifter crashed")
	}))
	m.Add(domain.PoolActive, s)

	report, err := m.Step(context.Background(), domain.PoolActive)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errored)
	assert.Equal(t, []*domain.State{s}, m.Get(domain.PoolErrored))
}

func TestManager_StepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stepper := new(MockStepper)
	m := pool.New(stepper)
	m.Add(domain.PoolActive, states(1, 2)...)

	_, err := m.Step(ctx, domain.PoolActive)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, m.Len(domain.PoolActive), "unstepped states stay in the pool")
	stepper.AssertNotCalled(t, "Step", mock.Anything, mock.Anything)
}
