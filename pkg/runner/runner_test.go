package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aretw0/furrow/pkg/adapters/memory"
	"github.com/aretw0/furrow/pkg/adapters/walker"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/aretw0/furrow/pkg/runner"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/aretw0/furrow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *cfg.Builder) *pool.Manager {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	e := walker.New(g)
	m := pool.New(e)
	m.Add(domain.PoolActive, e.Initial())
	return m
}

func diamond(t *testing.T) *pool.Manager {
	b := cfg.NewBuilder()
	b.Add(0x1, 4).Go(0x2, 0x3)
	b.Add(0x2, 4).Go(0x4)
	b.Add(0x3, 4).Go(0x4)
	b.Add(0x4, 4)
	return build(t, b)
}

func cycle(t *testing.T) *pool.Manager {
	b := cfg.NewBuilder()
	b.Add(0x1, 4).Go(0x2)
	b.Add(0x2, 4).Go(0x1)
	return build(t, b)
}

// branching forks on every block, so the deferred pool grows by one per epoch.
func branching(t *testing.T) *pool.Manager {
	b := cfg.NewBuilder()
	b.Add(0x1, 4).Go(0x1, 0x2)
	b.Add(0x2, 4).Go(0x1, 0x2)
	return build(t, b)
}

// countingStore records how often reports are saved.
type countingStore struct {
	*memory.Store
	saves atomic.Int32
}

func (s *countingStore) Save(ctx context.Context, r *domain.Report) error {
	s.saves.Add(1)
	return s.Store.Save(ctx, r)
}

func TestRunner_Exhausted(t *testing.T) {
	m := diamond(t)
	r := runner.New(m, search.NewTree(), runner.WithSessionID("s1"), runner.WithSeed(42))

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeExhausted, report.Outcome)
	assert.Equal(t, "s1", report.SessionID)
	assert.Equal(t, "tree", report.Strategy)
	assert.Equal(t, int64(42), report.Seed)
	assert.Equal(t, 5, report.Steps, "both paths walked to the dead end")
	assert.Equal(t, 4, report.Covered)
	assert.Equal(t, 2, report.Pools[domain.PoolDeadended])
	assert.False(t, report.FinishedAt.IsZero())
	assert.False(t, report.Partial())
}

func TestRunner_SharedCoverage(t *testing.T) {
	b := cfg.NewBuilder()
	b.Add(0x1, 4).Go(0x2, 0x3)
	b.Add(0x2, 4).Go(0x4)
	b.Add(0x3, 4).Go(0x4)
	b.Add(0x4, 4)
	g, err := b.Build()
	require.NoError(t, err)
	e := walker.New(g)
	m := pool.New(e)
	m.Add(domain.PoolActive, e.Initial())

	cov := reach.NewCoverage()
	strategy, err := search.NewCoverage(search.WithGraph(g), search.WithCoverage(cov))
	require.NoError(t, err)
	r := runner.New(m, strategy, runner.WithCoverage(cov))

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Same(t, cov, r.Coverage())
	assert.Same(t, strategy.Covered(), r.Coverage(), "one coverage set per session")
	assert.Equal(t, 4, report.Covered)
	assert.Equal(t, []uint64{0x1, 0x2, 0x3, 0x4}, cov.Addrs())
}

func TestRunner_StepLimit(t *testing.T) {
	r := runner.New(cycle(t), search.NewTree(), runner.WithMaxSteps(7))

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepLimit, report.Outcome)
	assert.Equal(t, 7, report.Steps)
	assert.Equal(t, 2, report.Covered)
	assert.NotEmpty(t, r.SessionID())
}

func TestRunner_Explosion(t *testing.T) {
	var trip *domain.GuardEvent
	r := runner.New(branching(t), search.NewTree(),
		runner.WithGuard(guard.New(guard.WithThreshold(5))),
		runner.WithHooks(domain.LifecycleHooks{
			OnGuardTrip: func(_ context.Context, e *domain.GuardEvent) { trip = e },
		}),
	)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeExploded, report.Outcome)
	assert.True(t, report.Partial())
	assert.Equal(t, 5, report.Steps, "live count is steps+1 and must exceed 5")
	assert.Zero(t, report.Pools[domain.PoolActive])
	assert.Zero(t, report.Pools[domain.PoolDeferred])

	require.NotNil(t, trip)
	assert.Equal(t, domain.GuardExplosion, trip.Reason)
	assert.Equal(t, 6, trip.Total)
	assert.Equal(t, 5, trip.Threshold)
	assert.Equal(t, 5, trip.Step)
}

func TestRunner_TimedOut(t *testing.T) {
	var flag guard.Flag
	flag.Set()
	r := runner.New(cycle(t), search.NewTree(), runner.WithGuard(guard.New(guard.WithSignal(&flag))))

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTimedOut, report.Outcome)
	assert.Equal(t, 1, report.Steps)
}

func TestRunner_CancelledStillSaves(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New(cycle(t), search.NewTree(),
		runner.WithSessionID("s1"),
		runner.WithSessions(session.NewManager(store)),
	)
	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, report.Outcome)
	assert.Zero(t, report.Steps)

	saved, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, saved.Outcome)
}

func TestRunner_Checkpoints(t *testing.T) {
	store := &countingStore{Store: memory.NewStore()}
	r := runner.New(cycle(t), search.NewTree(),
		runner.WithSessionID("s1"),
		runner.WithSessions(session.NewManager(store)),
		runner.WithMaxSteps(10),
		runner.WithCheckpointEvery(3),
	)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	// Initial, steps 3, 6 and 9, final.
	assert.Equal(t, int32(5), store.saves.Load())

	saved, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepLimit, saved.Outcome)
	assert.Equal(t, 10, saved.Steps)
}

func TestRunner_EpochHooks(t *testing.T) {
	var events []*domain.EpochEvent
	r := runner.New(diamond(t), search.NewTree(),
		runner.WithHooks(domain.LifecycleHooks{
			OnEpoch: func(_ context.Context, e *domain.EpochEvent) { events = append(events, e) },
		}),
	)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, events, report.Steps)

	first := events[0]
	assert.Equal(t, domain.EventEpoch, first.Type)
	assert.Equal(t, 1, first.Step)
	assert.Equal(t, 2, first.Fanout)
	assert.Equal(t, 1, first.Delta[domain.PoolDeferred])
	assert.Equal(t, "tree", first.Strategy)
}

func TestRunner_RestartHooks(t *testing.T) {
	restarts := 0
	r := runner.New(cycle(t), search.NewStochastic(search.WithRestartProbability(1)),
		runner.WithMaxSteps(4),
		runner.WithHooks(domain.LifecycleHooks{
			OnRestart: func(_ context.Context, e *domain.RestartEvent) {
				restarts++
				assert.False(t, e.Forced)
				assert.Equal(t, "stochastic", e.Strategy)
			},
		}),
	)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Restarts)
	assert.Equal(t, 4, restarts)
}

func TestRunner_HeartbeatError(t *testing.T) {
	sentinel := filepath.Join(t.TempDir(), "stop")
	require.NoError(t, os.WriteFile(sentinel, nil, 0o644))
	boom := errors.New("detached")
	hb := probe.New(
		probe.WithInterval(2),
		probe.WithSentinel(sentinel),
		probe.WithHandler(probe.DebugHandlerFunc(func(context.Context, *probe.DebugSession) error { return boom })),
	)

	r := runner.New(cycle(t), search.NewTree(), runner.WithHeartbeat(hb))
	report, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Steps)
}

func TestRunner_SetupError(t *testing.T) {
	m := pool.New(nil)
	r := runner.New(m, search.NewStochastic())

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveState)
}
