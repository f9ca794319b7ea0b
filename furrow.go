package furrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/adapters/walker"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/aretw0/furrow/pkg/runner"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/aretw0/furrow/pkg/session"
)

// Version is the release version, overridden at link time.
var Version = "dev"

// Explorer is the high-level entry point of the library. It walks a
// control-flow graph with the reference engine under one search strategy.
type Explorer struct {
	graph    *cfg.Graph
	engine   *walker.Engine
	manager  *pool.Manager
	strategy search.Strategy
	runner   *runner.Runner
	timeout  *guard.Flag
	deadline time.Duration
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Explorer.
type Option func(*settings)

type settings struct {
	logger          *slog.Logger
	strategy        string
	registry        *search.Registry
	strategyOpts    []search.Option
	seed            int64
	threshold       int
	pools           []domain.PoolName
	timeout         time.Duration
	maxSteps        int
	checkpointEvery int
	sessionID       string
	heartbeat       *probe.Heartbeat
	store           ports.ReportStore
	locker          ports.DistributedLocker
	hooks           domain.LifecycleHooks
}

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithStrategy selects the search strategy by registry name (default "tree").
func WithStrategy(name string) Option {
	return func(s *settings) {
		s.strategy = name
	}
}

// WithRegistry resolves strategy names against a custom registry.
func WithRegistry(r *search.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithStrategyOptions passes extra options to the strategy factory.
func WithStrategyOptions(opts ...search.Option) Option {
	return func(s *settings) {
		s.strategyOpts = append(s.strategyOpts, opts...)
	}
}

// WithSeed seeds the strategy's random generator.
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// WithThreshold sets the explosion guard threshold.
func WithThreshold(n int) Option {
	return func(s *settings) {
		s.threshold = n
	}
}

// WithMonitoredPools sets the pools the guard counts.
func WithMonitoredPools(names ...domain.PoolName) Option {
	return func(s *settings) {
		s.pools = names
	}
}

// WithTimeout raises the guard's timeout signal after d. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithMaxSteps caps the number of epochs.
func WithMaxSteps(n int) Option {
	return func(s *settings) {
		s.maxSteps = n
	}
}

// WithCheckpointEvery saves a running report every n epochs.
func WithCheckpointEvery(n int) Option {
	return func(s *settings) {
		s.checkpointEvery = n
	}
}

// WithSessionID fixes the session ID reports are saved under.
func WithSessionID(id string) Option {
	return func(s *settings) {
		s.sessionID = id
	}
}

// WithHeartbeat enables the liveness heartbeat.
func WithHeartbeat(hb *probe.Heartbeat) Option {
	return func(s *settings) {
		s.heartbeat = hb
	}
}

// WithStore persists session reports.
func WithStore(store ports.ReportStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithLocker fences report writes across processes. Requires WithStore.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// New wires an Explorer for graph.
func New(graph *cfg.Graph, opts ...Option) (*Explorer, error) {
	if graph == nil {
		return nil, domain.ErrNoGraph
	}
	s := settings{
		logger:    logging.NewNop(),
		strategy:  "tree",
		seed:      search.DefaultSeed,
		threshold: guard.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.registry == nil {
		s.registry = search.DefaultRegistry()
	}

	engine := walker.New(graph, walker.WithLogger(s.logger))
	manager := pool.New(engine, pool.WithLogger(s.logger))
	manager.Add(domain.PoolActive, engine.Initial())

	coverage := reach.NewCoverage()
	strategyOpts := append([]search.Option{
		search.WithLogger(s.logger),
		search.WithSeed(s.seed),
		search.WithGraph(graph),
		search.WithCoverage(coverage),
	}, s.strategyOpts...)
	strategy, err := s.registry.New(s.strategy, strategyOpts...)
	if err != nil {
		return nil, err
	}

	timeout := &guard.Flag{}
	guardOpts := []guard.Option{
		guard.WithThreshold(s.threshold),
		guard.WithSignal(timeout),
		guard.WithLogger(s.logger),
	}
	if len(s.pools) > 0 {
		guardOpts = append(guardOpts, guard.WithPools(s.pools...))
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(s.logger),
		runner.WithGuard(guard.New(guardOpts...)),
		runner.WithHooks(s.hooks),
		runner.WithSeed(s.seed),
		runner.WithMaxSteps(s.maxSteps),
		runner.WithCheckpointEvery(s.checkpointEvery),
		runner.WithSessionID(s.sessionID),
		runner.WithCoverage(coverage),
	}
	if s.heartbeat != nil {
		runnerOpts = append(runnerOpts, runner.WithHeartbeat(s.heartbeat))
	}
	if s.store != nil {
		sessionOpts := []session.Option{session.WithLogger(s.logger)}
		if s.locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
		}
		runnerOpts = append(runnerOpts, runner.WithSessions(session.NewManager(s.store, sessionOpts...)))
	} else if s.locker != nil {
		return nil, fmt.Errorf("%w: a locker needs a report store", domain.ErrInvalidConfig)
	}

	return &Explorer{
		graph:    graph,
		engine:   engine,
		manager:  manager,
		strategy: strategy,
		runner:   runner.New(manager, strategy, runnerOpts...),
		timeout:  timeout,
		deadline: s.timeout,
		logger:   s.logger,
	}, nil
}

// Run explores until a terminal outcome. The timeout, if any, starts now.
func (e *Explorer) Run(ctx context.Context) (*domain.Report, error) {
	if e.deadline > 0 {
		stop := e.timeout.RaiseAfter(e.deadline)
		defer stop()
	}
	return e.runner.Run(ctx)
}

// Timeout exposes the guard's timeout signal so hosts can raise it.
func (e *Explorer) Timeout() *guard.Flag { return e.timeout }

// SessionID returns the ID reports are saved under.
func (e *Explorer) SessionID() string { return e.runner.SessionID() }

// Strategy returns the active search strategy.
func (e *Explorer) Strategy() search.Strategy { return e.strategy }

// Pools returns the pool manager.
func (e *Explorer) Pools() *pool.Manager { return e.manager }

// Coverage returns the addresses reached so far.
func (e *Explorer) Coverage() *reach.Coverage { return e.runner.Coverage() }

// Graph returns the explored graph.
func (e *Explorer) Graph() *cfg.Graph { return e.graph }
