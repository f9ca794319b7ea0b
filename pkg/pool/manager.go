package pool

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
)

// Filter selects the states a Move applies to. A nil Filter selects every state.
type Filter func(*domain.State) bool

// Ranker scores a state for Split. Higher ranks are moved first.
type Ranker func(*domain.State) float64

// All is the Filter that selects every state.
func All(*domain.State) bool { return true }

// StepReport describes the fan-out of one Step call.
type StepReport struct {
	// Stepped lists the states consumed by the step, in pool order.
	Stepped []*domain.State

	// Children maps each stepped state to its satisfiable successors.
	Children map[domain.StateID][]*domain.State

	// Errored, Unconstrained and Deadended count where the other outcomes went.
	Errored       int
	Unconstrained int
	Deadended     int
}

// Successors returns every satisfiable successor in pool order.
func (r StepReport) Successors() []*domain.State {
	var out []*domain.State
	for _, s := range r.Stepped {
		out = append(out, r.Children[s.ID]...)
	}
	return out
}

// Manager owns every pool of one exploration session.
// It is not safe for concurrent use; scheduling is single-threaded.
type Manager struct {
	stepper ports.Stepper
	logger  *slog.Logger

	pools   map[domain.PoolName][]*domain.State
	where   map[domain.StateID]domain.PoolName
	dropped int
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager stepping states with the given engine. The active
// and deferred pools always exist.
func New(stepper ports.Stepper, opts ...Option) *Manager {
	m := &Manager{
		stepper: stepper,
		logger:  logging.NewNop(),
		pools: map[domain.PoolName][]*domain.State{
			domain.PoolActive:   nil,
			domain.PoolDeferred: nil,
		},
		where: make(map[domain.StateID]domain.PoolName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add appends states to a pool. A state already held by another pool is
// moved, so no state is ever in two pools.
func (m *Manager) Add(name domain.PoolName, states ...*domain.State) {
	for _, s := range states {
		if s == nil {
			continue
		}
		if prev, ok := m.where[s.ID]; ok {
			if prev == name {
				continue
			}
			m.detach(prev, s.ID)
		}
		m.put(name, s)
	}
}

// Get returns a copy of the pool's states in order. The drop pool always reads empty.
func (m *Manager) Get(name domain.PoolName) []*domain.State {
	return slices.Clone(m.pools[name])
}

// First returns the first state of a pool, or nil.
func (m *Manager) First(name domain.PoolName) *domain.State {
	if states := m.pools[name]; len(states) > 0 {
		return states[0]
	}
	return nil
}

// Len returns the pool size. Missing pools have size zero; the drop pool
// reports how many states were released into it.
func (m *Manager) Len(name domain.PoolName) int {
	if name == domain.PoolDrop {
		return m.dropped
	}
	return len(m.pools[name])
}

// Has reports whether the pool exists.
func (m *Manager) Has(name domain.PoolName) bool {
	if name == domain.PoolDrop {
		return m.dropped > 0
	}
	_, ok := m.pools[name]
	return ok
}

// Lookup returns the pool currently holding the state.
func (m *Manager) Lookup(id domain.StateID) (domain.PoolName, bool) {
	name, ok := m.where[id]
	return name, ok
}

// Names returns every existing pool name, sorted.
func (m *Manager) Names() []domain.PoolName {
	names := make([]domain.PoolName, 0, len(m.pools)+1)
	for name := range m.pools {
		names = append(names, name)
	}
	if m.dropped > 0 {
		names = append(names, domain.PoolDrop)
	}
	slices.Sort(names)
	return names
}

// Counts snapshots the size of every existing pool.
func (m *Manager) Counts() domain.PoolCounts {
	counts := make(domain.PoolCounts, len(m.pools)+1)
	for name, states := range m.pools {
		counts[name] = len(states)
	}
	if m.dropped > 0 {
		counts[domain.PoolDrop] = m.dropped
	}
	return counts
}

// Move transfers the states matching filter from one pool to another,
// preserving their relative order. It returns how many states moved.
// Moving from a missing pool is a no-op.
func (m *Manager) Move(from, to domain.PoolName, filter Filter) int {
	if from == to {
		return 0
	}
	states, ok := m.pools[from]
	if !ok || len(states) == 0 {
		return 0
	}
	if filter == nil {
		filter = All
	}

	var keep, moved []*domain.State
	for _, s := range states {
		if filter(s) {
			moved = append(moved, s)
		} else {
			keep = append(keep, s)
		}
	}
	m.pools[from] = keep
	for _, s := range moved {
		delete(m.where, s.ID)
		m.put(to, s)
	}
	return len(moved)
}

// Split moves the limit highest-ranked states from one pool to another.
// Ties keep pool order. The remaining states keep their relative order.
// It returns how many states moved.
func (m *Manager) Split(from, to domain.PoolName, ranker Ranker, limit int) int {
	states := m.pools[from]
	if from == to || limit <= 0 || len(states) == 0 {
		return 0
	}
	limit = min(limit, len(states))

	ranks := make([]float64, len(states))
	for i, s := range states {
		ranks[i] = ranker(s)
	}
	order := make([]int, len(states))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})

	chosen := make(map[int]bool, limit)
	for _, i := range order[:limit] {
		chosen[i] = true
	}

	keep := make([]*domain.State, 0, len(states)-limit)
	for i, s := range states {
		if !chosen[i] {
			keep = append(keep, s)
		}
	}
	m.pools[from] = keep
	for _, i := range order[:limit] {
		s := states[i]
		delete(m.where, s.ID)
		m.put(to, s)
	}
	return limit
}

// Take removes one state from whatever pool holds it and places it in pool to.
func (m *Manager) Take(id domain.StateID, to domain.PoolName) (*domain.State, bool) {
	from, ok := m.where[id]
	if !ok {
		return nil, false
	}
	s := m.detach(from, id)
	m.put(to, s)
	return s, true
}

// Drain releases every state of the given pools into the drop pool and
// returns how many were released.
func (m *Manager) Drain(names ...domain.PoolName) int {
	total := 0
	for _, name := range names {
		total += m.Move(name, domain.PoolDrop, All)
	}
	return total
}

// Step advances every state of the pool by one block. Each stepped state is
// replaced by its successors. A failing state goes to the errored pool and
// never aborts the step. Only context cancellation is returned as an error,
// in which case the states not yet stepped stay in the pool.
func (m *Manager) Step(ctx context.Context, name domain.PoolName) (StepReport, error) {
	states := m.pools[name]
	m.pools[name] = nil
	for _, s := range states {
		delete(m.where, s.ID)
	}

	report := StepReport{Children: make(map[domain.StateID][]*domain.State, len(states))}
	for i, s := range states {
		if err := ctx.Err(); err != nil {
			m.Add(name, states[i:]...)
			return report, err
		}

		res, err := m.safeStep(ctx, s)
		report.Stepped = append(report.Stepped, s)
		if err != nil {
			m.logger.Debug("state failed to step", "addr", fmt.Sprintf("%#x", s.Addr), "err", err)
			m.put(domain.PoolErrored, s)
			report.Errored++
			continue
		}

		report.Children[s.ID] = res.Successors
		m.Add(name, res.Successors...)
		m.Add(domain.PoolUnconstrained, res.Unconstrained...)
		report.Unconstrained += len(res.Unconstrained)

		if len(res.Successors) == 0 && len(res.Unconstrained) == 0 {
			m.put(domain.PoolDeadended, s)
			report.Deadended++
		}
	}
	return report, nil
}

func (m *Manager) safeStep(ctx context.Context, s *domain.State) (res ports.StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic at %#x: %v", s.Addr, r)
		}
	}()
	return m.stepper.Step(ctx, s)
}

func (m *Manager) put(name domain.PoolName, s *domain.State) {
	if name == domain.PoolDrop {
		m.dropped++
		return
	}
	m.pools[name] = append(m.pools[name], s)
	m.where[s.ID] = name
}

func (m *Manager) detach(name domain.PoolName, id domain.StateID) *domain.State {
	states := m.pools[name]
	for i, s := range states {
		if s.ID == id {
			m.pools[name] = slices.Delete(states, i, i+1)
			delete(m.where, id)
			return s
		}
	}
	return nil
}
