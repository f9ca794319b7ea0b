package reach

import (
	"container/heap"
	"log/slog"
	"math"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/ports"
)

const (
	// Infinite is returned when no uncovered block is reachable within the hop cap.
	Infinite = math.MaxInt

	// DefaultMaxHops bounds how many edges a query may follow.
	DefaultMaxHops = 50

	// HookedBlockCost is the cost of leaving a block that has no lifted
	// instructions, such as a hooked address.
	HookedBlockCost = 10
)

// Estimator answers minimum-distance-to-uncovered queries over a graph.
//
// The distance from addr is the smallest total instruction count of the
// blocks left on a path from addr to a block not yet in the coverage set.
// An uncovered addr has distance zero. Results are memoized until the
// coverage set changes.
type Estimator struct {
	graph    ports.Graph
	coverage *Coverage
	maxHops  int
	logger   *slog.Logger

	memo        map[uint64]int
	memoVersion uint64
}

// Option configures the Estimator.
type Option func(*Estimator)

// WithMaxHops overrides the hop cap. Values below one are ignored.
func WithMaxHops(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.maxHops = n
		}
	}
}

// WithLogger configures a logger for the Estimator.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		e.logger = logger
	}
}

// NewEstimator creates an estimator reading the given graph and coverage set.
func NewEstimator(graph ports.Graph, coverage *Coverage, opts ...Option) *Estimator {
	e := &Estimator{
		graph:    graph,
		coverage: coverage,
		maxHops:  DefaultMaxHops,
		logger:   logging.NewNop(),
		memo:     make(map[uint64]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.memoVersion = coverage.Version()
	return e
}

// Distance returns the distance from addr to the nearest uncovered block, or
// Infinite. It always terminates, even on cyclic graphs.
func (e *Estimator) Distance(addr uint64) int {
	if v := e.coverage.Version(); v != e.memoVersion {
		clear(e.memo)
		e.memoVersion = v
	}
	if d, ok := e.memo[addr]; ok {
		return d
	}
	d := e.search(addr)
	e.memo[addr] = d
	return d
}

// search is Dijkstra over (address, hops) pairs. An address popped again is
// only expanded when it arrived in fewer hops than every earlier expansion,
// since a cheaper but longer path may exhaust the hop cap first. Paths stop
// growing once they reach the hop cap.
func (e *Estimator) search(start uint64) int {
	fewest := make(map[uint64]int)
	frontier := &queue{{addr: start}}

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(item)
		if h, ok := fewest[cur.addr]; ok && h <= cur.hops {
			continue
		}
		fewest[cur.addr] = cur.hops

		if !e.coverage.Has(cur.addr) {
			return cur.dist
		}
		if cur.hops+1 >= e.maxHops {
			continue
		}
		node, ok := e.graph.Node(cur.addr)
		if !ok {
			continue
		}

		cost := node.Insns
		if node.Hooked || cost <= 0 {
			cost = HookedBlockCost
		}
		for _, next := range e.graph.Successors(cur.addr) {
			if h, ok := fewest[next]; ok && h <= cur.hops+1 {
				continue
			}
			heap.Push(frontier, item{addr: next, dist: cur.dist + cost, hops: cur.hops + 1})
		}
	}

	e.logger.Debug("no uncovered block within hop cap", "addr", start, "max_hops", e.maxHops)
	return Infinite
}

type item struct {
	addr uint64
	dist int
	hops int
}

// queue is a min-heap on distance, then hops.
type queue []item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].hops < q[j].hops
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
