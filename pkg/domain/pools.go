package domain

// PoolName identifies a named collection of execution states.
type PoolName string

const (
	PoolActive        PoolName = "active"        // States stepped on the next epoch
	PoolDeferred      PoolName = "deferred"      // States parked by a strategy for later selection
	PoolErrored       PoolName = "errored"       // States the engine failed to step
	PoolCut           PoolName = "cut"           // States terminated by a loop bound
	PoolUnconstrained PoolName = "unconstrained" // States with a symbolic instruction pointer
	PoolDeadended     PoolName = "deadended"     // States with no successors
	PoolDrop          PoolName = "drop"          // Terminal sink for discarded states
)

// DefaultMonitoredPools are the pools the explosion guard counts.
var DefaultMonitoredPools = []PoolName{PoolActive, PoolDeferred, PoolErrored, PoolCut}

// PoolCounts is a snapshot of pool sizes keyed by pool name.
type PoolCounts map[PoolName]int

// Total sums the sizes of the given pools. With no names it sums every pool.
func (c PoolCounts) Total(names ...PoolName) int {
	total := 0
	if len(names) == 0 {
		for _, n := range c {
			total += n
		}
		return total
	}
	for _, name := range names {
		total += c[name]
	}
	return total
}
