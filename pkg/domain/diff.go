package domain

// PoolDelta holds the change in size of every pool that changed between two snapshots.
type PoolDelta map[PoolName]int

// Diff calculates the difference between two pool snapshots.
// Pools missing from one side count as empty. Unchanged pools are omitted.
// It returns nil when nothing changed.
func Diff(before, after PoolCounts) PoolDelta {
	var delta PoolDelta
	record := func(name PoolName, d int) {
		if d == 0 {
			return
		}
		if delta == nil {
			delta = make(PoolDelta)
		}
		delta[name] = d
	}

	for name, n := range after {
		record(name, n-before[name])
	}
	for name, n := range before {
		if _, seen := after[name]; !seen {
			record(name, -n)
		}
	}
	return delta
}
