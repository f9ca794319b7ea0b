/*
Package furrow schedules path exploration for symbolic execution engines.

A symbolic executor forks one execution state per feasible branch, and without
a policy the number of live states grows until memory runs out. furrow keeps
states in named pools and lets a search strategy decide, once per epoch,
which of them the engine steps next. An explosion guard drains the pools when
they grow past a threshold or when a timeout is raised, and a heartbeat proves
liveness on long runs.

# Strategies

  - tree: tree-weighted random search. Each fork splits its parent's weight
    evenly across the children; one state is drawn by weight.
  - coverage: alternates a distance-to-uncovered heuristic with a
    time-since-new-coverage heuristic.
  - loops: prefers states that have iterated their current loops the most,
    so loops are exhausted before siblings are explored.
  - stochastic: walks one state at a time, picking successors by per-address
    affinity and restarting from the initial state at random.

# Usage

The Explorer wires the reference engine, which walks a control-flow graph,
to a strategy, the guard and the runner:

	b := cfg.NewBuilder()
	b.Add(0x1000, 4).Go(0x1010, 0x1020)
	b.Add(0x1010, 8).Go(0x1000)
	b.Add(0x1020, 2)
	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	ex, err := furrow.New(graph,
		furrow.WithStrategy("coverage"),
		furrow.WithThreshold(500),
		furrow.WithTimeout(time.Minute),
	)
	if err != nil {
		log.Fatal(err)
	}
	report, err := ex.Run(ctx)

Hosts with their own engine implement ports.Stepper and use pkg/pool,
pkg/search and pkg/runner directly.
*/
package furrow
