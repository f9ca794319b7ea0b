/*
Package runner drives an exploration session.

A Runner owns the epoch loop: it asks a search.Strategy to step the pool
manager, records coverage, lets the guard inspect the pools, ticks the
heartbeat and checkpoints the session report. The session ends with one of the
domain outcomes; guard trips are outcomes, not errors.

# Usage

	engine := walker.New(graph)
	m := pool.New(engine)
	m.Add(domain.PoolActive, engine.Initial())

	r := runner.New(m, search.NewTree(),
		runner.WithGuard(guard.New(guard.WithThreshold(100))),
		runner.WithMaxSteps(10000),
	)
	report, err := r.Run(ctx)
*/
package runner
