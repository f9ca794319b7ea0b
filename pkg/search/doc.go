/*
Package search implements the path-selection strategies.

Each Strategy owns one epoch of scheduling: it steps the active pool through
the pool manager, looks at how many successors came out (none, one or many),
updates its private bookkeeping and picks the next active set.

  - Tree: random path selection weighted by position in the execution tree.
  - Coverage: alternates between distance-to-uncovered-code and recency of
    new coverage.
  - Loops: gives priority to the state exhausting the deepest loop iteration.
  - Stochastic: one state at a time, survivors drawn by per-address affinity,
    with random restarts.

Weighted draws go through Pick, which consumes exactly one value from the
strategy-local generator, so a run is reproducible from its seed.
*/
package search
