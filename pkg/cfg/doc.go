/*
Package cfg provides the control-flow graph consumed by the reachability
estimator, the loop tracker and the reference walker engine.

Graphs are immutable once built. They can be assembled in code with the
fluent Builder or loaded from a YAML/JSON description:

	b := cfg.NewBuilder()
	b.Add(0x1000, 3).Go(0x1010, 0x1020)
	b.Add(0x1010, 2).Go(0x1000)
	b.Add(0x1020, 1).Return()
	g, err := b.Build()

Natural loops are computed at construction from the dominator tree: an edge
A->B is a back edge when B dominates A, and the loop body is every block that
reaches A without passing through B.
*/
package cfg
