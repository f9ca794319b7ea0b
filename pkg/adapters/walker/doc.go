// Package walker provides a reference ports.Stepper that explores a cfg.Graph
// as if every branch were feasible. It maintains call stacks, loop trip
// counts, hooked addresses, symbolic jumps and faulting blocks, which makes
// it suitable for driving the strategies without a real symbolic engine.
package walker
