package ports

import (
	"context"

	"github.com/aretw0/furrow/pkg/domain"
)

// StepResult is the fan-out of stepping one state.
type StepResult struct {
	// Successors are the satisfiable states that continue in the stepped pool.
	// An empty slice means the path ended.
	Successors []*domain.State

	// Unconstrained are successors whose instruction pointer became symbolic.
	Unconstrained []*domain.State
}

// Stepper is the execution engine as seen by the scheduler.
// Step advances one state by one basic block. It may return zero, one or many
// successors; every successor is a fresh state whose Parent is the stepped
// state's ID. A returned error only concerns the stepped state, which the
// pool manager files into the errored pool.
type Stepper interface {
	Step(ctx context.Context, state *domain.State) (StepResult, error)
}

// StepperFunc adapts a plain function to the Stepper interface.
type StepperFunc func(ctx context.Context, state *domain.State) (StepResult, error)

// Step calls f(ctx, state).
func (f StepperFunc) Step(ctx context.Context, state *domain.State) (StepResult, error) {
	return f(ctx, state)
}
