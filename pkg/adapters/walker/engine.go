package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
)

// ErrFault is wrapped by errors raised when a state executes a faulting block.
var ErrFault = errors.New("block fault")

// Engine is a reference execution engine. It walks a control-flow graph
// without evaluating instructions: every static successor is feasible, so a
// block with k successors forks k states.
type Engine struct {
	graph  *cfg.Graph
	logger *slog.Logger
}

var _ ports.Stepper = (*Engine)(nil)

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over the graph.
func New(graph *cfg.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:  graph,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initial returns a root state at the graph entry.
func (e *Engine) Initial() *domain.State {
	entry := e.graph.Entry()
	s := domain.NewState(entry, 0)
	e.arrive(s, entry)
	if e.graph.IsLoopEntry(entry) {
		s.Loops.Enter(entry)
	}
	return s
}

// Step implements ports.Stepper.
func (e *Engine) Step(ctx context.Context, s *domain.State) (ports.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.StepResult{}, err
	}

	block, ok := e.graph.Block(s.Addr)
	if !ok {
		return ports.StepResult{}, fmt.Errorf("no block at %#x", s.Addr)
	}
	if block.Fault != "" {
		return ports.StepResult{}, fmt.Errorf("%w at %#x: %s", ErrFault, s.Addr, block.Fault)
	}

	var res ports.StepResult
	if block.Unconstrained {
		wild := s.Fork()
		wild.Addr, wild.BlockInsns, wild.Hooked = 0, 0, false
		res.Unconstrained = append(res.Unconstrained, wild)
	}

	switch {
	case block.Return:
		if len(s.CallStack) == 0 {
			return res, nil
		}
		child := s.Fork()
		ret := child.CallStack[len(child.CallStack)-1]
		child.CallStack = child.CallStack[:len(child.CallStack)-1]
		e.arrive(child, ret)
		res.Successors = append(res.Successors, child)

	case block.Call != 0:
		child := s.Fork()
		child.CallStack = append(child.CallStack, block.Succ[0])
		e.arrive(child, block.Call)
		res.Successors = append(res.Successors, child)

	default:
		for _, to := range block.Succ {
			child := s.Fork()
			e.follow(child, s.Addr, to)
			e.arrive(child, to)
			res.Successors = append(res.Successors, child)
		}
	}

	if len(res.Successors) > 1 {
		e.logger.Debug("fork", "addr", fmt.Sprintf("%#x", s.Addr), "successors", len(res.Successors))
	}
	return res, nil
}

// arrive places the state at addr.
func (e *Engine) arrive(s *domain.State, addr uint64) {
	s.Addr = addr
	s.BlockInsns = 0
	s.Hooked = false
	if node, ok := e.graph.Node(addr); ok {
		s.BlockInsns = node.Insns
		s.Hooked = node.Hooked
	}
}

// follow updates the loop record for the intra-procedural edge from->to.
// Calls and returns leave the record untouched.
func (e *Engine) follow(s *domain.State, from, to uint64) {
	if s.Loops == nil {
		s.Loops = domain.NewLoopRecord()
	}
	r := s.Loops

	for _, entry := range r.Active {
		if !e.graph.InLoop(entry, to) {
			r.Exit(entry)
			break
		}
	}

	if !e.graph.IsLoopEntry(to) {
		return
	}
	switch {
	case r.Inside(to) && e.graph.IsBackEdge(from, to):
		r.BackEdge(to)
	case !r.Inside(to):
		r.Enter(to)
	}
}
