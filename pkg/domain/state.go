package domain

import (
	"slices"

	"github.com/google/uuid"
)

// StateID identifies one execution state for its whole lifetime.
type StateID = uuid.UUID

// State is one candidate path of program execution at a point in time.
// The scheduler treats it as an opaque handle plus the few attributes the
// ranking heuristics consume.
type State struct {
	// ID is unique per state. Forks always produce fresh IDs.
	ID StateID `json:"id"`

	// Parent is the state this one was stepped or forked from (zero for roots).
	Parent StateID `json:"parent"`

	// Addr is the program address the state is about to execute.
	Addr uint64 `json:"addr"`

	// BlockInsns is the instruction count of the basic block at Addr.
	BlockInsns int `json:"block_insns"`

	// Hooked reports whether Addr is intercepted by a model instead of being executed.
	Hooked bool `json:"hooked,omitempty"`

	// CallStack holds pending return addresses, innermost last.
	CallStack []uint64 `json:"call_stack,omitempty"`

	// Loops is the optional loop trip-count record. Nil when the engine
	// does not track loops.
	Loops *LoopRecord `json:"loops,omitempty"`

	// Depth counts the steps taken from the root state.
	Depth int `json:"depth"`
}

// NewState creates a root state at the given address.
func NewState(addr uint64, blockInsns int) *State {
	return &State{
		ID:         uuid.New(),
		Addr:       addr,
		BlockInsns: blockInsns,
		Loops:      NewLoopRecord(),
	}
}

// Fork returns a successor of s with a fresh identity. The call stack and the
// loop record are copied, so the child can mutate them without affecting s or
// any sibling.
func (s *State) Fork() *State {
	child := *s
	child.ID = uuid.New()
	child.Parent = s.ID
	child.Depth = s.Depth + 1
	child.CallStack = slices.Clone(s.CallStack)
	child.Loops = s.Loops.Clone()
	return &child
}

// Copy returns a fresh root-like copy of s: new identity, same program point.
// Used to restart exploration from a remembered initial state.
func (s *State) Copy() *State {
	c := *s
	c.ID = uuid.New()
	c.Parent = uuid.Nil
	c.CallStack = slices.Clone(s.CallStack)
	c.Loops = s.Loops.Clone()
	return &c
}

// CallDepth returns the number of pending calls.
func (s *State) CallDepth() int {
	return len(s.CallStack)
}
