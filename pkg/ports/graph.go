package ports

// Node is one basic block of a control-flow graph.
type Node struct {
	Addr uint64
	Name string

	// Insns is the number of instructions in the block. Zero when the block
	// could not be lifted (for example, a hooked address).
	Insns int

	// Hooked marks addresses intercepted by a model instead of executed code.
	Hooked bool
}

// Loop is a natural loop: a single entry block and the blocks that can reach
// a back edge into it without leaving through the entry.
type Loop struct {
	Entry uint64
	Body  []uint64
}

// Graph is the control-flow graph provider. It is built once per session
// and only read afterwards.
type Graph interface {
	// Entry returns the address execution starts from.
	Entry() uint64

	// Node looks up the block containing addr.
	Node(addr uint64) (Node, bool)

	// Successors returns the addresses control can flow to from the block at addr.
	Successors(addr uint64) []uint64

	// Loops returns every natural loop of the graph.
	Loops() []Loop
}
