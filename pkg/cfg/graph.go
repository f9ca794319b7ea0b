package cfg

import (
	"fmt"
	"slices"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
)

// Block is one basic block together with how control leaves it.
type Block struct {
	Addr  uint64 `yaml:"addr" json:"addr"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Insns int    `yaml:"insns" json:"insns"`

	// Succ lists the blocks control may flow to. For a call block it holds
	// the return site.
	Succ []uint64 `yaml:"succ,omitempty" json:"succ,omitempty"`

	// Call is the callee of a block ending in a call (zero for none).
	Call uint64 `yaml:"call,omitempty" json:"call,omitempty"`

	// Return marks a block ending in a return.
	Return bool `yaml:"return,omitempty" json:"return,omitempty"`

	Hooked bool `yaml:"hooked,omitempty" json:"hooked,omitempty"`

	// Unconstrained marks a block ending in a jump through a symbolic target.
	Unconstrained bool `yaml:"unconstrained,omitempty" json:"unconstrained,omitempty"`

	// Fault is the engine error raised when a state executes this block.
	Fault string `yaml:"fault,omitempty" json:"fault,omitempty"`
}

// Edges returns every static successor of the block, callee first.
func (b Block) Edges() []uint64 {
	if b.Call == 0 {
		return b.Succ
	}
	return append([]uint64{b.Call}, b.Succ...)
}

// Graph is an immutable control-flow graph. It implements ports.Graph.
type Graph struct {
	entry  uint64
	blocks map[uint64]Block
	loops  []ports.Loop
	body   map[uint64]map[uint64]bool
}

var _ ports.Graph = (*Graph)(nil)

// New validates the blocks and computes the natural loops reachable from entry.
func New(entry uint64, blocks ...Block) (*Graph, error) {
	g := &Graph{
		entry:  entry,
		blocks: make(map[uint64]Block, len(blocks)),
	}
	for _, b := range blocks {
		if _, dup := g.blocks[b.Addr]; dup {
			return nil, fmt.Errorf("%w: duplicate block %#x", domain.ErrInvalidGraph, b.Addr)
		}
		if b.Insns < 0 {
			return nil, fmt.Errorf("%w: block %#x has negative instruction count", domain.ErrInvalidGraph, b.Addr)
		}
		b.Succ = slices.Clone(b.Succ)
		g.blocks[b.Addr] = b
	}
	if err := g.validate(); err != nil {
		return nil, err
	}

	g.loops = naturalLoops(g)
	g.body = make(map[uint64]map[uint64]bool, len(g.loops))
	for _, l := range g.loops {
		set := make(map[uint64]bool, len(l.Body))
		for _, addr := range l.Body {
			set[addr] = true
		}
		g.body[l.Entry] = set
	}
	return g, nil
}

func (g *Graph) validate() error {
	if _, ok := g.blocks[g.entry]; !ok {
		return fmt.Errorf("%w: entry %#x is not a block", domain.ErrInvalidGraph, g.entry)
	}
	for _, b := range g.blocks {
		for _, to := range b.Edges() {
			if _, ok := g.blocks[to]; !ok {
				return fmt.Errorf("%w: block %#x jumps to unknown block %#x", domain.ErrInvalidGraph, b.Addr, to)
			}
		}
		if b.Return && (len(b.Succ) > 0 || b.Call != 0) {
			return fmt.Errorf("%w: return block %#x has successors", domain.ErrInvalidGraph, b.Addr)
		}
		if b.Call != 0 && len(b.Succ) != 1 {
			return fmt.Errorf("%w: call block %#x needs exactly one return site", domain.ErrInvalidGraph, b.Addr)
		}
	}
	return nil
}

// Entry returns the address execution starts from.
func (g *Graph) Entry() uint64 { return g.entry }

// Node looks up the block at addr.
func (g *Graph) Node(addr uint64) (ports.Node, bool) {
	b, ok := g.blocks[addr]
	if !ok {
		return ports.Node{}, false
	}
	return ports.Node{Addr: b.Addr, Name: b.Name, Insns: b.Insns, Hooked: b.Hooked}, true
}

// Block returns the full block at addr.
func (g *Graph) Block(addr uint64) (Block, bool) {
	b, ok := g.blocks[addr]
	return b, ok
}

// Blocks returns every block sorted by address.
func (g *Graph) Blocks() []Block {
	out := make([]Block, 0, len(g.blocks))
	for _, b := range g.blocks {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Block) int {
		switch {
		case a.Addr < b.Addr:
			return -1
		case a.Addr > b.Addr:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.blocks) }

// Successors returns the static successors of addr, callee first.
func (g *Graph) Successors(addr uint64) []uint64 {
	return slices.Clone(g.blocks[addr].Edges())
}

// Loops returns every natural loop, outermost entries first.
func (g *Graph) Loops() []ports.Loop {
	return slices.Clone(g.loops)
}

// IsLoopEntry reports whether addr heads a natural loop.
func (g *Graph) IsLoopEntry(addr uint64) bool {
	_, ok := g.body[addr]
	return ok
}

// InLoop reports whether addr belongs to the body of the loop headed by entry.
func (g *Graph) InLoop(entry, addr uint64) bool {
	return g.body[entry][addr]
}

// IsBackEdge reports whether from->to closes the loop headed by to.
func (g *Graph) IsBackEdge(from, to uint64) bool {
	return g.body[to][from]
}
