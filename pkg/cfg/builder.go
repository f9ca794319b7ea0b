package cfg

// Builder assembles a Graph block by block.
type Builder struct {
	entry    uint64
	hasEntry bool
	order    []uint64
	blocks   map[uint64]*BlockBuilder
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		blocks: make(map[uint64]*BlockBuilder),
	}
}

// Entry sets the entry address. Without it the first added block is the entry.
func (b *Builder) Entry(addr uint64) *Builder {
	b.entry = addr
	b.hasEntry = true
	return b
}

// Add creates the block at addr with the given instruction count.
// If the block already exists, it returns the existing builder.
func (b *Builder) Add(addr uint64, insns int) *BlockBuilder {
	if bb, ok := b.blocks[addr]; ok {
		return bb
	}
	bb := &BlockBuilder{block: Block{Addr: addr, Insns: insns}}
	b.blocks[addr] = bb
	b.order = append(b.order, addr)
	if !b.hasEntry && len(b.order) == 1 {
		b.entry = addr
	}
	return bb
}

// Build validates the blocks and compiles them into a Graph.
func (b *Builder) Build() (*Graph, error) {
	blocks := make([]Block, 0, len(b.order))
	for _, addr := range b.order {
		blocks = append(blocks, b.blocks[addr].block)
	}
	return New(b.entry, blocks...)
}

// BlockBuilder provides a fluent API for configuring a block.
type BlockBuilder struct {
	block Block
}

// Name labels the block.
func (n *BlockBuilder) Name(name string) *BlockBuilder {
	n.block.Name = name
	return n
}

// Go adds an outgoing edge to the target block.
func (n *BlockBuilder) Go(targets ...uint64) *BlockBuilder {
	n.block.Succ = append(n.block.Succ, targets...)
	return n
}

// Call ends the block with a call to callee returning to returnSite.
func (n *BlockBuilder) Call(callee, returnSite uint64) *BlockBuilder {
	n.block.Call = callee
	n.block.Succ = []uint64{returnSite}
	return n
}

// Return ends the block with a return to the caller.
func (n *BlockBuilder) Return() *BlockBuilder {
	n.block.Return = true
	n.block.Succ = nil
	return n
}

// Hook marks the block as intercepted by a model.
func (n *BlockBuilder) Hook() *BlockBuilder {
	n.block.Hooked = true
	return n
}

// Unconstrained ends the block with a jump through a symbolic target.
func (n *BlockBuilder) Unconstrained() *BlockBuilder {
	n.block.Unconstrained = true
	return n
}

// Fault makes executing the block fail with the given message.
func (n *BlockBuilder) Fault(msg string) *BlockBuilder {
	n.block.Fault = msg
	return n
}

// Build returns the underlying Block.
func (n *BlockBuilder) Build() Block {
	return n.block
}
