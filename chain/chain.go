package chain

// Chain is an ordered, append-only sequence of Blocks for one Section.
type Chain struct {
	blocks []Block
}

// Insert appends a new block built from (event, name, age).
func (c *Chain) Insert(event Event, name, age uint64) {
	c.blocks = append(c.blocks, NewBlock(event, name, age))
}

// Extend appends all of other's blocks after c's own, in order.
func (c *Chain) Extend(other Chain) {
	c.blocks = append(c.blocks, other.blocks...)
}

// Clone returns an independent copy of c, for seeding a child or merged
// Section (spec.md §4.5/§4.2) without aliasing the parent's backing array.
func (c Chain) Clone() Chain {
	cloned := make([]Block, len(c.blocks))
	copy(cloned, c.blocks)
	return Chain{blocks: cloned}
}

// LastLive returns the most recently appended Live block, if any.
func (c Chain) LastLive() (Block, bool) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i].Event == Live {
			return c.blocks[i], true
		}
	}
	return Block{}, false
}

// Len returns the number of blocks in the chain.
func (c Chain) Len() int {
	return len(c.blocks)
}

// Blocks returns the chain's blocks in insertion order. The returned slice
// must not be mutated by the caller.
func (c Chain) Blocks() []Block {
	return c.blocks
}
