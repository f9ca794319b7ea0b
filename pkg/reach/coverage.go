package reach

import "slices"

// Coverage is the set of addresses reached by any state of one session.
// It only grows; Reset clears it when the session restarts.
// Each growth bumps Version so dependent caches know to invalidate.
type Coverage struct {
	addrs   map[uint64]struct{}
	version uint64
}

// NewCoverage returns an empty coverage set.
func NewCoverage() *Coverage {
	return &Coverage{addrs: make(map[uint64]struct{})}
}

// Add records addr and reports whether it was new.
func (c *Coverage) Add(addr uint64) bool {
	if _, ok := c.addrs[addr]; ok {
		return false
	}
	c.addrs[addr] = struct{}{}
	c.version++
	return true
}

// Has reports whether addr has been reached.
func (c *Coverage) Has(addr uint64) bool {
	_, ok := c.addrs[addr]
	return ok
}

// Len returns the number of covered addresses.
func (c *Coverage) Len() int { return len(c.addrs) }

// Version changes every time the set changes.
func (c *Coverage) Version() uint64 { return c.version }

// Addrs returns the covered addresses in ascending order.
func (c *Coverage) Addrs() []uint64 {
	out := make([]uint64, 0, len(c.addrs))
	for addr := range c.addrs {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}

// Reset empties the set.
func (c *Coverage) Reset() {
	clear(c.addrs)
	c.version++
}
