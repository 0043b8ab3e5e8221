package dcache

import "github.com/janweinstock/or1kiss/core/decode"

// Size selects how many bytes of instruction-address space the cache
// covers, expressed as log2(bytes). Off disables the cache entirely: every
// lookup misses and Insert is a no-op, as selected by the CLI's -z flag,
// useful where stale cached entries would otherwise mask self-modifying
// code.
type Size uint

const (
	Off      Size = 0
	Size1K   Size = 10
	Size4K   Size = 12
	Size16K  Size = 14
	Size64K  Size = 16
	Size256K Size = 18
	Size1M   Size = 20
	Size4M   Size = 22
	Size16M  Size = 24
	Size64M  Size = 26
	Size256M Size = 28
)

type entry struct {
	valid bool
	addr  uint32
	insn  decode.Instruction
}

// Cache is a direct-mapped map from a 4-byte-aligned address to its
// decoded instruction. Two different addresses that alias to the same
// slot simply evict one another; there is no way to detect this short of
// a full lookup, which is the point of keeping the table direct-mapped.
type Cache struct {
	entries []entry
	mask    uint32

	hits, misses, compiles uint64
}

// New builds a cache sized in bytes-of-address-space, as given by size.
func New(size Size) *Cache {
	if size == Off {
		return &Cache{}
	}
	n := uint32(1) << (size - 2)
	return &Cache{entries: make([]entry, n), mask: n - 1}
}

func (c *Cache) index(addr uint32) uint32 {
	return (addr >> 2) & c.mask
}

// Lookup returns the cached instruction for addr, if any. The caller
// still owns re-validating the entry (e.g. against a live word from
// memory) if it suspects self-modifying code; this cache never does that
// itself.
func (c *Cache) Lookup(addr uint32) (decode.Instruction, bool) {
	if len(c.entries) == 0 {
		c.misses++
		return decode.Instruction{}, false
	}
	e := &c.entries[c.index(addr)]
	if e.valid && e.addr == addr {
		c.hits++
		return e.insn, true
	}
	c.misses++
	return decode.Instruction{}, false
}

// Insert stores in as the decode of addr, evicting whatever previously
// lived at that slot.
func (c *Cache) Insert(addr uint32, in decode.Instruction) {
	if len(c.entries) == 0 {
		return
	}
	c.compiles++
	c.entries[c.index(addr)] = entry{valid: true, addr: addr, insn: in}
}

// InvalidateAll drops every cached entry, needed after a write to memory
// that might alias a cached instruction (self-modifying code) or after
// reconfiguring the cache size.
func (c *Cache) InvalidateAll() {
	for i := range c.entries {
		c.entries[i] = entry{}
	}
}

// InvalidateBlock drops the single entry for addr, if present, and is
// enough to keep the cache correct for a store that targets exactly one
// instruction word.
func (c *Cache) InvalidateBlock(addr uint32) {
	if len(c.entries) == 0 {
		return
	}
	e := &c.entries[c.index(addr)]
	if e.addr == addr {
		*e = entry{}
	}
}

// HitRate reports the fraction of Lookup calls that found a cached
// instruction, for statistics reporting such as the dashboard.
func (c *Cache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Compiles is the number of instructions actually decoded (cache misses
// that were followed by an Insert), exposed for statistics reporting.
func (c *Cache) Compiles() uint64 { return c.compiles }
