package elftest

import (
	"github.com/johannst/fun-with-elf/memory"
)

// Module describes one link_map entry.
type Module struct {
	Name    string
	Base    uint64
	Dynamic uint64
	// NullName stores a NULL l_name instead of a pointer to "".
	NullName bool
}

// Chain maps a link_map record per module, linked in order, and returns the
// address of every record. The first record is the chain head.
func (b *Builder) Chain(modules ...Module) []uint64 {
	recordSize := 5 * b.PointerSize()
	addrs := make([]uint64, len(modules))
	names := make([]uint64, len(modules))
	for i, m := range modules {
		if !m.NullName {
			names[i] = b.String(m.Name)
		}
		addrs[i] = b.Alloc(make([]byte, recordSize))
	}
	for i, m := range modules {
		var next, prev uint64
		if i+1 < len(modules) {
			next = addrs[i+1]
		}
		if i > 0 {
			prev = addrs[i-1]
		}
		b.patch(addrs[i], b.Words(m.Base, names[i], m.Dynamic, next, prev))
	}
	return addrs
}

func (b *Builder) patch(addr uint64, data []byte) {
	b.Image.Unmap(addr)
	if err := b.Image.Map(addr, data); err != nil {
		panic(err)
	}
}

func (b *Builder) Head(addrs []uint64) memory.Pointer {
	if len(addrs) == 0 {
		return b.Pointer(0)
	}
	return b.Pointer(addrs[0])
}
