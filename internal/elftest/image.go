// Package elftest lays out the in-memory structures of loaded ELF modules
// inside a memory.Image.
package elftest

import (
	"debug/elf"
	"encoding/binary"

	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/memory"
)

const (
	imageBase = 0x10000
	// allocations are separated by an unmapped gap so overruns fault
	allocGap   = 0x100
	allocAlign = 0x10
	// padding up to allocAlign, never mistaken for a terminator
	allocFill = 0xcc
)

type Builder struct {
	Image *memory.Image
	next  uint64
}

func NewBuilder(ptrSize uint64) *Builder {
	return &Builder{
		Image: memory.NewImage(ptrSize),
		next:  imageBase,
	}
}

func (b *Builder) PointerSize() uint64 {
	return b.Image.PointerSize()
}

func (b *Builder) Pointer(addr uint64) memory.Pointer {
	return memory.ToPointer(b.Image, addr)
}

// Alloc maps a copy of data and returns its address.
func (b *Builder) Alloc(data []byte) uint64 {
	if len(data) == 0 {
		data = []byte{0}
	}
	addr := b.next
	block := make([]byte, memory.Align(uint64(len(data)), allocAlign))
	copy(block, data)
	for i := len(data); i < len(block); i++ {
		block[i] = allocFill
	}
	err := b.Image.Map(addr, block)
	if err != nil {
		panic(err)
	}
	b.next = addr + uint64(len(block)) + allocGap
	return addr
}

func (b *Builder) String(s string) uint64 {
	return b.Alloc(append([]byte(s), 0))
}

// Words encodes values as pointer sized little endian words.
func (b *Builder) Words(values ...uint64) []byte {
	size := int(b.PointerSize())
	buf := make([]byte, size*len(values))
	for i, v := range values {
		if size == 4 {
			binary.LittleEndian.PutUint32(buf[i*size:], uint32(v))
		} else {
			binary.LittleEndian.PutUint64(buf[i*size:], v)
		}
	}
	return buf
}

func Words32(values ...uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// SymbolSize is the size of ElfW(Sym) for the builder's class.
func (b *Builder) SymbolSize() uint64 {
	if b.PointerSize() == 4 {
		return 16
	}
	return 24
}

type Dyn struct {
	Tag elf.DynTag
	Val uint64
}

// Dynamic maps a dynamic entry array, terminated by DT_NULL unless
// terminate is false.
func (b *Builder) Dynamic(entries []Dyn, terminate bool) uint64 {
	var values []uint64
	for _, e := range entries {
		values = append(values, uint64(e.Tag), e.Val)
	}
	if terminate {
		values = append(values, uint64(elf.DT_NULL), 0)
	}
	return b.Alloc(b.Words(values...))
}

// Tables holds the addresses of one module's resolution structures.
type Tables struct {
	Hash, SymTab, StrTab uint64
	SymEnt, StrSz        uint64
}

func (t Tables) Entries() []Dyn {
	return []Dyn{
		{elf.DT_HASH, t.Hash},
		{elf.DT_STRTAB, t.StrTab},
		{elf.DT_SYMTAB, t.SymTab},
		{elf.DT_STRSZ, t.StrSz},
		{elf.DT_SYMENT, t.SymEnt},
	}
}

// StringTable maps "\x00" followed by the NUL-terminated names and returns
// the table address, its size and the offset of every name.
func (b *Builder) StringTable(names []string) (uint64, uint64, []uint32) {
	blob := []byte{0}
	offsets := make([]uint32, len(names))
	for i, name := range names {
		offsets[i] = uint32(len(blob))
		blob = append(blob, name...)
		blob = append(blob, 0)
	}
	return b.Alloc(blob), uint64(len(blob)), offsets
}

// SymbolTable maps records whose st_name fields are nameOffsets; record 0
// is the null symbol unless nameOffsets says otherwise.
func (b *Builder) SymbolTable(nameOffsets []uint32, stride uint64) uint64 {
	buf := make([]byte, stride*uint64(len(nameOffsets)))
	for i, off := range nameOffsets {
		binary.LittleEndian.PutUint32(buf[uint64(i)*stride:], off)
	}
	return b.Alloc(buf)
}

func (b *Builder) HashTable(buckets, chains []uint32) uint64 {
	words := []uint32{uint32(len(buckets)), uint32(len(chains))}
	words = append(words, buckets...)
	words = append(words, chains...)
	return b.Alloc(Words32(words...))
}

// Exports builds the tables of a module exporting names, hashed into
// nbucket buckets the way the static linker does it.
func (b *Builder) Exports(names []string, nbucket uint32) Tables {
	strtab, strsz, offsets := b.StringTable(names)
	stride := b.SymbolSize()
	symtab := b.SymbolTable(append([]uint32{0}, offsets...), stride)
	buckets := make([]uint32, nbucket)
	chains := make([]uint32, len(names)+1)
	if nbucket != 0 {
		for i, name := range names {
			index := uint32(i + 1)
			h := dynlink.Hash(name) % nbucket
			chains[index] = buckets[h]
			buckets[h] = index
		}
	}
	return Tables{
		Hash:   b.HashTable(buckets, chains),
		SymTab: symtab,
		StrTab: strtab,
		SymEnt: stride,
		StrSz:  strsz,
	}
}
