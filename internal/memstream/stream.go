package memstream

import (
	"github.com/johannst/fun-with-elf/encoding"
	"github.com/johannst/fun-with-elf/memory"
)

type pointerStream struct {
	ptr  memory.Pointer
	size int
}

// PointerStream decodes forward from ptr using the pointer width of the
// memory ptr belongs to.
func PointerStream(ptr memory.Pointer) encoding.Stream {
	return &pointerStream{ptr, int(ptr.Memory().PointerSize())}
}

func (ps *pointerStream) BlockSize() int {
	return ps.size
}

func (ps *pointerStream) Offset() uint64 {
	return ps.ptr.Address()
}

func (ps *pointerStream) Skip(n int) error {
	ps.ptr = ps.ptr.Add(uint64(n))
	return nil
}

func (ps *pointerStream) Read(b []byte) (int, error) {
	n, err := ps.ptr.ReadAt(b, 0)
	if err == nil {
		ps.Skip(n)
	}
	return n, err
}

func (ps *pointerStream) ReadString() (string, error) {
	str, err := ps.ptr.MemReadString()
	if err == nil {
		ps.Skip(len(str) + 1)
	}
	return str, err
}

func (ps *pointerStream) ReadStream() (encoding.Stream, error) {
	ptr, err := ps.ptr.MemReadPointer()
	if err != nil {
		return nil, err
	}
	ps.Skip(ps.size)
	return &pointerStream{ptr, ps.size}, nil
}

// Extract decodes the record at ptr into val.
func Extract(ptr memory.Pointer, val any) error {
	return encoding.Decode(PointerStream(ptr), val)
}

// Sizeof returns the size val's type occupies in mem.
func Sizeof(mem memory.Memory, val any) uint64 {
	return uint64(encoding.DecodeSize(int(mem.PointerSize()), val))
}
