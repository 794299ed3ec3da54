package memory

import (
	"slices"
	"unsafe"
)

type Uintptr32 = uint32
type Uintptr64 = uint64

// stringChunk bounds a single string read; chunks are aligned so a read never
// crosses into the next page.
const stringChunk = 0x10

type Pointer struct {
	mem  Memory
	addr uint64
}

func ToPointer(mem Memory, addr uint64) Pointer {
	return Pointer{mem, addr}
}

func (p Pointer) Memory() Memory {
	return p.mem
}

func (p Pointer) IsNil() bool {
	return p.addr == 0
}

func (p Pointer) Address() uint64 {
	return p.addr
}

func (p Pointer) Add(offset uint64) Pointer {
	return Pointer{p.mem, p.addr + offset}
}

func (p Pointer) Sub(offset uint64) Pointer {
	return Pointer{p.mem, p.addr - offset}
}

func (p Pointer) MemRead(size uint64) ([]byte, error) {
	return p.mem.MemRead(p.addr, size)
}

func (p Pointer) MemReadPtr(size uint64, ptr unsafe.Pointer) error {
	return p.mem.MemReadPtr(p.addr, size, ptr)
}

func (p Pointer) MemReadUint32() (uint32, error) {
	var raw [4]byte
	err := p.MemReadPtr(4, unsafe.Pointer(&raw))
	if err != nil {
		return 0, err
	}
	return p.mem.ByteOrder().Binary().Uint32(raw[:]), nil
}

func (p Pointer) MemReadString() (string, error) {
	return p.readString(-1)
}

// MemReadStringN reads a NUL-terminated string of at most max bytes. A string
// that is not terminated within max bytes is returned truncated.
func (p Pointer) MemReadStringN(max uint64) (string, error) {
	return p.readString(int64(max))
}

func (p Pointer) readString(limit int64) (string, error) {
	var data []byte
	var buf [stringChunk]byte
	for begin := p.addr; limit != 0; {
		size := Align(begin+1, stringChunk) - begin
		if limit > 0 && int64(size) > limit {
			size = uint64(limit)
		}
		chunk := buf[:size]
		err := p.mem.MemReadPtr(begin, size, unsafe.Pointer(unsafe.SliceData(chunk)))
		if err != nil {
			return "", err
		}
		if i := slices.Index(chunk, 0); i != -1 {
			data = append(data, chunk[:i]...)
			break
		}
		data = append(data, chunk...)
		begin += size
		if limit > 0 {
			limit -= int64(size)
		}
	}
	return string(data), nil
}

func (p Pointer) MemReadPointer() (ptr Pointer, err error) {
	var size uint64
	switch p.mem.PointerSize() {
	case 4:
		size = 4
	case 8:
		size = 8
	default:
		err = ErrArchUnsupported
		return
	}
	var raw [8]byte
	err = p.MemReadPtr(size, unsafe.Pointer(&raw))
	if err != nil {
		return
	}
	bo := p.mem.ByteOrder().Binary()
	var addr uint64
	if size == 4 {
		addr = uint64(bo.Uint32(raw[:4]))
	} else {
		addr = bo.Uint64(raw[:])
	}
	ptr.mem, ptr.addr = p.mem, addr
	return
}

func (p Pointer) ReadAt(b []byte, off int64) (n int, err error) {
	if len(b) == 0 {
		return 0, nil
	}
	err = p.mem.MemReadPtr(p.addr+uint64(off), uint64(len(b)), unsafe.Pointer(unsafe.SliceData(b)))
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
