package memory

import (
	"encoding/binary"
	"unsafe"
)

type ByteOrder int

const (
	BO_LITTLE_ENDIAN ByteOrder = iota
	BO_BIG_ENDIAN
)

func (bo ByteOrder) Binary() binary.ByteOrder {
	if bo == BO_BIG_ENDIAN {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type MemProt int

const (
	MEM_PROT_NONE MemProt = 0
	MEM_PROT_READ MemProt = 1 << (iota - 1)
	MEM_PROT_WRITE
	MEM_PROT_EXEC

	MEM_PROT_ALL = MEM_PROT_READ | MEM_PROT_WRITE | MEM_PROT_EXEC
)

type Region struct {
	Addr, Size uint64
	Prot       MemProt
	Name       string
}

func (r Region) Contains(addr, size uint64) bool {
	return addr >= r.Addr && size <= r.Size && addr-r.Addr <= r.Size-size
}

// Memory is a read-only view of an address space. Nothing in this module
// writes through it.
type Memory interface {
	PointerSize() uint64
	ByteOrder() ByteOrder
	MemRegions() ([]Region, error)
	MemRead(addr, size uint64) ([]byte, error)
	MemReadPtr(addr, size uint64, ptr unsafe.Pointer) error
}

// HostPointerSize is the word size of the inspecting process.
const HostPointerSize = uint64(unsafe.Sizeof(uintptr(0)))

func FindRegion(regions []Region, addr, size uint64) (Region, bool) {
	for _, r := range regions {
		if r.Contains(addr, size) {
			return r, true
		}
	}
	return Region{}, false
}
