package discover

import (
	"encoding/binary"
)

const (
	_AT_NULL         = 0
	_AT_PHDR         = 3
	_AT_PHENT        = 4
	_AT_PHNUM        = 5
	_AT_BASE         = 7
	_AT_ENTRY        = 9
	_AT_SYSINFO_EHDR = 33
)

// Auxv holds the auxiliary vector entries needed to find a process's own
// dynamic section.
type Auxv struct {
	Phdr  uint64
	Phent uint64
	Phnum uint64
	Base  uint64
	Entry uint64
	Vdso  uint64
}

func ParseAuxv(auxv []byte, ptrSize int, order binary.ByteOrder) Auxv {
	var a Auxv
	word := func(b []byte) uint64 {
		if ptrSize == 4 {
			return uint64(order.Uint32(b))
		}
		return order.Uint64(b)
	}
	for i := 0; i+2*ptrSize <= len(auxv); i += ptrSize * 2 {
		tag := word(auxv[i:])
		val := word(auxv[i+ptrSize:])
		switch tag {
		case _AT_NULL:
			return a
		case _AT_PHDR:
			a.Phdr = val
		case _AT_PHENT:
			a.Phent = val
		case _AT_PHNUM:
			a.Phnum = val
		case _AT_BASE:
			a.Base = val
		case _AT_ENTRY:
			a.Entry = val
		case _AT_SYSINFO_EHDR:
			a.Vdso = val
		}
	}
	return a
}
