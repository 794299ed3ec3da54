// Package discover locates the head of a process's module chain the way a
// debugger does: the executable's DT_DEBUG entry points at the dynamic
// linker's r_debug, whose r_map is the first link_map.
package discover

import (
	"debug/elf"
	"fmt"
	"io/fs"

	"github.com/pkg/errors"

	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/internal/memstream"
	"github.com/johannst/fun-with-elf/memory"
)

// rDebug mirrors the leading fields of struct r_debug.
type rDebug struct {
	Version int32
	Map     uintptr
}

func ReadAuxv(fsys fs.FS, pid int, mem memory.Memory) (Auxv, error) {
	raw, err := fs.ReadFile(fsys, fmt.Sprintf("proc/%d/auxv", pid))
	if err != nil {
		return Auxv{}, errors.Wrapf(err, "read auxv of process %d", pid)
	}
	return ParseAuxv(raw, int(mem.PointerSize()), mem.ByteOrder().Binary()), nil
}

// ProgramHeaders decodes the executable's program headers announced by auxv.
func ProgramHeaders(mem memory.Memory, auxv Auxv) ([]elf.ProgHeader, error) {
	if auxv.Phdr == 0 || auxv.Phnum == 0 {
		return nil, ErrNoProgramHeaders
	}
	ptr := memory.ToPointer(mem, auxv.Phdr)
	progs := make([]elf.ProgHeader, 0, auxv.Phnum)
	for i := uint64(0); i < auxv.Phnum; i++ {
		var prog elf.ProgHeader
		switch mem.PointerSize() {
		case 4:
			var p elf.Prog32
			if err := memstream.Extract(ptr, &p); err != nil {
				return nil, errors.Wrapf(err, "program header %d", i)
			}
			prog = elf.ProgHeader{Type: elf.ProgType(p.Type), Flags: elf.ProgFlag(p.Flags), Off: uint64(p.Off), Vaddr: uint64(p.Vaddr), Paddr: uint64(p.Paddr), Filesz: uint64(p.Filesz), Memsz: uint64(p.Memsz), Align: uint64(p.Align)}
		case 8:
			var p elf.Prog64
			if err := memstream.Extract(ptr, &p); err != nil {
				return nil, errors.Wrapf(err, "program header %d", i)
			}
			prog = elf.ProgHeader{Type: elf.ProgType(p.Type), Flags: elf.ProgFlag(p.Flags), Off: p.Off, Vaddr: p.Vaddr, Paddr: p.Paddr, Filesz: p.Filesz, Memsz: p.Memsz, Align: p.Align}
		default:
			return nil, memory.ErrArchUnsupported
		}
		progs = append(progs, prog)
		stride := auxv.Phent
		if stride == 0 {
			stride = memstream.Sizeof(mem, &elf.Prog64{})
			if mem.PointerSize() == 4 {
				stride = memstream.Sizeof(mem, &elf.Prog32{})
			}
		}
		ptr = ptr.Add(stride)
	}
	return progs, nil
}

// DynamicSection returns the runtime address of the executable's dynamic
// section.
func DynamicSection(mem memory.Memory, auxv Auxv) (memory.Pointer, error) {
	progs, err := ProgramHeaders(mem, auxv)
	if err != nil {
		return memory.Pointer{}, err
	}
	// address arithmetic wraps at the inspected process's word width
	mask := ^uint64(0)
	if mem.PointerSize() == 4 {
		mask = 1<<32 - 1
	}
	var bias uint64
	for _, prog := range progs {
		if prog.Type == elf.PT_PHDR {
			bias = (auxv.Phdr - prog.Vaddr) & mask
			break
		}
	}
	for _, prog := range progs {
		if prog.Type == elf.PT_DYNAMIC {
			return memory.ToPointer(mem, (bias+prog.Vaddr)&mask), nil
		}
	}
	return memory.Pointer{}, ErrNoDynamicSection
}

// FirstModule returns the first descriptor of the module chain of pid, read
// through mem. fsys is rooted at "/" and provides proc/<pid>/auxv.
func FirstModule(fsys fs.FS, pid int, mem memory.Memory) (memory.Pointer, error) {
	auxv, err := ReadAuxv(fsys, pid, mem)
	if err != nil {
		return memory.Pointer{}, err
	}
	dynamic, err := DynamicSection(mem, auxv)
	if err != nil {
		return memory.Pointer{}, err
	}
	return HeadFromDynamic(dynamic)
}

// HeadFromDynamic follows DT_DEBUG of the dynamic section at dynamic to the
// chain head.
func HeadFromDynamic(dynamic memory.Pointer) (memory.Pointer, error) {
	mem := dynamic.Memory()
	for dyn, err := range dynlink.Entries(dynamic) {
		if err != nil {
			return memory.Pointer{}, err
		} else if dyn.Tag != elf.DT_DEBUG {
			continue
		}
		if dyn.Val == 0 {
			return memory.Pointer{}, ErrNotInitialized
		}
		var r rDebug
		if err := memstream.Extract(memory.ToPointer(mem, dyn.Val), &r); err != nil {
			return memory.Pointer{}, errors.Wrap(err, "read r_debug")
		}
		if r.Map == 0 {
			return memory.Pointer{}, ErrNotInitialized
		}
		return memory.ToPointer(mem, uint64(r.Map)), nil
	}
	return memory.Pointer{}, ErrNoDebugEntry
}
