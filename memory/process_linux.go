//go:build linux

package memory

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// Process reads the address space of a live process. The mapping table is
// taken once when the process is opened; callers inspecting a process that
// loads or unloads modules afterwards have to open it again.
type Process struct {
	pid     int
	regions []Region
}

func Self() (*Process, error) {
	return OpenProcess(os.Getpid())
}

func OpenProcess(pid int) (*Process, error) {
	proc, err := procfs.NewProc(pid)
	if err != nil {
		return nil, errors.Wrapf(err, "open process %d", pid)
	}
	procMaps, err := proc.ProcMaps()
	if err != nil {
		return nil, errors.Wrapf(err, "read mappings of process %d", pid)
	}
	regions := make([]Region, 0, len(procMaps))
	for _, m := range procMaps {
		regions = append(regions, Region{
			Addr: uint64(m.StartAddr),
			Size: uint64(m.EndAddr - m.StartAddr),
			Prot: toProt(m.Perms),
			Name: m.Pathname,
		})
	}
	return &Process{pid: pid, regions: regions}, nil
}

func toProt(perms *procfs.ProcMapPermissions) MemProt {
	prot := MEM_PROT_NONE
	if perms == nil {
		return prot
	}
	if perms.Read {
		prot |= MEM_PROT_READ
	}
	if perms.Write {
		prot |= MEM_PROT_WRITE
	}
	if perms.Execute {
		prot |= MEM_PROT_EXEC
	}
	return prot
}

func (p *Process) Pid() int {
	return p.pid
}

func (p *Process) PointerSize() uint64 {
	return HostPointerSize
}

func (p *Process) ByteOrder() ByteOrder {
	var probe uint16 = 1
	if *(*byte)(unsafe.Pointer(&probe)) == 0 {
		return BO_BIG_ENDIAN
	}
	return BO_LITTLE_ENDIAN
}

func (p *Process) MemRegions() ([]Region, error) {
	return p.regions, nil
}

func (p *Process) MemRead(addr, size uint64) ([]byte, error) {
	data := make([]byte, size)
	err := p.MemReadPtr(addr, size, unsafe.Pointer(unsafe.SliceData(data)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Process) MemReadPtr(addr, size uint64, ptr unsafe.Pointer) error {
	if size == 0 {
		return nil
	}
	if !p.readable(addr, size) {
		return fmt.Errorf("%w: %#x+%d", ErrAddressInvalid, addr, size)
	}
	local := []unix.Iovec{{Base: (*byte)(ptr)}}
	local[0].SetLen(int(size))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: int(size)}}
	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	if err != nil {
		return errors.Wrapf(err, "process_vm_readv %#x+%d", addr, size)
	} else if uint64(n) != size {
		return fmt.Errorf("%w: short read at %#x (%d/%d)", ErrAddressInvalid, addr, n, size)
	}
	return nil
}

// readable reports whether [addr, addr+size) is covered by consecutive
// readable mappings.
func (p *Process) readable(addr, size uint64) bool {
	end := addr + size
	for addr < end {
		r, ok := FindRegion(p.regions, addr, 1)
		if !ok || r.Prot&MEM_PROT_READ == 0 {
			return false
		}
		addr = r.Addr + r.Size
	}
	return true
}
