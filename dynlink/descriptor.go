package dynlink

import (
	"fmt"
	"iter"
	"strings"

	"github.com/johannst/fun-with-elf/internal/memstream"
	"github.com/johannst/fun-with-elf/memory"
)

// DefaultVirtualDSOMarkers name the modules the kernel maps into every
// process without a file behind them.
var DefaultVirtualDSOMarkers = []string{"linux-vdso.so", "linux-gate.so"}

// linkMap mirrors the public head of the dynamic linker's struct link_map.
type linkMap struct {
	Addr uintptr
	Name string
	Ld   uintptr
	Next uintptr
	Prev uintptr
}

// Descriptor is one entry of the process's module chain.
type Descriptor struct {
	Addr    memory.Pointer
	Base    uint64
	Name    string
	Dynamic memory.Pointer
	Next    memory.Pointer
	Prev    memory.Pointer
}

func ReadDescriptor(ptr memory.Pointer) (*Descriptor, error) {
	if ptr.IsNil() {
		return nil, ErrInvalidHandle
	}
	var lm linkMap
	err := memstream.Extract(ptr, &lm)
	if err != nil {
		return nil, fmt.Errorf("%w: descriptor at %#x: %w", ErrInvalidHandle, ptr.Address(), err)
	}
	mem := ptr.Memory()
	return &Descriptor{
		Addr:    ptr,
		Base:    uint64(lm.Addr),
		Name:    lm.Name,
		Dynamic: memory.ToPointer(mem, uint64(lm.Ld)),
		Next:    memory.ToPointer(mem, uint64(lm.Next)),
		Prev:    memory.ToPointer(mem, uint64(lm.Prev)),
	}, nil
}

// DisplayName returns the load name, or NoName for the empty load name the
// main executable usually carries.
func (d *Descriptor) DisplayName() string {
	if d.Name == "" {
		return NoName
	}
	return d.Name
}

// Walk follows the chain starting at head until the null link. The chain is
// read while iterating; one iteration is one snapshot.
func Walk(head memory.Pointer) (iter.Seq2[*Descriptor, error], error) {
	if head.IsNil() {
		return nil, ErrInvalidHandle
	}
	return func(yield func(*Descriptor, error) bool) {
		for ptr := head; !ptr.IsNil(); {
			d, err := ReadDescriptor(ptr)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(d, nil) {
				return
			}
			ptr = d.Next
		}
	}, nil
}

// IsVirtualDSO reports whether d is the kernel supplied module. Without
// markers DefaultVirtualDSOMarkers are used.
func IsVirtualDSO(d *Descriptor, markers ...string) bool {
	if len(markers) == 0 {
		markers = DefaultVirtualDSOMarkers
	}
	for _, marker := range markers {
		if marker != "" && strings.Contains(d.Name, marker) {
			return true
		}
	}
	return false
}
