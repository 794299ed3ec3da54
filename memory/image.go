package memory

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"unsafe"
)

var ErrRegionOverlap = errors.New("region overlap")

// Image is an address space made of explicitly mapped byte regions. It stands
// in for a live process wherever a layout has to be built by hand.
type Image struct {
	ptrSize uint64
	order   ByteOrder
	mu      sync.RWMutex
	maps    map[uint64][]byte
}

func NewImage(ptrSize uint64) *Image {
	return &Image{
		ptrSize: ptrSize,
		order:   BO_LITTLE_ENDIAN,
		maps:    make(map[uint64][]byte),
	}
}

func (img *Image) PointerSize() uint64 {
	return img.ptrSize
}

func (img *Image) ByteOrder() ByteOrder {
	return img.order
}

// Map places data at addr. The image keeps data, later changes made by the
// caller are visible through reads.
func (img *Image) Map(addr uint64, data []byte) error {
	if addr == 0 || len(data) == 0 {
		return ErrAddressInvalid
	}
	end := addr + uint64(len(data))
	img.mu.Lock()
	defer img.mu.Unlock()
	for start, block := range img.maps {
		if _, _, ok := calcOverlap(start, start+uint64(len(block)), addr, end); ok {
			return ErrRegionOverlap
		}
	}
	img.maps[addr] = data
	return nil
}

func (img *Image) Unmap(addr uint64) {
	img.mu.Lock()
	delete(img.maps, addr)
	img.mu.Unlock()
}

func (img *Image) MemRegions() ([]Region, error) {
	img.mu.RLock()
	defer img.mu.RUnlock()
	regions := make([]Region, 0, len(img.maps))
	for _, start := range slices.Sorted(maps.Keys(img.maps)) {
		regions = append(regions, Region{Addr: start, Size: uint64(len(img.maps[start])), Prot: MEM_PROT_READ})
	}
	return regions, nil
}

func (img *Image) MemRead(addr, size uint64) ([]byte, error) {
	data := make([]byte, size)
	err := img.MemReadPtr(addr, size, unsafe.Pointer(unsafe.SliceData(data)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (img *Image) MemReadPtr(addr, size uint64, ptr unsafe.Pointer) error {
	img.mu.RLock()
	defer img.mu.RUnlock()
	for start, block := range img.maps {
		r := Region{Addr: start, Size: uint64(len(block))}
		if !r.Contains(addr, size) {
			continue
		}
		off := addr - start
		copy(unsafe.Slice((*byte)(ptr), size), block[off:off+size])
		return nil
	}
	return ErrAddressInvalid
}

func calcOverlap(min1, max1, min2, max2 uint64) (uint64, uint64, bool) {
	if max1 <= min2 || max2 <= min1 {
		return 0, 0, false
	}
	overlapMin := max(min1, min2)
	overlapMax := min(max1, max2)
	return overlapMin, overlapMax, true
}
