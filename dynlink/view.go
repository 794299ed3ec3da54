package dynlink

import (
	"fmt"

	"github.com/johannst/fun-with-elf/memory"
)

// hashWordSize is the size of ElfW(Word), 4 bytes for both ELF classes.
const hashWordSize = 4

// WordArray is a window onto count consecutive hash table words.
type WordArray struct {
	base  memory.Pointer
	count uint32
}

func (a WordArray) Len() uint32 {
	return a.count
}

func (a WordArray) Address() uint64 {
	return a.base.Address()
}

func (a WordArray) At(i uint32) (uint32, error) {
	if i >= a.count {
		return 0, fmt.Errorf("%w: word %d of %d", ErrOutOfBounds, i, a.count)
	}
	return a.base.Add(uint64(i) * hashWordSize).MemReadUint32()
}

// HashTable is the SysV hash table of one module:
//
//	nbucket | nchain | bucket[nbucket] | chain[nchain]
type HashTable struct {
	NumBuckets uint32
	NumChains  uint32
	Buckets    WordArray
	Chains     WordArray
}

func readHashTable(ptr memory.Pointer) (HashTable, error) {
	nbucket, err := ptr.MemReadUint32()
	if err != nil {
		return HashTable{}, err
	}
	nchain, err := ptr.Add(hashWordSize).MemReadUint32()
	if err != nil {
		return HashTable{}, err
	}
	buckets := ptr.Add(2 * hashWordSize)
	chains := buckets.Add(uint64(nbucket) * hashWordSize)
	return HashTable{
		NumBuckets: nbucket,
		NumChains:  nchain,
		Buckets:    WordArray{buckets, nbucket},
		Chains:     WordArray{chains, nchain},
	}, nil
}

// SymbolTable addresses symbol records by index using the module's declared
// entry size.
type SymbolTable struct {
	Base   memory.Pointer
	Stride uint64
}

// NameOffset returns st_name of record i, the first field of both Elf32_Sym
// and Elf64_Sym.
func (st SymbolTable) NameOffset(i uint32) (uint32, error) {
	return st.Base.Add(uint64(i) * st.Stride).MemReadUint32()
}

type StringTable struct {
	Base memory.Pointer
	Size uint64
}

func (st StringTable) InBounds(off uint32) bool {
	return uint64(off) < st.Size
}

// String returns the NUL-terminated string at off, cut at the table end.
func (st StringTable) String(off uint32) (string, error) {
	if !st.InBounds(off) {
		return "", fmt.Errorf("%w: string offset %d of %d", ErrOutOfBounds, off, st.Size)
	}
	return st.Base.Add(uint64(off)).MemReadStringN(st.Size - uint64(off))
}

// Equal reports whether the string at off is exactly name. At most
// len(name)+1 bytes are read.
func (st StringTable) Equal(off uint32, name string) (bool, error) {
	if !st.InBounds(off) {
		return false, fmt.Errorf("%w: string offset %d of %d", ErrOutOfBounds, off, st.Size)
	}
	n := min(uint64(len(name))+1, st.Size-uint64(off))
	s, err := st.Base.Add(uint64(off)).MemReadStringN(n)
	if err != nil {
		return false, err
	}
	return s == name, nil
}
