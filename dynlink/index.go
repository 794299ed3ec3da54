package dynlink

import (
	"fmt"
)

// UndefinedIndex terminates a hash chain and names the reserved null symbol.
const UndefinedIndex = 0

type Symbol struct {
	Index uint32
	Name  string
}

type SymbolIter interface {
	Symbols(yield func(Symbol) bool)
}

// Index answers "does this module export name" the way the dynamic linker
// does, through the module's SysV hash table. It only holds views into the
// inspected memory and is immutable.
type Index struct {
	desc   *Descriptor
	name   string
	hash   HashTable
	symtab SymbolTable
	strtab StringTable
}

func (idx *Index) Name() string {
	return idx.name
}

// Descriptor returns the chain entry the index was parsed from.
func (idx *Index) Descriptor() *Descriptor {
	return idx.desc
}

func (idx *Index) NumBuckets() uint32 {
	return idx.hash.NumBuckets
}

func (idx *Index) NumChains() uint32 {
	return idx.hash.NumChains
}

func (idx *Index) HashTable() HashTable {
	return idx.hash
}

func (idx *Index) SymbolTable() SymbolTable {
	return idx.symtab
}

func (idx *Index) StringTable() StringTable {
	return idx.strtab
}

// chain yields the symbol indexes linked from head. A cursor outside the
// chain array ends the chain, and no chain is longer than the array.
func (idx *Index) chain(head uint32, yield func(uint32) bool) {
	steps := uint32(0)
	for i := head; i != UndefinedIndex; steps++ {
		if i >= idx.hash.NumChains || steps >= idx.hash.NumChains {
			return
		}
		if !yield(i) {
			return
		}
		next, err := idx.hash.Chains.At(i)
		if err != nil {
			return
		}
		i = next
	}
}

// Lookup returns the symbol table index of name.
func (idx *Index) Lookup(name string) (uint32, error) {
	if idx.hash.NumBuckets == 0 {
		return UndefinedIndex, ErrSymbolNotFound
	}
	head, err := idx.hash.Buckets.At(Hash(name) % idx.hash.NumBuckets)
	if err != nil {
		return UndefinedIndex, fmt.Errorf("%w: %w", ErrSymbolNotFound, err)
	}
	found := uint32(UndefinedIndex)
	var readErr error
	idx.chain(head, func(i uint32) bool {
		off, err := idx.symtab.NameOffset(i)
		if err != nil {
			readErr = err
			return false
		}
		if !idx.strtab.InBounds(off) {
			return true
		}
		ok, err := idx.strtab.Equal(off, name)
		if err != nil {
			readErr = err
			return false
		} else if ok {
			found = i
			return false
		}
		return true
	})
	if found != UndefinedIndex {
		return found, nil
	} else if readErr != nil {
		return UndefinedIndex, fmt.Errorf("%w: %w", ErrSymbolNotFound, readErr)
	}
	return UndefinedIndex, ErrSymbolNotFound
}

func (idx *Index) Contains(name string) bool {
	_, err := idx.Lookup(name)
	return err == nil
}

// symbol resolves the name of record i. Records whose name lies outside the
// string table are reported as absent.
func (idx *Index) symbol(i uint32) (Symbol, bool) {
	off, err := idx.symtab.NameOffset(i)
	if err != nil || !idx.strtab.InBounds(off) {
		return Symbol{}, false
	}
	name, err := idx.strtab.String(off)
	if err != nil {
		return Symbol{}, false
	}
	return Symbol{Index: i, Name: name}, true
}

// Symbols yields every name reachable through the hash table, in bucket then
// chain order.
func (idx *Index) Symbols(yield func(Symbol) bool) {
	for b := uint32(0); b < idx.hash.NumBuckets; b++ {
		head, err := idx.hash.Buckets.At(b)
		if err != nil {
			return
		} else if head == UndefinedIndex {
			continue
		}
		stop := false
		idx.chain(head, func(i uint32) bool {
			sym, ok := idx.symbol(i)
			if ok && !yield(sym) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// Buckets yields the symbols of every non-empty bucket as one group.
func (idx *Index) Buckets(yield func(bucket uint32, symbols []Symbol) bool) {
	for b := uint32(0); b < idx.hash.NumBuckets; b++ {
		head, err := idx.hash.Buckets.At(b)
		if err != nil {
			return
		} else if head == UndefinedIndex {
			continue
		}
		var symbols []Symbol
		idx.chain(head, func(i uint32) bool {
			if sym, ok := idx.symbol(i); ok {
				symbols = append(symbols, sym)
			}
			return true
		})
		if !yield(b, symbols) {
			return
		}
	}
}

func (idx *Index) Names() []string {
	var names []string
	for sym := range idx.Symbols {
		names = append(names, sym.Name)
	}
	return names
}
