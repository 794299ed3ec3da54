package dynlink

import (
	"debug/elf"
	"fmt"
	"iter"

	"github.com/johannst/fun-with-elf/internal/memstream"
	"github.com/johannst/fun-with-elf/memory"
)

// NoName stands in for an empty load name.
const NoName = "<no_name>"

// dynEntry mirrors ElfW(Dyn): a signed word tag and a word sized value.
type dynEntry struct {
	Tag int
	Val uintptr
}

type DynEntry struct {
	Tag elf.DynTag
	Val uint64
}

// Entries yields the dynamic entries starting at ptr up to DT_NULL. A read
// failure ends the sequence with ErrMalformedDynamicSection.
func Entries(ptr memory.Pointer) iter.Seq2[DynEntry, error] {
	return func(yield func(DynEntry, error) bool) {
		entSize := memstream.Sizeof(ptr.Memory(), &dynEntry{})
		for p := ptr; ; p = p.Add(entSize) {
			var dyn dynEntry
			err := memstream.Extract(p, &dyn)
			if err != nil {
				yield(DynEntry{}, fmt.Errorf("%w: entry at %#x: %w", ErrMalformedDynamicSection, p.Address(), err))
				return
			}
			tag := elf.DynTag(dyn.Tag)
			if tag == elf.DT_NULL || !yield(DynEntry{Tag: tag, Val: uint64(dyn.Val)}, nil) {
				return
			}
		}
	}
}

type dynamicInfo struct {
	hash, symtab, strtab uint64
	syment, strsz        uint64
	seen                 map[Tag]bool
}

// scanDynamic records the resolution entries; a repeated tag overwrites the
// earlier one.
func scanDynamic(ptr memory.Pointer) (*dynamicInfo, error) {
	info := &dynamicInfo{seen: make(map[Tag]bool)}
	for dyn, err := range Entries(ptr) {
		if err != nil {
			return nil, err
		}
		tag := ClassifyTag(dyn.Tag)
		switch tag {
		case TagHash:
			info.hash = dyn.Val
		case TagSymEnt:
			info.syment = dyn.Val
		case TagSymTab:
			info.symtab = dyn.Val
		case TagStrSz:
			info.strsz = dyn.Val
		case TagStrTab:
			info.strtab = dyn.Val
		default:
			continue
		}
		info.seen[tag] = true
	}
	return info, nil
}

func (info *dynamicInfo) missing() []Tag {
	var tags []Tag
	for _, tag := range []Tag{TagHash, TagSymTab, TagSymEnt, TagStrTab, TagStrSz} {
		if !info.seen[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Parse reads the dynamic section of d and builds the index answering
// symbol queries for it. The index refers to d's memory, nothing is copied.
func Parse(d *Descriptor) (*Index, error) {
	name := d.DisplayName()
	if d.Dynamic.IsNil() {
		return nil, fmt.Errorf("%w: %s has no dynamic section", ErrMalformedDynamicSection, name)
	}
	info, err := scanDynamic(d.Dynamic)
	if err != nil {
		return nil, err
	}
	if missing := info.missing(); len(missing) != 0 {
		return nil, fmt.Errorf("%w: %s lacks %v", ErrMissingResolutionData, name, missing)
	}
	if info.syment == 0 {
		return nil, fmt.Errorf("%w: %s declares a zero symbol entry size", ErrMissingResolutionData, name)
	}
	mem := d.Dynamic.Memory()
	hash, err := readHashTable(memory.ToPointer(mem, info.hash))
	if err != nil {
		return nil, fmt.Errorf("%w: hash table at %#x: %w", ErrMalformedDynamicSection, info.hash, err)
	}
	return &Index{
		desc: d,
		name: name,
		hash: hash,
		symtab: SymbolTable{
			Base:   memory.ToPointer(mem, info.symtab),
			Stride: info.syment,
		},
		strtab: StringTable{
			Base: memory.ToPointer(mem, info.strtab),
			Size: info.strsz,
		},
	}, nil
}
