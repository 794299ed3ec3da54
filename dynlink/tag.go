package dynlink

import "debug/elf"

// Tag is the subset of dynamic entry tags symbol resolution consumes.
type Tag int

const (
	TagIgnored Tag = iota
	TagNull
	TagHash
	TagSymEnt
	TagSymTab
	TagStrSz
	TagStrTab
)

func ClassifyTag(tag elf.DynTag) Tag {
	switch tag {
	case elf.DT_NULL:
		return TagNull
	case elf.DT_HASH:
		return TagHash
	case elf.DT_SYMENT:
		return TagSymEnt
	case elf.DT_SYMTAB:
		return TagSymTab
	case elf.DT_STRSZ:
		return TagStrSz
	case elf.DT_STRTAB:
		return TagStrTab
	default:
		return TagIgnored
	}
}

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "DT_NULL"
	case TagHash:
		return "DT_HASH"
	case TagSymEnt:
		return "DT_SYMENT"
	case TagSymTab:
		return "DT_SYMTAB"
	case TagStrSz:
		return "DT_STRSZ"
	case TagStrTab:
		return "DT_STRTAB"
	default:
		return "ignored"
	}
}
