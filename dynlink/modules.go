package dynlink

// Modules holds parsed indexes in module chain order.
type Modules []*Index

func (ms Modules) Find(name string) (*Index, error) {
	for _, idx := range ms {
		if idx.Name() == name {
			return idx, nil
		}
	}
	return nil, ErrModuleNotFound
}

// FindSymbol returns the first module in chain order exporting name, which is
// the module the linker's global scope binds name to.
func (ms Modules) FindSymbol(name string) (*Index, uint32, error) {
	for _, idx := range ms {
		i, err := idx.Lookup(name)
		if err == nil {
			return idx, i, nil
		}
	}
	return nil, UndefinedIndex, ErrSymbolNotFound
}
