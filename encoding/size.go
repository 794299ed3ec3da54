package encoding

// layout lists the foreign sizes of a record's pieces in order, padding
// pieces included.
type layout []int

func (l layout) then(next layout) layout {
	return append(l, next...)
}

func (l layout) total() int {
	n := 0
	for _, piece := range l {
		n += piece
	}
	return n
}

// widest is the largest piece, which the record end is aligned to.
func (l layout) widest() int {
	w := 0
	for _, piece := range l {
		w = max(w, piece)
	}
	return w
}
