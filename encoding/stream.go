package encoding

// Stream is a forward-only cursor over foreign memory. BlockSize is the
// pointer width of the address space being decoded.
type Stream interface {
	BlockSize() int
	Offset() uint64
	Skip(int) error
	Read([]byte) (int, error)
	ReadString() (string, error)
	ReadStream() (Stream, error)
}
