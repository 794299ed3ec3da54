package encoding

import "errors"

var ErrNotPointer = errors.New("decode target is not a pointer")
