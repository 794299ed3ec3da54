package memory

import "errors"

var (
	ErrArchUnsupported = errors.New("architecture unsupported")
	ErrAddressInvalid  = errors.New("address invalid")
)
