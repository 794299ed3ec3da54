package discover

import "errors"

var (
	ErrNoProgramHeaders = errors.New("auxiliary vector lacks program headers")
	ErrNoDynamicSection = errors.New("no dynamic section, executable is statically linked")
	ErrNoDebugEntry     = errors.New("dynamic section has no DT_DEBUG entry")
	ErrNotInitialized   = errors.New("dynamic linker debug interface not initialized")
)
