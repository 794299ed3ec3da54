package dynlink

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHandle           = errors.New("invalid module handle")
	ErrMalformedDynamicSection = errors.New("malformed dynamic section")
	ErrMissingResolutionData   = errors.New("missing resolution data")
	ErrModuleNotFound          = errors.New("module not found")
	ErrSymbolNotFound          = errors.New("symbol not found")
	ErrOutOfBounds             = errors.New("index out of bounds")
)

type Stage string

const (
	StageWalk  Stage = "Walk"
	StageParse Stage = "Parse"
)

// InspectError identifies the stage and module an inspection failed in.
type InspectError struct {
	Stage  Stage
	Module string
	Err    error
}

func (e *InspectError) String() string {
	if e.Module == "" {
		return fmt.Sprintf("[%s]", e.Stage)
	}
	return fmt.Sprintf("[%s] module: %s", e.Stage, e.Module)
}

func (e *InspectError) Error() string {
	return fmt.Sprintf("%s, err: %v", e.String(), e.Err)
}

func (e *InspectError) Unwrap() error {
	return e.Err
}
