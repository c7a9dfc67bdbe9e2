package lifecycle

import (
	"errors"
	"fmt"
)

// Invalid operation requests are rejected synchronously, before any remote
// call is made.
var (
	ErrUnknownTable        = errors.New("unknown table label")
	ErrAlreadyOccupied     = errors.New("table is already occupied")
	ErrNotOccupied         = errors.New("table is not occupied")
	ErrDestinationOccupied = errors.New("destination table is occupied")
	ErrKindMismatch        = errors.New("destination table is not of the requested kind")
)

// InconsistencyError reports a drift between the local occupancy flag and
// the remote session store that automatic repair could not resolve. The
// triggering operation is aborted.
type InconsistencyError struct {
	Label  string
	Reason Inconsistency
	Err    error
}

func (e *InconsistencyError) Error() string {
	msg := fmt.Sprintf("table %q is inconsistent (%s)", e.Label, e.Reason)
	if e.Err != nil {
		msg += fmt.Sprintf(": repair failed: %v", e.Err)
	}
	return msg + "; run diagnostics for details or retry after repair"
}

func (e *InconsistencyError) Unwrap() error { return e.Err }
