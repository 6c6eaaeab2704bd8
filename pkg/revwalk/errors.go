package revwalk

import (
	"errors"
	"fmt"
)

// ErrStop ends ForEach early without reporting an error.
var ErrStop = errors.New("revwalk: stop")

// MisuseError describes a broken calling contract, such as reading the
// message of an unparsed commit. Methods that detect misuse panic with a
// *MisuseError rather than return stale data.
type MisuseError struct {
	Op     string
	Reason string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("revwalk: %s: %s", e.Op, e.Reason)
}

func misuse(op, format string, args ...any) *MisuseError {
	return &MisuseError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
