package csv

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when the advisory lock on a file is already
	// held in a conflicting mode by another Reader or Writer.
	ErrLocked = errors.New("csv: file is locked by another process")
	// ErrClosed is returned when Read, Write, or Count is invoked after
	// the stream has been torn down.
	ErrClosed = errors.New("csv: stream already closed")
	// ErrInvalidResult is returned when a write callback returns a Result
	// that was built neither with Fields nor with Stop.
	ErrInvalidResult = errors.New("csv: write callback must return Fields or Stop")
)

// FieldCountError reports a row whose field count does not match the active
// header.
type FieldCountError struct {
	Expected int
	Found    int
	Line     int
}

// Error formats the mismatch with the stored expected, found, and line values.
func (e *FieldCountError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csv: wrong number of fields on line %d: expected %d, found %d", e.Line, e.Expected, e.Found)
}
