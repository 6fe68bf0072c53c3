package csv

import "iter"

// RowFunc receives each parsed row together with its row number. Its return
// value, if any, is not consulted; readers always consume to end-of-file.
type RowFunc func(row Row, number int)

// ItemFunc materializes one iterable item into a Result. Returning Stop
// terminates the write loop early without error.
type ItemFunc func(item any, number int) Result

// Result is the outcome of an ItemFunc: either a field sequence to write
// or a stop signal. The zero Result is invalid and aborts the write with
// ErrInvalidResult.
type Result struct {
	fields []string
	stop   bool
	valid  bool
}

// Fields builds a Result carrying the field values for one row.
func Fields(values ...string) Result {
	return Result{fields: values, valid: true}
}

// Stop builds the Result that terminates the write loop early.
func Stop() Result {
	return Result{stop: true, valid: true}
}

// Items adapts a slice into the iterable consumed by Writer.Write.
func Items[T any](items []T) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}
