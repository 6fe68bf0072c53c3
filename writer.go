package csv

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"

	"github.com/gofrs/flock"

	"github.com/jbroutier/csv/internal/record"
)

// OpenMode selects how the Writer opens its target file.
type OpenMode int

const (
	// Truncate discards any existing content before writing.
	Truncate OpenMode = iota
	// Append preserves existing content and writes after it.
	Append
)

// Writer serializes an iterable of application items into a delimited text
// file. It owns its file handle and an exclusive advisory lock from
// construction until Write returns.
type Writer struct {
	path string
	mode OpenMode
	file *os.File
	lock *flock.Flock

	delimiter byte
	enclosure byte
	escape    byte
	header    []string
	sourceEnc string
	targetEnc string
	detect    DetectFunc

	state streamState
}

// NewWriter acquires an exclusive lock on path and opens it for writing in
// the given mode. The lock is taken before the file is opened so a
// contending writer cannot truncate content another writer still owns.
// Lock contention surfaces as an error wrapping ErrLocked.
func NewWriter(path string, mode OpenMode) (*Writer, error) {
	lock := flock.New(path)
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("csv: locking %s: %w", path, err)
	}
	if !held {
		return nil, fmt.Errorf("csv: locking %s: %w", path, ErrLocked)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if mode == Append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		err = fmt.Errorf("csv: opening %s: %w", path, err)
		if uerr := lock.Unlock(); uerr != nil {
			err = errors.Join(err, fmt.Errorf("csv: unlocking %s: %w", path, uerr))
		}
		return nil, err
	}
	return &Writer{
		path:      path,
		mode:      mode,
		file:      file,
		lock:      lock,
		delimiter: DefaultDelimiter,
		enclosure: DefaultEnclosure,
		escape:    DefaultEscape,
		targetEnc: DefaultTargetEncoding,
	}, nil
}

// Path returns the file path the Writer was constructed from.
func (w *Writer) Path() string { return w.path }

// Mode returns the open mode the Writer was constructed with.
func (w *Writer) Mode() OpenMode { return w.mode }

// Delimiter returns the configured field delimiter.
func (w *Writer) Delimiter() byte { return w.delimiter }

// SetDelimiter configures the field delimiter. Ignored once Write has begun.
func (w *Writer) SetDelimiter(b byte) *Writer {
	if w.state == stateReady {
		w.delimiter = b
	}
	return w
}

// Enclosure returns the configured enclosure (quote) character.
func (w *Writer) Enclosure() byte { return w.enclosure }

// SetEnclosure configures the enclosure character. Ignored once Write has begun.
func (w *Writer) SetEnclosure(b byte) *Writer {
	if w.state == stateReady {
		w.enclosure = b
	}
	return w
}

// Escape returns the configured escape character.
func (w *Writer) Escape() byte { return w.escape }

// SetEscape configures the escape character. Ignored once Write has begun.
func (w *Writer) SetEscape(b byte) *Writer {
	if w.state == stateReady {
		w.escape = b
	}
	return w
}

// Header returns a copy of the configured column names, or nil when no
// header is configured.
func (w *Writer) Header() []string { return slices.Clone(w.header) }

// SetHeader configures the explicit column names written as the first line.
// Calling it with no names disables the header. Ignored once Write has
// begun. There is no auto-detect mode on the write side.
func (w *Writer) SetHeader(names ...string) *Writer {
	if w.state == stateReady {
		w.header = slices.Clone(names)
	}
	return w
}

// SourceEncoding returns the configured source encoding name; empty means
// detect per field.
func (w *Writer) SourceEncoding() string { return w.sourceEnc }

// SetSourceEncoding configures the source encoding by IANA name. An empty
// name restores per-field detection. Ignored once Write has begun.
func (w *Writer) SetSourceEncoding(name string) *Writer {
	if w.state == stateReady {
		w.sourceEnc = name
	}
	return w
}

// TargetEncoding returns the configured target encoding name.
func (w *Writer) TargetEncoding() string { return w.targetEnc }

// SetTargetEncoding configures the target encoding by IANA name. Ignored
// once Write has begun.
func (w *Writer) SetTargetEncoding(name string) *Writer {
	if w.state == stateReady {
		w.targetEnc = name
	}
	return w
}

// SetDetector replaces the content-based encoding detector used when the
// source encoding is unset. Ignored once Write has begun.
func (w *Writer) SetDetector(fn DetectFunc) *Writer {
	if w.state == stateReady {
		w.detect = fn
	}
	return w
}

// Write serializes the header, when configured, followed by one line per
// item drawn from items. fn materializes each item into a Result; Stop
// terminates the loop early without error. Row numbers start at 1 and
// increment only for rows actually written. The lock is released and the
// handle closed on every exit path; the Writer cannot be used afterwards.
func (w *Writer) Write(items iter.Seq[any], fn ItemFunc) (err error) {
	if fn == nil {
		panic("csv: write callback cannot be nil")
	}
	if w.state != stateReady {
		return ErrClosed
	}
	w.state = stateStreaming

	formatter := record.NewFormatter(w.file)
	formatter.Comma = w.delimiter
	formatter.Quote = w.enclosure
	formatter.Escape = w.escape

	defer func() {
		w.state = stateClosed
		if ferr := formatter.Flush(); ferr != nil && !errors.Is(err, ferr) {
			err = errors.Join(err, fmt.Errorf("csv: flushing %s: %w", w.path, ferr))
		}
		if cerr := w.teardown(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	conv, err := newConverter(w.sourceEnc, w.targetEnc, w.detect)
	if err != nil {
		return err
	}

	arity := -1
	if len(w.header) > 0 {
		// The header is converted once here and reused for every arity
		// check, never re-encoded per row.
		names, cerr := conv.convertAll(w.header)
		if cerr != nil {
			return cerr
		}
		if werr := formatter.Write(names); werr != nil {
			return fmt.Errorf("csv: writing header of %s: %w", w.path, werr)
		}
		arity = len(names)
	}

	number := 1
	for item := range items {
		result := fn(item, number)
		if !result.valid {
			return ErrInvalidResult
		}
		if result.stop {
			return nil
		}
		fields, cerr := conv.convertAll(result.fields)
		if cerr != nil {
			return cerr
		}
		if arity >= 0 && len(fields) != arity {
			return &FieldCountError{Expected: arity, Found: len(fields), Line: number}
		}
		if werr := formatter.Write(fields); werr != nil {
			return fmt.Errorf("csv: writing %s: %w", w.path, werr)
		}
		number++
	}
	return nil
}

// teardown releases the lock and closes the handle exactly once.
func (w *Writer) teardown() error {
	var errs []error
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("csv: unlocking %s: %w", w.path, err))
		}
		w.lock = nil
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("csv: closing %s: %w", w.path, err))
		}
		w.file = nil
	}
	return errors.Join(errs...)
}
