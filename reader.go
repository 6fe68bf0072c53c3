package csv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"

	"github.com/jbroutier/csv/internal/record"
)

// Reader streams a delimited text file into rows. It owns its file handle
// and a shared advisory lock from construction until Read returns.
type Reader struct {
	path string
	file *os.File
	lock *flock.Flock

	delimiter byte
	enclosure byte
	escape    byte
	header    Header
	sourceEnc string
	targetEnc string
	detect    DetectFunc

	state streamState
}

// NewReader opens path read-only and acquires a shared lock on it. Lock
// contention surfaces as an error wrapping ErrLocked.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: opening %s: %w", path, err)
	}
	lock := flock.New(path)
	held, err := lock.TryRLock()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("csv: locking %s: %w", path, err)
	}
	if !held {
		file.Close()
		return nil, fmt.Errorf("csv: locking %s: %w", path, ErrLocked)
	}
	return &Reader{
		path:      path,
		file:      file,
		lock:      lock,
		delimiter: DefaultDelimiter,
		enclosure: DefaultEnclosure,
		escape:    DefaultEscape,
		targetEnc: DefaultTargetEncoding,
	}, nil
}

// Path returns the file path the Reader was constructed from.
func (r *Reader) Path() string { return r.path }

// Delimiter returns the configured field delimiter.
func (r *Reader) Delimiter() byte { return r.delimiter }

// SetDelimiter configures the field delimiter. Ignored once Read has begun.
func (r *Reader) SetDelimiter(b byte) *Reader {
	if r.state == stateReady {
		r.delimiter = b
	}
	return r
}

// Enclosure returns the configured enclosure (quote) character.
func (r *Reader) Enclosure() byte { return r.enclosure }

// SetEnclosure configures the enclosure character. Ignored once Read has begun.
func (r *Reader) SetEnclosure(b byte) *Reader {
	if r.state == stateReady {
		r.enclosure = b
	}
	return r
}

// Escape returns the configured escape character.
func (r *Reader) Escape() byte { return r.escape }

// SetEscape configures the escape character. Ignored once Read has begun.
func (r *Reader) SetEscape(b byte) *Reader {
	if r.state == stateReady {
		r.escape = b
	}
	return r
}

// Header returns the configured header mode.
func (r *Reader) Header() Header { return r.header }

// SetHeader configures the header mode: NoHeader, AutoHeader, or
// Columns(...). Ignored once Read has begun.
func (r *Reader) SetHeader(h Header) *Reader {
	if r.state == stateReady {
		r.header = h
	}
	return r
}

// SourceEncoding returns the configured source encoding name; empty means
// detect from content.
func (r *Reader) SourceEncoding() string { return r.sourceEnc }

// SetSourceEncoding configures the source encoding by IANA name. An empty
// name restores content detection. Ignored once Read has begun.
func (r *Reader) SetSourceEncoding(name string) *Reader {
	if r.state == stateReady {
		r.sourceEnc = name
	}
	return r
}

// TargetEncoding returns the configured target encoding name.
func (r *Reader) TargetEncoding() string { return r.targetEnc }

// SetTargetEncoding configures the target encoding by IANA name. Ignored
// once Read has begun.
func (r *Reader) SetTargetEncoding(name string) *Reader {
	if r.state == stateReady {
		r.targetEnc = name
	}
	return r
}

// SetDetector replaces the content-based encoding detector used when the
// source encoding is unset. Ignored once Read has begun.
func (r *Reader) SetDetector(fn DetectFunc) *Reader {
	if r.state == stateReady {
		r.detect = fn
	}
	return r
}

// Count returns the number of non-empty physical lines in the file,
// excluding one line when any header mode is configured. The stream
// position is restored before returning.
func (r *Reader) Count() (count int, err error) {
	if r.state == stateClosed {
		return 0, ErrClosed
	}
	pos, err := r.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("csv: counting %s: %w", r.path, err)
	}
	defer func() {
		if _, serr := r.file.Seek(pos, io.SeekStart); serr != nil && err == nil {
			count, err = 0, fmt.Errorf("csv: restoring position of %s: %w", r.path, serr)
		}
	}()
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("csv: counting %s: %w", r.path, err)
	}

	br := bufio.NewReader(r.file)
	for {
		line, rerr := br.ReadBytes('\n')
		if len(bytes.TrimRight(line, "\r\n")) > 0 {
			count++
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, fmt.Errorf("csv: counting %s: %w", r.path, rerr)
		}
	}
	if r.header.Enabled() && count > 0 {
		count--
	}
	return count, nil
}

// Read rewinds the stream and delivers every data row to fn together with
// its row number. Row numbers start at 0; an auto-detected header line
// consumes number 0 and is not delivered. Blank lines are skipped silently.
// The lock is released and the handle closed on every exit path; the
// Reader cannot be used afterwards.
func (r *Reader) Read(fn RowFunc) (err error) {
	if fn == nil {
		panic("csv: read callback cannot be nil")
	}
	if r.state != stateReady {
		return ErrClosed
	}
	r.state = stateStreaming
	defer func() {
		r.state = stateClosed
		if cerr := r.teardown(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("csv: rewinding %s: %w", r.path, err)
	}
	conv, err := r.resolveConverter()
	if err != nil {
		return err
	}

	scanner := record.NewScanner(r.file)
	scanner.Comma = r.delimiter
	scanner.Quote = r.enclosure
	scanner.Escape = r.escape

	names := r.header.Names()
	pending := r.header.mode == headerAuto
	number := 0

	for {
		fields, serr := scanner.Scan()
		if errors.Is(serr, io.EOF) {
			return nil
		}
		if serr != nil {
			var perr *record.ParseError
			if errors.As(serr, &perr) {
				return serr
			}
			return fmt.Errorf("csv: reading %s: %w", r.path, serr)
		}

		converted, cerr := conv.convertAll(fields)
		if cerr != nil {
			return cerr
		}
		if pending {
			// The first parsed line becomes the header and consumes
			// row number 0.
			names = converted
			pending = false
			number = 1
			continue
		}
		row := Row{fields: converted}
		if r.header.Enabled() {
			if len(converted) != len(names) {
				return &FieldCountError{Expected: len(names), Found: len(converted), Line: number}
			}
			row.names = names
		}
		fn(row, number)
		number++
	}
}

// resolveConverter builds the field converter, sniffing the source encoding
// from the head of the file when it was left unset.
func (r *Reader) resolveConverter() (*converter, error) {
	conv, err := newConverter(r.sourceEnc, r.targetEnc, r.detect)
	if err != nil {
		return nil, err
	}
	if conv.src == nil {
		sample := make([]byte, detectSampleSize)
		n, rerr := io.ReadFull(r.file, sample)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("csv: sampling %s: %w", r.path, rerr)
		}
		if _, serr := r.file.Seek(0, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("csv: rewinding %s: %w", r.path, serr)
		}
		conv.src = conv.detect(sample[:n])
	}
	return conv, nil
}

// teardown releases the lock and closes the handle exactly once.
func (r *Reader) teardown() error {
	var errs []error
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("csv: unlocking %s: %w", r.path, err))
		}
		r.lock = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("csv: closing %s: %w", r.path, err))
		}
		r.file = nil
	}
	return errors.Join(errs...)
}
