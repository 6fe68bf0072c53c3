package record

import (
	"bufio"
	"errors"
	"io"
)

var (
	errNilFormatter      = errors.New("csv: formatter is nil")
	errFormatterNoTarget = errors.New("csv: formatter destination cannot be nil")
)

// Formatter serializes records of raw fields into delimited lines with
// configurable delimiter, enclosure, and escape bytes.
type Formatter struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the enclosure character. Default is '"'.
	Quote byte
	// Escape is the escape character written before an embedded enclosure.
	// When it equals Quote (or is zero) embedded enclosures are doubled
	// per RFC 4180 instead. Default is '\\'.
	Escape byte
	// UseCRLF writes records terminated with \r\n when set.
	UseCRLF bool
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool

	err error
}

// NewFormatter creates a Formatter with internal buffering tuned for bulk
// writes, panicking if w is nil.
func NewFormatter(w io.Writer) *Formatter {
	if w == nil {
		panic(errFormatterNoTarget.Error())
	}
	return &Formatter{
		dst:    bufio.NewWriterSize(w, defaultBufferSize),
		Comma:  ',',
		Quote:  '"',
		Escape: '\\',
	}
}

// Write emits a single record terminated with the configured newline sequence.
func (f *Formatter) Write(record []string) error {
	if f == nil {
		return errNilFormatter
	}
	if f.dst == nil {
		return errFormatterNoTarget
	}
	if f.err != nil {
		return f.err
	}

	comma := f.Comma
	if comma == 0 {
		comma = ','
	}
	quote := f.Quote
	if quote == 0 {
		quote = '"'
	}
	escape := f.Escape
	if escape == 0 {
		escape = quote
	}

	for i := range record {
		if i > 0 {
			if err := f.dst.WriteByte(comma); err != nil {
				f.err = err
				return err
			}
		}
		if err := f.writeField(record[i], comma, quote, escape); err != nil {
			f.err = err
			return err
		}
	}

	if f.UseCRLF {
		if _, err := f.dst.Write([]byte{'\r', '\n'}); err != nil {
			f.err = err
			return err
		}
	} else {
		if err := f.dst.WriteByte('\n'); err != nil {
			f.err = err
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (f *Formatter) Flush() error {
	if f == nil {
		return errNilFormatter
	}
	if f.dst == nil {
		return errFormatterNoTarget
	}
	if f.err != nil {
		return f.err
	}
	if err := f.dst.Flush(); err != nil {
		f.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the Formatter.
func (f *Formatter) Error() error {
	if f == nil {
		return errNilFormatter
	}
	return f.err
}

func (f *Formatter) writeField(field string, comma, quote, escape byte) error {
	if !f.AlwaysQuote && !fieldNeedsQuote(field, comma, quote, escape) {
		_, err := f.dst.WriteString(field)
		return err
	}
	if err := f.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		b := field[i]
		if b != quote && (b != escape || escape == quote) {
			continue
		}
		if start < i {
			if _, err := f.dst.WriteString(field[start:i]); err != nil {
				return err
			}
		}
		if escape == quote {
			// RFC 4180 doubling.
			if _, err := f.dst.Write([]byte{quote, quote}); err != nil {
				return err
			}
		} else {
			if _, err := f.dst.Write([]byte{escape, b}); err != nil {
				return err
			}
		}
		start = i + 1
	}
	if start < len(field) {
		if _, err := f.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	return f.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote, escape byte) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, comma, escape, '\n', '\r':
			return true
		}
	}
	return false
}
