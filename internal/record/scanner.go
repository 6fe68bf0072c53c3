// Package record implements the line-level codec shared by the csv package:
// a Scanner that tokenizes delimited text into raw field slices and a
// Formatter that serializes field slices back into delimited lines. Both
// honor configurable delimiter, enclosure (quote), and escape bytes.
package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var (
	// ErrBareQuote is returned when an unexpected quote is found in an unquoted field.
	ErrBareQuote = errors.New("csv: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = errors.New("csv: unterminated quoted field")
)

// ParseError contains location information for tokenizer errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Scanner tokenizes delimited text into records of raw fields. Blank physical
// lines never produce a record; they are consumed silently so that callers
// only ever see lines carrying data.
type Scanner struct {
	src *bufio.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the enclosure character. Default is '"'.
	Quote byte
	// Escape is the escape character honored inside quoted fields. When it
	// equals Quote (or is zero) only RFC 4180 quote doubling applies.
	// Default is '\\'.
	Escape byte

	dataBuf  []byte
	bounds   []int
	finished bool
	line     int
}

// NewScanner creates a Scanner that consumes delimited text from r,
// panicking if r is nil.
func NewScanner(r io.Reader) *Scanner {
	if r == nil {
		panic("csv: scanner source cannot be nil")
	}
	return &Scanner{
		src:     bufio.NewReaderSize(r, defaultBufferSize),
		Comma:   ',',
		Quote:   '"',
		Escape:  '\\',
		dataBuf: make([]byte, 0, 512),
		bounds:  make([]int, 0, 32),
		line:    1,
	}
}

// Line reports the 1-based physical line the Scanner is positioned on.
// Embedded newlines inside quoted fields advance the count.
func (s *Scanner) Line() int {
	if s == nil {
		return 0
	}
	return s.line
}

// Scan tokenizes the next non-blank line into its raw fields. It returns
// io.EOF once the input is exhausted.
func (s *Scanner) Scan() ([]string, error) {
	if s == nil || s.src == nil || s.finished {
		return nil, io.EOF
	}
	for {
		fields, err := s.scanRecord()
		if err != nil {
			return nil, err
		}
		if fields == nil {
			continue // blank line
		}
		return fields, nil
	}
}

// scanRecord consumes one physical record. It returns (nil, nil) for a blank
// line so Scan can skip it without surfacing a record.
func (s *Scanner) scanRecord() ([]string, error) {
	comma := s.Comma
	if comma == 0 {
		comma = ','
	}
	quote := s.Quote
	if quote == 0 {
		quote = '"'
	}
	escape := s.Escape

	s.dataBuf = s.dataBuf[:0]
	s.bounds = s.bounds[:0]

	inQuotes := false
	sawQuoted := false
	fieldStart := 0
	column := 1

	for {
		b, err := s.src.ReadByte()
		if err == io.EOF {
			s.finished = true
			if inQuotes {
				return nil, s.wrapError(column, ErrUnterminatedQuote)
			}
			// Flush a trailing field if data ended without a newline.
			if len(s.bounds) > 0 || len(s.dataBuf) > 0 || sawQuoted {
				s.bounds = append(s.bounds, fieldStart, len(s.dataBuf))
				return s.buildRecord(), nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		if inQuotes {
			switch {
			case b == escape && escape != quote && escape != 0:
				next, err := s.src.ReadByte()
				if err == io.EOF {
					// Lone escape at EOF; the enclosing quote is still
					// open, so the next iteration reports it.
					s.dataBuf = append(s.dataBuf, b)
					column++
					continue
				}
				if err != nil {
					return nil, err
				}
				if next == quote || next == escape {
					s.dataBuf = append(s.dataBuf, next)
				} else {
					s.dataBuf = append(s.dataBuf, b, next)
				}
				if next == '\n' {
					s.line++
					column = 1
				} else {
					column += 2
				}
			case b == quote:
				// A doubled quote inside quotes is a literal quote.
				next, err := s.src.Peek(1)
				if err != nil && err != io.EOF {
					return nil, err
				}
				if err == nil && next[0] == quote {
					s.src.Discard(1)
					s.dataBuf = append(s.dataBuf, quote)
					column += 2
					continue
				}
				inQuotes = false
				column++
			case b == '\n':
				// Track logical line numbers for embedded newlines.
				s.dataBuf = append(s.dataBuf, b)
				s.line++
				column = 1
			default:
				s.dataBuf = append(s.dataBuf, b)
				column++
			}
			continue
		}

		switch b {
		case comma:
			s.bounds = append(s.bounds, fieldStart, len(s.dataBuf))
			fieldStart = len(s.dataBuf)
			sawQuoted = false
			column++
		case '\n', '\r':
			if b == '\r' {
				// Support CRLF by consuming a trailing '\n' together.
				next, err := s.src.Peek(1)
				if err != nil && err != io.EOF {
					return nil, err
				}
				if err == nil && next[0] == '\n' {
					s.src.Discard(1)
				}
			}
			s.line++
			if len(s.bounds) == 0 && len(s.dataBuf) == 0 && !sawQuoted {
				return nil, nil // blank line
			}
			s.bounds = append(s.bounds, fieldStart, len(s.dataBuf))
			return s.buildRecord(), nil
		case quote:
			// A quote starts a quoted field only at the start of a field.
			if len(s.dataBuf) == fieldStart && !sawQuoted {
				inQuotes = true
				sawQuoted = true
				column++
				continue
			}
			return nil, s.wrapError(column, ErrBareQuote)
		default:
			s.dataBuf = append(s.dataBuf, b)
			column++
		}
	}
}

// buildRecord maps the accumulated bounds onto the data buffer and returns
// the materialized fields.
func (s *Scanner) buildRecord() []string {
	fieldCount := len(s.bounds) / 2
	data := string(s.dataBuf)
	record := make([]string, fieldCount)
	for i := 0; i < fieldCount; i++ {
		record[i] = data[s.bounds[2*i]:s.bounds[2*i+1]]
	}
	return record
}

// wrapError attaches the current line and supplied column to err.
func (s *Scanner) wrapError(column int, err error) error {
	return &ParseError{Line: s.line, Column: column, Err: err}
}
