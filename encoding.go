package csv

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// detectSampleSize bounds how many bytes the Reader sniffs when the source
// encoding is left unset.
const detectSampleSize = 1024

// DetectFunc guesses the character encoding of a content sample. It backs
// the "source encoding unset" configuration and can be swapped out for
// deterministic behavior in tests.
type DetectFunc func(sample []byte) encoding.Encoding

// defaultDetect treats any valid UTF-8 sample as UTF-8 and otherwise sniffs
// the way HTML user agents do, which covers the UTF byte-order marks and
// the common single-byte charsets.
func defaultDetect(sample []byte) encoding.Encoding {
	if utf8.Valid(trimPartialRune(sample)) {
		return unicode.UTF8
	}
	enc, _, _ := charset.DetermineEncoding(sample, "text/plain")
	return enc
}

// trimPartialRune drops a trailing multi-byte sequence the sample boundary
// cut short, so truncation alone cannot make a valid UTF-8 file fail
// validation.
func trimPartialRune(sample []byte) []byte {
	for i := len(sample) - 1; i >= 0 && i >= len(sample)-utf8.UTFMax; i-- {
		if utf8.RuneStart(sample[i]) {
			if !utf8.Valid(sample[i:]) {
				return sample[:i]
			}
			break
		}
	}
	return sample
}

// lookupEncoding resolves an IANA charset name. An empty name resolves to
// nil, meaning "detect from content".
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("csv: unknown encoding %q", name)
	}
	return enc, nil
}

// converter transcodes field text from a source encoding to a target
// encoding. A nil src defers to detect per call.
type converter struct {
	src    encoding.Encoding
	dst    encoding.Encoding
	detect DetectFunc
}

func newConverter(source, target string, detect DetectFunc) (*converter, error) {
	src, err := lookupEncoding(source)
	if err != nil {
		return nil, err
	}
	dst, err := lookupEncoding(target)
	if err != nil {
		return nil, err
	}
	if detect == nil {
		detect = defaultDetect
	}
	return &converter{src: src, dst: dst, detect: detect}, nil
}

// convert transcodes one field. Identical source and target encodings pass
// the text through untouched.
func (c *converter) convert(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	src := c.src
	if src == nil {
		src = c.detect([]byte(s))
	}
	if src == nil || src == c.dst {
		return s, nil
	}
	t := transform.Transformer(src.NewDecoder())
	if c.dst != nil {
		t = transform.Chain(src.NewDecoder(), c.dst.NewEncoder())
	}
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", fmt.Errorf("csv: converting field encoding: %w", err)
	}
	return out, nil
}

// convertAll transcodes every field of a record in place-order, returning a
// fresh slice.
func (c *converter) convertAll(fields []string) ([]string, error) {
	out := make([]string, len(fields))
	for i, f := range fields {
		converted, err := c.convert(f)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}
