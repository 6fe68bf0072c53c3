package csv

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestLookupEncoding(t *testing.T) {
	t.Parallel()

	enc, err := lookupEncoding("")
	require.NoError(t, err)
	require.Nil(t, enc)

	enc, err = lookupEncoding("ISO-8859-1")
	require.NoError(t, err)
	require.NotNil(t, enc)

	_, err = lookupEncoding("no-such-charset")
	require.Error(t, err)
}

func TestDefaultDetect(t *testing.T) {
	t.Parallel()

	require.Equal(t, unicode.UTF8, defaultDetect([]byte("plain ascii and café")))

	// Latin-1 bytes are not valid UTF-8; the sniffer falls back to a
	// single-byte charset that decodes them losslessly.
	enc := defaultDetect([]byte("caf\xe9"))
	require.NotNil(t, enc)
	decoded, err := enc.NewDecoder().String("caf\xe9")
	require.NoError(t, err)
	require.Equal(t, "café", decoded)
}

func TestDefaultDetectTruncatedRune(t *testing.T) {
	t.Parallel()

	// A multi-byte rune cut off at the end of the sample must not push
	// an otherwise valid UTF-8 file into the single-byte fallback.
	sample := append(bytes.Repeat([]byte("a"), detectSampleSize-1), 0xC3)
	require.Equal(t, unicode.UTF8, defaultDetect(sample))

	// A complete trailing rune is left alone.
	require.Equal(t, unicode.UTF8, defaultDetect([]byte("caf\xc3\xa9")))

	// Garbage that is invalid regardless of truncation still falls back.
	enc := defaultDetect([]byte("caf\xe9 plus long tail"))
	require.NotEqual(t, unicode.UTF8, enc)
}

func TestReaderDetectsUTF8AcrossSampleBoundary(t *testing.T) {
	t.Parallel()

	// The first byte of the é sits at offset detectSampleSize-1, so the
	// sniff sample splits the rune in half.
	prefix := strings.Repeat("a", detectSampleSize-1)
	path := writeFixture(t, prefix+"é,x\n")
	r, err := NewReader(path)
	require.NoError(t, err)

	rows := collectRows(t, r)
	require.Len(t, rows, 1)
	require.Equal(t, prefix+"é", rows[0].row.Field(0))
	require.Equal(t, "x", rows[0].row.Field(1))
}

func TestConverterIdentity(t *testing.T) {
	t.Parallel()

	c, err := newConverter("UTF-8", "UTF-8", nil)
	require.NoError(t, err)
	out, err := c.convert("café")
	require.NoError(t, err)
	require.Equal(t, "café", out)
}

func TestReaderConvertsDeclaredSourceEncoding(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "caf\xe9,1\n")
	r, err := NewReader(path)
	require.NoError(t, err)
	r.SetSourceEncoding("ISO-8859-1")

	rows := collectRows(t, r)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"café", "1"}, rows[0].row.Fields())
}

func TestReaderDetectsSourceEncoding(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "caf\xe9,1\n")
	r, err := NewReader(path)
	require.NoError(t, err)

	rows := collectRows(t, r)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"café", "1"}, rows[0].row.Fields())
}

func TestReaderCustomDetector(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "caf\xe9\n")
	r, err := NewReader(path)
	require.NoError(t, err)

	var sampled []byte
	r.SetDetector(func(sample []byte) encoding.Encoding {
		sampled = append([]byte(nil), sample...)
		return charmap.ISO8859_1
	})

	rows := collectRows(t, r)
	require.Len(t, rows, 1)
	require.Equal(t, "café", rows[0].row.Field(0))
	require.Equal(t, []byte("caf\xe9\n"), sampled)
}

func TestWriterConvertsToTargetEncoding(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latin1.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	w.SetTargetEncoding("ISO-8859-1")

	require.NoError(t, w.Write(Items([]int{1}), func(any, int) Result {
		return Fields("café", "1")
	}))

	require.Equal(t, "caf\xe9,1\n", readBack(t, path))
}

func TestWriterConvertsDeclaredSourceEncoding(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "utf8.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	w.SetSourceEncoding("ISO-8859-1")

	require.NoError(t, w.Write(Items([]int{1}), func(any, int) Result {
		return Fields("caf\xe9")
	}))

	require.Equal(t, "café\n", readBack(t, path))
}

func TestWriterConvertsHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latin1.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	w.SetHeader("libellé").SetTargetEncoding("ISO-8859-1")

	require.NoError(t, w.Write(Items([]int{1, 2}), func(any, int) Result {
		return Fields("caf\xe9")
	}))

	require.Equal(t, "libell\xe9\ncaf\xe9\ncaf\xe9\n", readBack(t, path))
}
