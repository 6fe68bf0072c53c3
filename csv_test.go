package csv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	header := []string{"id", "name", "note"}
	records := [][]string{
		{"1", "Alice", "likes, commas"},
		{"2", "Bob", `says "hi"`},
		{"3", "Carol", "multi\nline"},
	}

	path := filepath.Join(t.TempDir(), "round.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	w.SetHeader(header...)
	require.NoError(t, w.Write(Items(records), func(item any, _ int) Result {
		return Fields(item.([]string)...)
	}))

	r, err := NewReader(path)
	require.NoError(t, err)
	r.SetHeader(AutoHeader)

	// Count works on non-empty physical lines: Carol's note spans two of
	// them, so the header-adjusted total is 4, not the 3 logical records.
	count, err := r.Count()
	require.NoError(t, err)
	require.Equal(t, 4, count)

	var got [][]string
	require.NoError(t, r.Read(func(row Row, number int) {
		require.Equal(t, header, row.Names())
		require.Equal(t, len(got)+1, number)
		got = append(got, row.Fields())
	}))
	require.Equal(t, records, got)
}

func TestRoundTripCustomCodec(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"plain", "with;delim", "with'quote"},
	}

	path := filepath.Join(t.TempDir(), "round.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	w.SetDelimiter(';').SetEnclosure('\'').SetEscape('\\')
	require.NoError(t, w.Write(Items(records), func(item any, _ int) Result {
		return Fields(item.([]string)...)
	}))

	r, err := NewReader(path)
	require.NoError(t, err)
	r.SetDelimiter(';').SetEnclosure('\'').SetEscape('\\')

	var got [][]string
	require.NoError(t, r.Read(func(row Row, _ int) {
		got = append(got, row.Fields())
	}))
	require.Equal(t, records, got)
}

func TestConcurrentReadersShareLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shared.csv")
	w, err := NewWriter(path, Truncate)
	require.NoError(t, err)
	require.NoError(t, w.Write(Items([][]string{{"1", "a"}, {"2", "b"}}), func(item any, _ int) Result {
		return Fields(item.([]string)...)
	}))

	r1, err := NewReader(path)
	require.NoError(t, err)
	r2, err := NewReader(path)
	require.NoError(t, err)

	// A writer cannot cut in while shared locks are held.
	_, err = NewWriter(path, Append)
	require.ErrorIs(t, err, ErrLocked)

	var rows1, rows2 int
	require.NoError(t, r1.Read(func(Row, int) { rows1++ }))
	require.NoError(t, r2.Read(func(Row, int) { rows2++ }))
	require.Equal(t, 2, rows1)
	require.Equal(t, 2, rows2)
}

func TestWritersExcludeEachOther(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclusive.csv")
	w1, err := NewWriter(path, Truncate)
	require.NoError(t, err)

	_, err = NewWriter(path, Truncate)
	require.ErrorIs(t, err, ErrLocked)

	// Readers are blocked by the exclusive lock as well.
	_, err = NewReader(path)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, w1.Write(Items([][]string{{"1"}}), func(item any, _ int) Result {
		return Fields(item.([]string)...)
	}))

	// Once the write completes the lock is free again.
	w2, err := NewWriter(path, Append)
	require.NoError(t, err)
	require.NoError(t, w2.Write(Items([][]string(nil)), func(item any, _ int) Result {
		return Fields(item.([]string)...)
	}))
}
