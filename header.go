package csv

import "slices"

type headerMode int

const (
	headerDisabled headerMode = iota
	headerAuto
	headerFixed
)

// Header selects how rows relate to column names. The zero value disables
// headers entirely; AutoHeader resolves names from the first line of the
// file; Columns fixes an explicit name sequence.
type Header struct {
	mode  headerMode
	names []string
}

// NoHeader disables header handling: rows are plain field sequences.
var NoHeader = Header{}

// AutoHeader makes the Reader consume the first parsed line as the header.
// It is not accepted by the Writer, which has nothing to detect from.
var AutoHeader = Header{mode: headerAuto}

// Columns builds a fixed header from an explicit sequence of column names.
func Columns(names ...string) Header {
	return Header{mode: headerFixed, names: slices.Clone(names)}
}

// Enabled reports whether any header mode other than NoHeader is set.
func (h Header) Enabled() bool {
	return h.mode != headerDisabled
}

// Names returns a copy of the fixed column names, or nil for NoHeader and
// an unresolved AutoHeader.
func (h Header) Names() []string {
	return slices.Clone(h.names)
}
