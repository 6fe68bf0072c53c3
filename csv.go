package csv

// Default codec configuration shared by Reader and Writer.
const (
	DefaultDelimiter = ','
	DefaultEnclosure = '"'
	DefaultEscape    = '\\'

	// DefaultTargetEncoding is the encoding fields are converted to unless
	// configured otherwise.
	DefaultTargetEncoding = "UTF-8"
)

// streamState tracks the one-way lifecycle of a Reader or Writer:
// constructed-and-locked, streaming, closed. There is no way back.
type streamState int

const (
	stateReady streamState = iota
	stateStreaming
	stateClosed
)
