// # csv: A Streaming File-Backed CSV Codec for Go
//
// Package csv reads and writes delimited text files with header
// reconciliation, character-encoding normalization, and advisory file
// locking for concurrent-access safety.
//
// # Features
//
// - Streaming Reader that parses every line into a row and delivers it to a callback, with optional header-keyed access.
// - Streaming Writer that drains an iterable of application items, materializing each into a line through a callback.
// - Configurable delimiter, enclosure, and escape characters on both components.
// - Source-encoding auto-detection and per-field conversion to a target encoding (UTF-8 by default).
// - Shared locks for readers and exclusive locks for writers, released on every exit path.
// - Structured error reporting via `FieldCountError`, `ErrLocked`, `ErrClosed`, and `ErrInvalidResult`.
//
// # Getting Started
//
// Construct a Reader or Writer from a file path, chain the fluent setters
// to adjust the codec, then call Read or Write exactly once. Both
// operations tear the stream down when they return; the instance cannot be
// reused afterwards.
package csv
