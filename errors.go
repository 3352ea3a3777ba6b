// Package grist implements a compact self-delimiting record-oriented
// binary log format, its line-delimited JSON analogue, and a search core
// that finds records matching structured patterns.
//
// A grist file is a fixed-size header followed by a stream of checksummed
// frames. Value frames carry one record each; dictionary frames maintain
// a string-interning table that value frames reference by index. Frames
// carry their size both leading and trailing, so the stream can be walked
// in either direction and an arbitrary byte offset can be re-synchronised
// to a true frame boundary.
//
// Searching comes in two modes: a linear scan with before/after context
// buffering, and a binary search over byte offsets for files whose
// records are ordered by the patterned value. Both modes evaluate the
// pattern against the SAX-style event stream of each record without
// materialising it.
package grist

import "errors"

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// distinguish usage errors (ErrNotSeekable, ErrNoPattern) from corruption
// (ErrCorruptHeader, ErrCorruptFrame, ErrChecksum, ErrSyncLost,
// ErrDictMiss).
var (
	ErrCorruptHeader = errors.New("corrupt file header")
	ErrCorruptFrame  = errors.New("corrupt frame")
	ErrCorruptValue  = errors.New("corrupt value encoding")
	ErrChecksum      = errors.New("frame checksum mismatch")
	ErrSyncLost      = errors.New("cannot locate frame boundary")
	ErrDictMiss      = errors.New("dictionary entry not retained")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrTooDeep       = errors.New("value nesting too deep")
	ErrNotSeekable   = errors.New("source is not seekable")
	ErrNoPattern     = errors.New("no value pattern supplied")
	ErrBadTimeRange  = errors.New("invalid timestamp pattern")
)
