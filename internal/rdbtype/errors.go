package rdbtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for container operations.
var (
	// ErrFormat is returned when a container, name file or object graph is malformed.
	ErrFormat = errors.New("fdata: malformed container")

	// ErrDecompression is returned when a compressed chunk cannot be decoded.
	ErrDecompression = errors.New("fdata: decompression failed")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("fdata: size overflow")

	// ErrFrozen is returned when a shared table is modified after it was frozen.
	ErrFrozen = errors.New("fdata: table is frozen")
)

// FormatError describes a framing violation at a specific stream offset.
//
// FormatError matches ErrFormat with errors.Is.
type FormatError struct {
	// Offset is the stream offset at which the violation was detected.
	Offset int64

	// Reason describes the violation.
	Reason string
}

// Error implements error.
func (e *FormatError) Error() string {
	return fmt.Sprintf("fdata: malformed container at 0x%X: %s", e.Offset, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Formatf returns a FormatError for the given offset.
func Formatf(offset int64, format string, args ...any) error {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
