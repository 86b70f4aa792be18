package fdata

import "github.com/meigma/fdata/internal/rdbtype"

// Errors re-exported from rdbtype.
var (
	// ErrFormat is returned when a container, name file or object graph is malformed.
	ErrFormat = rdbtype.ErrFormat

	// ErrDecompression is returned when a compressed chunk cannot be decoded.
	ErrDecompression = rdbtype.ErrDecompression

	// ErrSizeOverflow is returned when a size value overflows.
	ErrSizeOverflow = rdbtype.ErrSizeOverflow

	// ErrFrozen is returned when a shared table is modified after its phase ended.
	ErrFrozen = rdbtype.ErrFrozen
)

// FormatError describes a framing violation at a specific offset.
// It matches ErrFormat with errors.Is.
type FormatError = rdbtype.FormatError
