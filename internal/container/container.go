// Package container reads the IDRK entry framing of FData containers.
//
// A container starts with a 16-byte file header that is skipped, followed by
// entries. Every entry is a fixed 0x30-byte header, an opaque region, and the
// payload. The next entry starts at the entry base plus EntrySize, rounded up
// to a multiple of 16.
package container

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"

	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/sizing"
)

// Start offsets of the first entry.
const (
	// HeaderSkip is the offset of the first entry in an .fdata container.
	HeaderSkip = 0x10

	// LooseSkip is the offset of the entry in a loose .file file.
	LooseSkip = 0
)

// ByteSource provides random access to container data.
//
// Files on disk are opened with OpenFile.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Reader walks the entries of a container.
//
// A Reader is not safe for concurrent use; payload readers returned by
// Payload may be used independently of the Reader.
type Reader struct {
	src    ByteSource
	pos    int64
	count  int
	logger *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithStart sets the offset of the first entry (default: HeaderSkip).
func WithStart(offset int64) Option {
	return func(r *Reader) {
		r.pos = offset
	}
}

// WithLogger sets the logger for entry-level diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader over src.
func NewReader(src ByteSource, opts ...Option) *Reader {
	r := &Reader{src: src, pos: HeaderSkip}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int64 {
	return r.pos
}

// Count returns the number of entries returned so far.
func (r *Reader) Count() int {
	return r.count
}

// Next decodes the entry at the cursor and advances the cursor to the
// 16-byte aligned offset following it.
//
// Next returns io.EOF when no bytes remain. An entry header that cannot be
// read completely, a magic or version mismatch, or sizes that do not fit the
// stream return a *rdbtype.FormatError.
func (r *Reader) Next() (*rdbtype.Entry, error) {
	size := r.src.Size()
	base := r.pos
	if base >= size {
		return nil, io.EOF
	}
	if size-base < rdbtype.EntryHeaderSize {
		return nil, rdbtype.Formatf(base, "truncated entry header (%d of %d bytes)", size-base, rdbtype.EntryHeaderSize)
	}

	var raw [rdbtype.EntryHeaderSize]byte
	if _, err := r.src.ReadAt(raw[:], base); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	entry := &rdbtype.Entry{
		EntryHeader: decodeHeader(raw[:]),
		Offset:      base,
	}
	if err := validate(entry, size); err != nil {
		return nil, err
	}
	entry.PayloadOffset = entry.End() - int64(entry.CompSize) //nolint:gosec // CompSize <= EntrySize, validated

	r.log().Debug("entry",
		"offset", base,
		"entry_size", entry.EntrySize,
		"comp_size", entry.CompSize,
		"file_size", entry.FileSize,
		"file_ktid", entry.FileKtid,
		"type_info", entry.TypeInfoKtid,
	)

	r.pos = sizing.Align16(entry.End())
	r.count++
	return entry, nil
}

// Payload returns a reader bounded to the entry's payload bytes.
func (r *Reader) Payload(entry *rdbtype.Entry) *io.SectionReader {
	return io.NewSectionReader(r.src, entry.PayloadOffset, int64(entry.CompSize)) //nolint:gosec // validated by Next
}

func decodeHeader(b []byte) rdbtype.EntryHeader {
	le := binary.LittleEndian
	return rdbtype.EntryHeader{
		Magic:        le.Uint32(b[0x00:]),
		Version:      le.Uint32(b[0x04:]),
		EntrySize:    le.Uint64(b[0x08:]),
		CompSize:     le.Uint64(b[0x10:]),
		FileSize:     le.Uint64(b[0x18:]),
		EntryType:    le.Uint32(b[0x20:]),
		FileKtid:     le.Uint32(b[0x24:]),
		TypeInfoKtid: le.Uint32(b[0x28:]),
		Flags:        rdbtype.Flags(le.Uint32(b[0x2C:])),
	}
}

// validate checks the markers and the size relationships of an entry.
func validate(entry *rdbtype.Entry, streamSize int64) error {
	base := entry.Offset
	if entry.Magic != rdbtype.EntryMagic {
		return rdbtype.Formatf(base, "bad entry magic 0x%08X", entry.Magic)
	}
	if entry.Version != rdbtype.Version {
		return rdbtype.Formatf(base, "bad entry version 0x%08X", entry.Version)
	}
	minSize, ok := sizing.AddUint64(entry.CompSize, rdbtype.EntryHeaderSize)
	if !ok || entry.EntrySize < minSize {
		return rdbtype.Formatf(base, "entry size 0x%X smaller than compressed size 0x%X plus header", entry.EntrySize, entry.CompSize)
	}
	end, ok := sizing.AddUint64(uint64(base), entry.EntrySize) //nolint:gosec // base is non-negative
	if !ok || end > uint64(streamSize) {                       //nolint:gosec // size is non-negative
		return rdbtype.Formatf(base, "entry size 0x%X runs past end of stream", entry.EntrySize)
	}
	return nil
}
