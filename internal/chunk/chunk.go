// Package chunk decodes entry payloads stored as a sequence of independently
// zlib-compressed chunks.
//
// Each chunk inflates to at most [MaxChunkSize] bytes. A chunk is framed by a
// little-endian size field whose width depends on the [Variant], optionally
// followed by trailer bytes that carry no information.
package chunk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/sizing"
)

// MaxChunkSize is the decompressed size of every chunk but the last.
const MaxChunkSize = 16384

// readBufferSize sizes the buffered reader placed over the payload.
const readBufferSize = 64 << 10

// Variant describes the chunk framing.
type Variant struct {
	// Name identifies the variant in configuration and logs.
	Name string

	// SizeWidth is the width of the chunk size field in bytes (2 or 4).
	SizeWidth int

	// Trailer is the number of bytes to discard after the size field.
	Trailer int
}

// Chunk framings.
var (
	// Standard frames chunks with a 16-bit size and 8 trailer bytes.
	Standard = Variant{Name: "standard", SizeWidth: 2, Trailer: 8}

	// FE frames chunks with a 32-bit size and no trailer.
	FE = Variant{Name: "fe", SizeWidth: 4}
)

// String returns the variant name.
func (v Variant) String() string {
	return v.Name
}

// ParseVariant returns the variant named s. An empty name selects Standard.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", Standard.Name:
		return Standard, nil
	case FE.Name:
		return FE, nil
	default:
		return Variant{}, fmt.Errorf("unknown chunk variant %q", s)
	}
}

// Decoder reassembles entry payloads.
//
// A Decoder is safe for concurrent use; each Decode call holds its own
// buffers and borrows readers from a shared pool.
type Decoder struct {
	variant Variant
	pool    *Pool
	logger  *slog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithVariant selects the chunk framing (default: Standard).
func WithVariant(v Variant) Option {
	return func(d *Decoder) {
		d.variant = v
	}
}

// WithLogger sets the logger for chunk-level diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{variant: Standard, pool: NewPool()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// log returns the logger, falling back to a discard logger if nil.
func (d *Decoder) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}

// Variant returns the configured framing.
func (d *Decoder) Variant() Variant {
	return d.variant
}

// Decode reads one entry payload from r and writes fileSize bytes to w.
//
// r must be positioned at the first payload byte. When compSize equals
// fileSize the payload is copied verbatim. Otherwise chunks are read and
// inflated until fileSize bytes have been produced; output is written chunk
// by chunk. Decode returns the number of bytes written to w.
//
// Malformed or truncated chunks, and chunk sizes larger than what is left
// of compSize, return an error matching ErrDecompression.
func (d *Decoder) Decode(r io.Reader, compSize, fileSize uint64, w io.Writer) (uint64, error) {
	if compSize == fileSize {
		return copyStored(r, fileSize, w)
	}

	br := bufio.NewReaderSize(r, readBufferSize)
	out := make([]byte, MaxChunkSize)
	var comp []byte
	var written uint64

	frame := uint64(d.variant.SizeWidth + d.variant.Trailer) //nolint:gosec // both fields are small constants
	left := compSize
	remaining := fileSize
	for index := 0; remaining > 0; index++ {
		size, err := d.readFrame(br)
		if err != nil {
			return written, fmt.Errorf("%w: chunk %d header: %v", rdbtype.ErrDecompression, index, truncated(err))
		}
		if left < frame || uint64(size) > left-frame {
			return written, fmt.Errorf("%w: chunk %d: size %d exceeds the %d payload bytes left",
				rdbtype.ErrDecompression, index, size, left-min(left, frame))
		}
		left -= frame + uint64(size)
		if cap(comp) < int(size) {
			comp = make([]byte, size)
		}
		comp = comp[:size]
		if _, err := io.ReadFull(br, comp); err != nil {
			return written, fmt.Errorf("%w: chunk %d data: %v", rdbtype.ErrDecompression, index, truncated(err))
		}

		target := uint64(MaxChunkSize)
		if remaining < target {
			target = remaining
		}
		if err := d.inflate(comp, out[:target]); err != nil {
			return written, fmt.Errorf("%w: chunk %d: %v", rdbtype.ErrDecompression, index, err)
		}
		if _, err := w.Write(out[:target]); err != nil {
			return written, err
		}
		written += target
		remaining -= target
		d.log().Debug("chunk inflated", "index", index, "compressed", size, "size", target)
	}
	return written, nil
}

// readFrame reads the chunk size field and discards the trailer.
func (d *Decoder) readFrame(br *bufio.Reader) (uint32, error) {
	var field [4]byte
	if _, err := io.ReadFull(br, field[:d.variant.SizeWidth]); err != nil {
		return 0, err
	}
	var size uint32
	switch d.variant.SizeWidth {
	case 2:
		size = uint32(binary.LittleEndian.Uint16(field[:2]))
	case 4:
		size = binary.LittleEndian.Uint32(field[:4])
	default:
		return 0, fmt.Errorf("unsupported size field width %d", d.variant.SizeWidth)
	}
	if d.variant.Trailer > 0 {
		if _, err := br.Discard(d.variant.Trailer); err != nil {
			return 0, err
		}
	}
	return size, nil
}

// inflate decompresses comp into exactly len(dst) bytes.
func (d *Decoder) inflate(comp, dst []byte) error {
	zr, release, err := d.pool.Get(bytes.NewReader(comp))
	if err != nil {
		return err
	}
	defer release()

	n, err := io.ReadFull(zr, dst)
	if err != nil {
		return fmt.Errorf("inflated %d of %d bytes: %w", n, len(dst), truncated(err))
	}
	return ensureNoExtra(zr)
}

// copyStored copies an uncompressed payload.
func copyStored(r io.Reader, size uint64, w io.Writer) (uint64, error) {
	limit, err := sizing.ToInt64(size, rdbtype.ErrSizeOverflow)
	if err != nil {
		return 0, err
	}
	n, err := io.CopyN(w, r, limit)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return uint64(n), fmt.Errorf("%w: short stored payload (%d of %d bytes)", rdbtype.ErrFormat, n, size) //nolint:gosec // n is non-negative
		}
		return uint64(n), err //nolint:gosec // n is non-negative
	}
	return size, nil
}

// ensureNoExtra returns an error if r still yields data.
func ensureNoExtra(r io.Reader) error {
	var scratch [1]byte
	n, err := r.Read(scratch[:])
	if n > 0 {
		return errors.New("chunk inflates past its target size")
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// truncated maps EOF conditions to io.ErrUnexpectedEOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
