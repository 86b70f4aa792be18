// Package manifest records extracted files as JSON lines.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/opencontainers/go-digest"
)

// Record describes one extracted file.
type Record struct {
	// Path is the output path relative to the output root, slash-separated.
	Path string `json:"path"`

	// Container is the input file the entry was read from.
	Container string `json:"container"`

	// Offset is the entry offset within Container.
	Offset int64 `json:"offset"`

	FileKtid     uint32 `json:"fileKtid"`
	TypeInfoKtid uint32 `json:"typeInfoKtid"`

	// Size is the decompressed size.
	Size uint64 `json:"size"`

	// Stored is true when the payload was not compressed.
	Stored bool `json:"stored,omitempty"`

	// Digest is the content digest of the output file.
	Digest digest.Digest `json:"digest"`
}

// Writer appends records to a JSON lines stream.
//
// Writer is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	count  int
}

// NewWriter returns a Writer that encodes records to w.
func NewWriter(w io.Writer) *Writer {
	mw := &Writer{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		mw.closer = c
	}
	return mw
}

// Create creates (or truncates) the manifest file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("create manifest: %w", err)
	}
	return NewWriter(f), nil
}

// Add writes one record.
func (w *Writer) Add(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write manifest record: %w", err)
	}
	w.count++
	return nil
}

// Len returns the number of records written.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying writer if it is an io.Closer.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// Digester computes the canonical content digest of bytes written to it.
type Digester struct {
	d    digest.Digester
	size uint64
}

// NewDigester returns a digester using the canonical algorithm.
func NewDigester() *Digester {
	return &Digester{d: digest.Canonical.Digester()}
}

// Write implements io.Writer.
func (d *Digester) Write(p []byte) (int, error) {
	n, err := d.d.Hash().Write(p)
	d.size += uint64(n) //nolint:gosec // n is non-negative
	return n, err
}

// Digest returns the digest of everything written so far.
func (d *Digester) Digest() digest.Digest {
	return d.d.Digest()
}

// Size returns the number of bytes written.
func (d *Digester) Size() uint64 {
	return d.size
}

// Read decodes every record in r.
func Read(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	var out []Record
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return out, fmt.Errorf("read manifest record %d: %w", len(out)+1, err)
		}
		if err := rec.Digest.Validate(); err != nil {
			return out, fmt.Errorf("manifest record %s: %w", rec.Path, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
