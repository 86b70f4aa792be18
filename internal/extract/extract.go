// Package extract writes the entries of one container to the output tree.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/meigma/fdata/internal/batch"
	"github.com/meigma/fdata/internal/chunk"
	"github.com/meigma/fdata/internal/container"
	"github.com/meigma/fdata/internal/group"
	"github.com/meigma/fdata/internal/manifest"
	"github.com/meigma/fdata/internal/names"
	"github.com/meigma/fdata/internal/pathutil"
	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/typeinfo"
)

// LooseExt is the extension of loose single-entry files.
const LooseExt = ".file"

// Extensions resolves type-info identifiers to extensions.
type Extensions interface {
	Extension(typeInfo uint32) string
}

// Names resolves synthesized file names to display names.
type Names interface {
	Resolve(filename string) string
}

// Groups resolves files to group folders.
type Groups interface {
	Resolve(typeInfo, fileKtid uint32) string
}

// Sink receives output files.
type Sink interface {
	ShouldProcess(name string) bool
	Writer(name string) (batch.Committer, error)
	Path(name string) string
}

// Manifest records extracted files.
type Manifest interface {
	Add(rec manifest.Record) error
}

// Result summarizes the extraction of one container.
type Result struct {
	// Path is the container path.
	Path string

	// Entries is the number of entries read.
	Entries int

	// Extracted, Skipped and Failed partition Entries.
	Extracted int
	Skipped   int
	Failed    int

	// Bytes is the number of bytes written.
	Bytes uint64

	// ObjectGraphs lists output files holding object graphs, whether
	// extracted now or already present.
	ObjectGraphs []string

	// Err is set when the container was abandoned.
	Err error
}

// OK reports whether the container was processed to the end.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Driver extracts containers.
//
// A Driver is safe for concurrent use once configured; the tables it reads
// must not be modified while containers are processed.
type Driver struct {
	sink     Sink
	exts     Extensions
	names    Names
	groups   Groups
	decoder  *chunk.Decoder
	manifest Manifest
	logger   *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithExtensions sets the extension table (default: built-in registry).
func WithExtensions(e Extensions) Option {
	return func(d *Driver) {
		d.exts = e
	}
}

// WithNames sets the name table (default: empty).
func WithNames(n Names) Option {
	return func(d *Driver) {
		d.names = n
	}
}

// WithGroups sets the group table (default: overrides only).
func WithGroups(g Groups) Option {
	return func(d *Driver) {
		d.groups = g
	}
}

// WithDecoder sets the payload decoder (default: standard chunk framing).
func WithDecoder(dec *chunk.Decoder) Option {
	return func(d *Driver) {
		d.decoder = dec
	}
}

// WithManifest records every extracted file.
func WithManifest(m Manifest) Option {
	return func(d *Driver) {
		d.manifest = m
	}
}

// WithLogger sets the logger for extraction diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver writing to sink.
func NewDriver(sink Sink, opts ...Option) *Driver {
	d := &Driver{sink: sink}
	for _, opt := range opts {
		opt(d)
	}
	if d.exts == nil {
		d.exts = typeinfo.New()
	}
	if d.names == nil {
		d.names = names.NewTable()
	}
	if d.groups == nil {
		d.groups = group.NewTable()
	}
	if d.decoder == nil {
		d.decoder = chunk.NewDecoder()
	}
	return d
}

// log returns the logger, falling back to a discard logger if nil.
func (d *Driver) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}

// StartOffset returns the offset of the first entry in the file at path.
func StartOffset(path string) int64 {
	if strings.EqualFold(filepath.Ext(path), LooseExt) {
		return container.LooseSkip
	}
	return container.HeaderSkip
}

// Process extracts the container at path.
func (d *Driver) Process(ctx context.Context, path string) Result {
	src, err := container.OpenFile(path)
	if err != nil {
		res := Result{Path: path, Err: err}
		d.log().Error("open container failed", "path", path, "error", err)
		return res
	}
	defer src.Close()
	return d.ProcessSource(ctx, path, src, StartOffset(path))
}

// ProcessSource extracts entries from src starting at offset start.
//
// A chunk that cannot be decompressed fails only its entry; the partial
// output is discarded and the next entry is read. Framing and output errors
// abandon the container and are reported in Result.Err.
func (d *Driver) ProcessSource(ctx context.Context, name string, src container.ByteSource, start int64) Result {
	res := Result{Path: name}
	log := d.log().With("path", name)
	r := container.NewReader(src, container.WithStart(start), container.WithLogger(d.logger))

	for {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Err = err
			break
		}
		res.Entries = r.Count()

		if err := d.entry(r, entry, name, &res, log); err != nil {
			res.Err = err
			break
		}
	}

	if res.Err != nil {
		log.Error("container abandoned", "offset", r.Offset(), "error", res.Err)
	} else {
		log.Info("container processed",
			"entries", res.Entries,
			"extracted", res.Extracted,
			"skipped", res.Skipped,
			"failed", res.Failed,
			"bytes", res.Bytes)
	}
	return res
}

// OutputName returns the slash-separated output path of an entry relative
// to the output root: <group>/<ext>/<name>. Each element is reduced to a
// single path component.
func (d *Driver) OutputName(entry *rdbtype.Entry) string {
	ext := d.exts.Extension(entry.TypeInfoKtid)
	filename := d.names.Resolve(typeinfo.Hex(entry.FileKtid) + "." + ext)
	folder := d.groups.Resolve(entry.TypeInfoKtid, entry.FileKtid)
	return pathutil.Join(folder, ext, filename)
}

// entry handles one entry. A returned error abandons the container.
func (d *Driver) entry(r *container.Reader, entry *rdbtype.Entry, name string, res *Result, log *slog.Logger) error {
	out := d.OutputName(entry)
	isGraph := entry.TypeInfoKtid == typeinfo.KIDSObjDB
	log = log.With("offset", entry.Offset, "output", out)

	if !d.sink.ShouldProcess(out) {
		log.Debug("output exists, skipping entry")
		res.Skipped++
		if isGraph {
			res.ObjectGraphs = append(res.ObjectGraphs, d.sink.Path(out))
		}
		return nil
	}

	w, err := d.sink.Writer(out)
	if err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}

	var dst io.Writer = w
	var digester *manifest.Digester
	if d.manifest != nil {
		digester = manifest.NewDigester()
		dst = io.MultiWriter(w, digester)
	}

	n, err := d.decoder.Decode(r.Payload(entry), entry.CompSize, entry.FileSize, dst)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		if errors.Is(err, rdbtype.ErrDecompression) {
			log.Warn("entry failed", "error", err)
			res.Failed++
			return nil
		}
		return fmt.Errorf("%s: %w", out, err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}

	res.Extracted++
	res.Bytes += n
	if isGraph {
		res.ObjectGraphs = append(res.ObjectGraphs, d.sink.Path(out))
	}
	log.Debug("entry extracted",
		"fileKtid", typeinfo.Hex(entry.FileKtid),
		"typeInfo", typeinfo.Hex(entry.TypeInfoKtid),
		"size", n,
		"stored", entry.Stored())

	if d.manifest != nil {
		rec := manifest.Record{
			Path:         out,
			Container:    name,
			Offset:       entry.Offset,
			FileKtid:     entry.FileKtid,
			TypeInfoKtid: entry.TypeInfoKtid,
			Size:         n,
			Stored:       entry.Stored(),
			Digest:       digester.Digest(),
		}
		if err := d.manifest.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
