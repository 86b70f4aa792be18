package fdata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/fdata/internal/container"
	"github.com/meigma/fdata/internal/extract"
	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/typeinfo"
)

// Header is the header of an RDB index file.
type Header = rdbtype.Header

// Entry is one container entry header with its offsets.
type Entry = rdbtype.Entry

// EntryInfo describes one container entry.
type EntryInfo struct {
	Entry

	// Extension is the extension resolved from the type-info identifier.
	Extension string
}

// InspectResult describes a file without extracting it.
type InspectResult struct {
	// Path is the inspected file.
	Path string

	// Kind is the file kind derived from its name.
	Kind Kind

	// Header is set for RDB index files.
	Header *Header

	// Entries lists the entries of containers and loose files.
	Entries []EntryInfo
}

// TotalFileSize returns the sum of all decompressed entry sizes.
func (r *InspectResult) TotalFileSize() uint64 {
	var total uint64
	for _, e := range r.Entries {
		total += e.FileSize
	}
	return total
}

// TotalCompSize returns the sum of all stored payload sizes.
func (r *InspectResult) TotalCompSize() uint64 {
	var total uint64
	for _, e := range r.Entries {
		total += e.CompSize
	}
	return total
}

// Inspect lists the entries of a container or loose file, or reads the
// header of an RDB index file. Entries read before a framing error are
// returned along with the error.
func Inspect(path string) (*InspectResult, error) {
	res := &InspectResult{Path: path, Kind: Classify(path)}
	switch res.Kind {
	case KindIndex:
		f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
		if err != nil {
			return nil, fmt.Errorf("fdata: inspect: %w", err)
		}
		defer f.Close()
		hdr, err := container.ReadHeader(f)
		if err != nil {
			return nil, fmt.Errorf("fdata: inspect %s: %w", path, err)
		}
		res.Header = hdr
		return res, nil
	case KindContainer, KindLoose:
	default:
		return nil, fmt.Errorf("fdata: inspect %s: unsupported %s file", path, res.Kind)
	}

	src, err := container.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("fdata: inspect: %w", err)
	}
	defer src.Close()

	exts := typeinfo.New()
	r := container.NewReader(src, container.WithStart(extract.StartOffset(path)))
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("fdata: inspect %s: %w", path, err)
		}
		res.Entries = append(res.Entries, EntryInfo{
			Entry:     *entry,
			Extension: exts.Extension(entry.TypeInfoKtid),
		})
	}
}
