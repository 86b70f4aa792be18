// Package namefile parses companion name files.
//
// A name file starts with a 24-byte header that is skipped, followed by
// entries aligned to 4 bytes:
//
//	magic "IDRK" | version "0000" | entrySize | fileKtid | typeInfoKtid | stringCount
//	stringCount pointers, relative to the entry start
//	NUL-terminated UTF-8 strings
//
// The first string is the target name wrapped in marker triples and the
// second is its classification.
package namefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/meigma/fdata/internal/namehash"
	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/sizing"
)

// HeaderSkip is the number of bytes before the first entry.
const HeaderSkip = 24

// entryHeaderSize is the size of the fixed fields of an entry.
const entryHeaderSize = 24

// minStrings is the number of strings every entry must carry.
const minStrings = 2

// Record is one parsed name file entry.
type Record struct {
	// FileKtid and TypeInfoKtid identify the named object.
	FileKtid     uint32
	TypeInfoKtid uint32

	// Class is the classification string, e.g. "TypeInfo::Object::3D::Model".
	Class string

	// Name is the target name with its markers stripped.
	Name string
}

// ParseFile reads and parses the name file at path.
func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from directory discovery
	if err != nil {
		return nil, fmt.Errorf("read name file: %w", err)
	}
	records, err := Parse(data)
	if err != nil {
		return records, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse parses a name file held in memory. Records decoded before a framing
// error are returned along with the error.
func Parse(data []byte) ([]Record, error) {
	var records []Record
	pos := int64(HeaderSkip)
	size := int64(len(data))
	for pos < size {
		rec, next, err := parseEntry(data, pos)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
		pos = next
	}
	return records, nil
}

func parseEntry(data []byte, base int64) (Record, int64, error) {
	size := int64(len(data))
	if size-base < entryHeaderSize {
		return Record{}, 0, rdbtype.Formatf(base, "truncated name entry header (%d bytes remain)", size-base)
	}
	hdr := data[base:]
	magic := binary.LittleEndian.Uint32(hdr[0:])
	version := binary.LittleEndian.Uint32(hdr[4:])
	entrySize := int64(binary.LittleEndian.Uint32(hdr[8:]))
	count := int64(binary.LittleEndian.Uint32(hdr[20:]))

	switch {
	case magic != rdbtype.EntryMagic:
		return Record{}, 0, rdbtype.Formatf(base, "bad name entry magic 0x%08X", magic)
	case version != rdbtype.Version:
		return Record{}, 0, rdbtype.Formatf(base, "bad name entry version 0x%08X", version)
	case count < minStrings:
		return Record{}, 0, rdbtype.Formatf(base, "name entry has %d strings, need %d", count, minStrings)
	case entrySize < entryHeaderSize+4*count:
		return Record{}, 0, rdbtype.Formatf(base, "name entry size 0x%X too small for %d strings", entrySize, count)
	case entrySize > size-base:
		return Record{}, 0, rdbtype.Formatf(base, "name entry size 0x%X runs past end of file", entrySize)
	}

	entry := data[base : base+entrySize]
	target, err := cString(entry, binary.LittleEndian.Uint32(entry[entryHeaderSize:]))
	if err != nil {
		return Record{}, 0, rdbtype.Formatf(base, "target name: %v", err)
	}
	class, err := cString(entry, binary.LittleEndian.Uint32(entry[entryHeaderSize+4:]))
	if err != nil {
		return Record{}, 0, rdbtype.Formatf(base, "classification: %v", err)
	}

	rec := Record{
		FileKtid:     binary.LittleEndian.Uint32(hdr[12:]),
		TypeInfoKtid: binary.LittleEndian.Uint32(hdr[16:]),
		Class:        class,
		Name:         namehash.StripMarkers(target),
	}
	return rec, sizing.Align4(base + entrySize), nil
}

// cString returns the NUL-terminated string at off within entry.
func cString(entry []byte, off uint32) (string, error) {
	if int64(off) >= int64(len(entry)) {
		return "", fmt.Errorf("pointer 0x%X outside entry of 0x%X bytes", off, len(entry))
	}
	s := entry[off:]
	end := bytes.IndexByte(s, 0)
	if end == -1 {
		return "", fmt.Errorf("string at 0x%X is not terminated", off)
	}
	return string(s[:end]), nil
}
