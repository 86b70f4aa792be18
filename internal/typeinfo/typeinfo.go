// Package typeinfo maps type-info identifiers to output file extensions.
package typeinfo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Well-known type-info identifiers referenced outside this package.
const (
	G1M        uint32 = 0x563BDEF1
	G1A        uint32 = 0x6FA91671
	G1T        uint32 = 0xAFBEC60C
	KIDSObjDB  uint32 = 0x20A6A0BB
	KIDSTask   uint32 = 0x1FDCAA40
	KIDSRender uint32 = 0xB1630F51
	G1P        uint32 = 0x79C724C2
)

// builtin is the extension table shipped with the tool.
var builtin = map[uint32]string{
	G1M:        "g1m",
	G1A:        "g1a",
	G1T:        "g1t",
	0x8E39AA37: "ktid",
	0xBE144B78: "ktid",
	KIDSObjDB:  "kidsobjdb",
	0x5153729B: "mtl",
	0xB340861A: "mtl",
	0x56EFE45C: "grp",
	0xBBF9B49D: "grp",
	0x0D34474D: "srst",
	0x27BC54B7: "rigbin",
	0x54738C76: "g1co",
	0x56D8DEDA: "sid",
	0x5C3E543C: "swg",
	0x7BCD279F: "g1s",
	0x9CB3A4B6: "oidex",
	0xBBD39F2D: "srsa",
	0x1AB40AE8: "oid",
	0xED410290: "kts",
	KIDSTask:   "kidstask",
	0x4D0102AC: "g1em",
	0x5599AA51: "kscl",
	0xB097D41F: "g1e",
	KIDSRender: "kidsrender",
	0xD7F47FB1: "efpl",
	0xF20DE437: "texinfo",
	0xF13845EF: "sclshape",
	0xA8D88566: "g1cox",
	0x17614AF5: "g1mx",
	G1P:        "g1p",
	0xB0A14534: "sgcbin",
}

// Registry resolves type-info identifiers to extensions.
//
// A Registry is built once and is read-only afterwards; it is safe for
// concurrent lookups.
type Registry struct {
	exts map[uint32]string
}

// New returns a Registry holding the built-in table.
func New() *Registry {
	exts := make(map[uint32]string, len(builtin))
	for k, v := range builtin {
		exts[k] = v
	}
	return &Registry{exts: exts}
}

// Lookup returns the extension registered for typeInfo.
func (r *Registry) Lookup(typeInfo uint32) (string, bool) {
	ext, ok := r.exts[typeInfo]
	return ext, ok
}

// Extension returns the registered extension for typeInfo, or the
// identifier itself rendered as "0x%X" when it is unknown.
func (r *Registry) Extension(typeInfo uint32) string {
	if ext, ok := r.exts[typeInfo]; ok {
		return ext
	}
	return Hex(typeInfo)
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	return len(r.exts)
}

// Hex renders an identifier the way unnamed outputs are named.
func Hex(id uint32) string {
	return fmt.Sprintf("0x%X", id)
}

// ParseID parses an identifier written as hex, with or without a 0x prefix.
func ParseID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse type-info %q: %w", s, err)
	}
	return uint32(v), nil
}

// Load merges a two-column CSV table (type-info, extension) into the
// registry. A header row whose first column is not a hex value is skipped.
// Entries from r override built-in ones.
func (r *Registry) Load(src io.Reader) error {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read extension table: %w", err)
		}
		line++
		if len(rec) < 2 {
			return fmt.Errorf("extension table line %d: want 2 columns, got %d", line, len(rec))
		}
		id, err := ParseID(rec[0])
		if err != nil {
			if line == 1 {
				continue
			}
			return fmt.Errorf("extension table line %d: %w", line, err)
		}
		ext := strings.TrimPrefix(strings.TrimSpace(rec[1]), ".")
		if ext == "" {
			return fmt.Errorf("extension table line %d: empty extension", line)
		}
		r.exts[id] = ext
	}
}
