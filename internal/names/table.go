// Package names holds the shared hash to display-name table and the rules
// that synthesize candidate names from companion name files.
package names

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/meigma/fdata/internal/rdbtype"
)

// Table maps 8-digit lowercase hex name hashes to display names.
//
// Table is safe for concurrent use. Adding a hash that is already present
// replaces the stored name, so the most recently added entry wins. After
// Freeze, Add returns ErrFrozen and reads no longer contend with writers.
type Table struct {
	mu     sync.RWMutex
	names  map[string]string
	frozen bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{names: make(map[string]string)}
}

// Add records name under hash. hash is normalized to lowercase without a
// "0x" prefix.
func (t *Table) Add(hash, name string) error {
	key := normalize(hash)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return rdbtype.ErrFrozen
	}
	t.names[key] = name
	return nil
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Lookup returns the display name stored for hash.
func (t *Table) Lookup(hash string) (string, bool) {
	key := normalize(hash)
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.names[key]
	return name, ok
}

// Resolve returns the display name for a synthesized file name such as
// "0x1a2b3c4d.g1m". The extension is ignored when matching; the base name
// is compared case-insensitively with an optional "0x" prefix. Unknown
// names are returned unchanged.
func (t *Table) Resolve(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if name, ok := t.Lookup(stem); ok {
		return name
	}
	return filename
}

// Len returns the number of distinct hashes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// LoadCSV adds "Hash,Name" rows from src. A first row that does not look
// like a hash is treated as a header. Blank names are ignored.
func (t *Table) LoadCSV(src io.Reader) (int, error) {
	r := csv.NewReader(src)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	added := 0
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return added, nil
		}
		if err != nil {
			return added, fmt.Errorf("read name table: %w", err)
		}
		if len(rec) < 2 {
			return added, fmt.Errorf("name table line %d: expected 2 fields, got %d", line, len(rec))
		}
		hash := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if !isHash(hash) {
			if line == 1 {
				continue
			}
			return added, fmt.Errorf("name table line %d: invalid hash %q", line, hash)
		}
		if name == "" {
			continue
		}
		if err := t.Add(hash, name); err != nil {
			return added, err
		}
		added++
	}
}

// normalize lowercases hash, strips an optional "0x" prefix and left-pads
// short hex values to 8 digits so "0x1F" and "0000001f" compare equal.
func normalize(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	hash = strings.TrimPrefix(hash, "0x")
	if len(hash) < 8 && isHex(hash) {
		hash = strings.Repeat("0", 8-len(hash)) + hash
	}
	return hash
}

func isHash(s string) bool {
	s = normalize(s)
	return len(s) == 8 && isHex(s)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
