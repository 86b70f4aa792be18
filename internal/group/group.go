// Package group assigns extracted files to output group folders.
package group

import (
	"iter"
	"maps"
	"sync"

	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/typeinfo"
)

// Folder names used by the default overrides and fallback.
const (
	Root               = "Root"
	System             = "System"
	KIDSSystemResource = "KIDSSystemResource"
	RRPreview          = "RRPreview"
)

// DefaultOverrides returns the type-info identifiers that are always routed
// to a fixed folder.
func DefaultOverrides() map[uint32]string {
	return map[uint32]string{
		typeinfo.KIDSObjDB:  System,
		typeinfo.KIDSTask:   KIDSSystemResource,
		typeinfo.KIDSRender: KIDSSystemResource,
		typeinfo.G1P:        RRPreview,
	}
}

// Source is an object-graph record as seen by the group table.
type Source interface {
	// OwnerName returns the folder assigned to every referenced identifier.
	OwnerName() string

	// ReferencedIDs yields the record's property values.
	ReferencedIDs() iter.Seq[uint32]
}

// Table maps file identifiers to group folders.
//
// Table is safe for concurrent use. Identifiers are learned while object
// graphs are processed; Freeze then makes the table read-only.
type Table struct {
	mu        sync.RWMutex
	learned   map[uint32]string
	overrides map[uint32]string
	fallback  string
	frozen    bool
}

// Option configures a Table.
type Option func(*Table)

// WithOverrides replaces the default overrides.
func WithOverrides(overrides map[uint32]string) Option {
	return func(t *Table) {
		t.overrides = maps.Clone(overrides)
	}
}

// WithOverride adds or replaces a single override.
func WithOverride(typeInfo uint32, folder string) Option {
	return func(t *Table) {
		if t.overrides == nil {
			t.overrides = make(map[uint32]string)
		}
		t.overrides[typeInfo] = folder
	}
}

// WithFallback sets the folder used for unknown identifiers (default: Root).
func WithFallback(folder string) Option {
	return func(t *Table) {
		t.fallback = folder
	}
}

// NewTable creates a table with the default overrides.
func NewTable(opts ...Option) *Table {
	t := &Table{
		learned:   make(map[uint32]string),
		overrides: DefaultOverrides(),
		fallback:  Root,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.overrides == nil {
		t.overrides = make(map[uint32]string)
	}
	return t
}

// Set records folder for id. Zero identifiers are ignored.
func (t *Table) Set(id uint32, folder string) error {
	if id == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return rdbtype.ErrFrozen
	}
	t.learned[id] = folder
	return nil
}

// Learn records every positive identifier referenced by src under its
// owner name and returns the number recorded.
func (t *Table) Learn(src Source) (int, error) {
	owner := src.OwnerName()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return 0, rdbtype.ErrFrozen
	}
	n := 0
	for id := range src.ReferencedIDs() {
		if id == 0 {
			continue
		}
		t.learned[id] = owner
		n++
	}
	return n, nil
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Resolve returns the folder for a file. Overrides for typeInfo take
// precedence over learned identifiers; unknown files go to the fallback.
func (t *Table) Resolve(typeInfo, fileKtid uint32) string {
	if folder, ok := t.overrides[typeInfo]; ok {
		return folder
	}
	t.mu.RLock()
	folder, ok := t.learned[fileKtid]
	t.mu.RUnlock()
	if ok {
		return folder
	}
	return t.fallback
}

// Len returns the number of learned identifiers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.learned)
}
