// Package resources loads the plain-text file lists that steer extraction:
// priority containers, debug containers and object-graph files.
package resources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/meigma/fdata/internal/pathutil"
)

// List is a set of file names. Matching compares base names
// case-insensitively; both '/' and '\' separate directories.
type List struct {
	names []string
	index map[string]struct{}
}

// NewList returns a list holding names.
func NewList(names ...string) *List {
	l := &List{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		l.add(n)
	}
	return l
}

func (l *List) add(name string) {
	k := key(name)
	if _, ok := l.index[k]; ok {
		return
	}
	l.index[k] = struct{}{}
	l.names = append(l.names, name)
}

// Read parses one name per line. Blank lines and lines starting with '#'
// are ignored; surrounding whitespace is trimmed.
func Read(r io.Reader) (*List, error) {
	l := NewList()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return l, nil
}

// Load reads the list file at path. An empty path yields an empty list.
func Load(path string) (*List, error) {
	if path == "" {
		return NewList(), nil
	}
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()
	l, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether the base name of path is listed.
func (l *List) Contains(path string) bool {
	if l == nil {
		return false
	}
	_, ok := l.index[key(path)]
	return ok
}

func key(name string) string {
	return strings.ToLower(pathutil.Base(name))
}

// Len returns the number of distinct names.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

// Names returns the names in file order.
func (l *List) Names() []string {
	if l == nil {
		return nil
	}
	return slices.Clone(l.names)
}
