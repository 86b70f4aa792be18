// Package pathutil builds slash-separated output paths from names read out
// of game data.
package pathutil

import "strings"

// Placeholder replaces path elements that would be empty or refer to a
// parent directory.
const Placeholder = "_"

// Base returns the last element of a slash- or backslash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Element returns name as a single path element. Separators become
// underscores and NUL bytes are dropped, so the result never names a
// subdirectory or a parent.
func Element(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		case 0:
			return -1
		}
		return r
	}, name)
	switch strings.TrimSpace(name) {
	case "", ".", "..":
		return Placeholder
	}
	return name
}

// Join converts each element with Element and joins them with slashes.
func Join(elems ...string) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = Element(e)
	}
	return strings.Join(parts, "/")
}
