package fdata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
)

// Kind classifies an input file by name.
type Kind uint8

// Input file kinds.
const (
	KindOther Kind = iota
	KindContainer
	KindNames
	KindLoose
	KindObjectGraph
	KindIndex
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindNames:
		return "names"
	case KindLoose:
		return "loose"
	case KindObjectGraph:
		return "object graph"
	case KindIndex:
		return "index"
	default:
		return "other"
	}
}

// Classify returns the kind of the file at path. Containers match
// "*.fdata*" so split containers such as "0.fdata.1" are included.
func Classify(path string) Kind {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, ".fdata"):
		return KindContainer
	case strings.HasSuffix(base, ".name"):
		return KindNames
	case strings.HasSuffix(base, ".file"):
		return KindLoose
	case strings.HasSuffix(base, ".kidsobjdb"):
		return KindObjectGraph
	case strings.HasSuffix(base, ".rdb"):
		return KindIndex
	default:
		return KindOther
	}
}

// Inputs lists the files found below an input directory, by kind, in
// lexical order.
type Inputs struct {
	Containers   []string
	Names        []string
	Loose        []string
	ObjectGraphs []string
	Indexes      []string
}

// Len returns the number of files found.
func (in *Inputs) Len() int {
	return len(in.Containers) + len(in.Names) + len(in.Loose) + len(in.ObjectGraphs) + len(in.Indexes)
}

// Discover walks root and classifies every regular file. Directories in
// skip are not entered.
func Discover(root string, skip ...string) (*Inputs, error) {
	skipped := make(map[string]struct{}, len(skip))
	for _, dir := range skip {
		if abs, err := filepath.Abs(dir); err == nil {
			skipped[abs] = struct{}{}
		}
	}

	in := &Inputs{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if abs, err := filepath.Abs(path); err == nil {
					if _, ok := skipped[abs]; ok {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !de.IsRegular() {
				return nil
			}
			switch Classify(path) {
			case KindContainer:
				in.Containers = append(in.Containers, path)
			case KindNames:
				in.Names = append(in.Names, path)
			case KindLoose:
				in.Loose = append(in.Loose, path)
			case KindObjectGraph:
				in.ObjectGraphs = append(in.ObjectGraphs, path)
			case KindIndex:
				in.Indexes = append(in.Indexes, path)
			case KindOther:
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.Halt
		},
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	return in, nil
}
