package fdata

import (
	"log/slog"

	"github.com/meigma/fdata/internal/chunk"
)

// Variant selects the chunk framing of compressed payloads.
type Variant = chunk.Variant

// Chunk framings.
var (
	// VariantStandard frames chunks with a 16-bit size and 8 trailer bytes.
	VariantStandard = chunk.Standard

	// VariantFE frames chunks with a 32-bit size and no trailer.
	VariantFE = chunk.FE
)

// ParseVariant returns the variant named s ("standard" or "fe").
// An empty name selects VariantStandard.
func ParseVariant(s string) (Variant, error) {
	return chunk.ParseVariant(s)
}

// DefaultOutputDir is the output directory created inside the input
// directory when WithOutputDir is not used.
const DefaultOutputDir = "fdata_out"

// Option configures an Extractor.
type Option func(*Extractor)

// WithOutputDir sets the output root (default: <input>/fdata_out).
func WithOutputDir(dir string) Option {
	return func(x *Extractor) {
		x.outputDir = dir
	}
}

// WithWorkers sets the number of files processed concurrently within a
// phase. Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(x *Extractor) {
		x.workers = n
	}
}

// WithVariant selects the chunk framing (default: VariantStandard).
func WithVariant(v Variant) Option {
	return func(x *Extractor) {
		x.variant = v
	}
}

// WithOverwrite re-extracts entries whose output already exists.
// By default, existing outputs are skipped.
func WithOverwrite(overwrite bool) Option {
	return func(x *Extractor) {
		x.overwrite = overwrite
	}
}

// WithNameTable loads predefined names from a "Hash,Name" CSV file before
// name files are processed. Synthesized names replace predefined ones with
// the same hash.
func WithNameTable(path string) Option {
	return func(x *Extractor) {
		x.nameTable = path
	}
}

// WithExtensionTable loads a "TypeInfo,Extension" CSV file over the
// built-in extension table.
func WithExtensionTable(path string) Option {
	return func(x *Extractor) {
		x.extensionTable = path
	}
}

// WithPriorityList names the containers extracted before object graphs are
// read, from a list file with one name per line.
func WithPriorityList(path string) Option {
	return func(x *Extractor) {
		x.priorityList = path
	}
}

// WithDebugList restricts the main phase to the containers named in a list
// file. Other phases are unaffected.
func WithDebugList(path string) Option {
	return func(x *Extractor) {
		x.debugList = path
	}
}

// WithObjectGraphList restricts the object-graph phase to the files named
// in a list file.
func WithObjectGraphList(path string) Option {
	return func(x *Extractor) {
		x.objectGraphList = path
	}
}

// WithGroupOverride routes every file of a type-info identifier to folder,
// regardless of object graphs.
func WithGroupOverride(typeInfo uint32, folder string) Option {
	return func(x *Extractor) {
		if x.groupOverrides == nil {
			x.groupOverrides = make(map[uint32]string)
		}
		x.groupOverrides[typeInfo] = folder
	}
}

// WithoutDefaultGroupOverrides drops the built-in type-info overrides, so
// only those set with WithGroupOverride apply.
func WithoutDefaultGroupOverrides() Option {
	return func(x *Extractor) {
		x.noDefaultOverrides = true
	}
}

// WithGroupFallback sets the folder of files with no learned group
// (default: "Root").
func WithGroupFallback(folder string) Option {
	return func(x *Extractor) {
		x.groupFallback = folder
	}
}

// WithManifest writes a JSON lines manifest of extracted files with their
// content digests to path.
func WithManifest(path string) Option {
	return func(x *Extractor) {
		x.manifestPath = path
	}
}

// WithProgress sets a callback for progress updates.
// The callback is invoked from multiple goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(x *Extractor) {
		x.progress = fn
	}
}

// WithLogger sets the logger for extraction diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Extractor) {
		x.logger = logger
	}
}
