package fdata

import "time"

// FileResult is the outcome of processing one input file.
type FileResult struct {
	// Stage is the phase the file was processed in.
	Stage ProgressStage

	// Path is the input file.
	Path string

	// Records is the number of name or object-graph records read.
	Records int

	// Entries is the number of container entries read.
	Entries int

	// Extracted, Skipped and Failed partition Entries.
	Extracted int
	Skipped   int
	Failed    int

	// Bytes is the number of bytes written.
	Bytes uint64

	// ObjectGraphs lists object-graph files found among the outputs.
	ObjectGraphs []string

	// Err is set when the file was abandoned.
	Err error
}

// Totals aggregates entry counts over a run.
type Totals struct {
	Files     int
	Entries   int
	Extracted int
	Skipped   int
	Failed    int
	Bytes     uint64
}

// Report summarizes a run.
type Report struct {
	// Input and Output are the input directory and output root.
	Input  string
	Output string

	// Files holds one result per processed file, in phase order.
	Files []FileResult

	// Names is the size of the name table after the names phase.
	Names int

	// Groups is the number of file identifiers with a learned group.
	Groups int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Failed returns the files that were abandoned.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Stage returns the results of one phase.
func (r *Report) Stage(stage ProgressStage) []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Stage == stage {
			out = append(out, f)
		}
	}
	return out
}

// Totals sums the entry counts of every file.
func (r *Report) Totals() Totals {
	var t Totals
	for _, f := range r.Files {
		t.Files++
		t.Entries += f.Entries
		t.Extracted += f.Extracted
		t.Skipped += f.Skipped
		t.Failed += f.Failed
		t.Bytes += f.Bytes
	}
	return t
}
