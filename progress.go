package fdata

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Stage identifies the current phase.
	Stage ProgressStage

	// Path is the file that just finished, if applicable.
	Path string

	// FilesDone is the number of files completed in the current stage.
	FilesDone int

	// FilesTotal is the number of files in the current stage.
	FilesTotal int

	// Err is the error the file finished with, if any.
	Err error
}

// ProgressStage identifies the current phase of a run.
type ProgressStage uint8

// Progress stages, in run order.
const (
	// StageDiscovering indicates the input tree is being walked.
	StageDiscovering ProgressStage = iota

	// StageNames indicates name files are being parsed.
	StageNames

	// StagePriority indicates priority containers are being extracted.
	StagePriority

	// StageObjectGraphs indicates object graphs are being read.
	StageObjectGraphs

	// StageExtracting indicates the remaining containers are being extracted.
	StageExtracting

	// StageLoose indicates loose files are being extracted.
	StageLoose
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageDiscovering:
		return "discovering"
	case StageNames:
		return "names"
	case StagePriority:
		return "priority"
	case StageObjectGraphs:
		return "object graphs"
	case StageExtracting:
		return "extracting"
	case StageLoose:
		return "loose"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during a run.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
