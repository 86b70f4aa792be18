package fdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/meigma/fdata/internal/batch"
	"github.com/meigma/fdata/internal/chunk"
	"github.com/meigma/fdata/internal/extract"
	"github.com/meigma/fdata/internal/group"
	"github.com/meigma/fdata/internal/manifest"
	"github.com/meigma/fdata/internal/namefile"
	"github.com/meigma/fdata/internal/names"
	"github.com/meigma/fdata/internal/objdb"
	"github.com/meigma/fdata/internal/resources"
	"github.com/meigma/fdata/internal/typeinfo"
)

// Extractor extracts every container below an input directory.
type Extractor struct {
	input              string
	outputDir          string
	workers            int
	variant            Variant
	overwrite          bool
	nameTable          string
	extensionTable     string
	priorityList       string
	debugList          string
	objectGraphList    string
	groupOverrides     map[uint32]string
	noDefaultOverrides bool
	groupFallback      string
	manifestPath       string
	progress           ProgressFunc
	logger             *slog.Logger
}

// New creates an Extractor for the input directory.
func New(input string, opts ...Option) (*Extractor, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("fdata: input: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fdata: input %s is not a directory", input)
	}

	x := &Extractor{input: input, variant: chunk.Standard}
	for _, opt := range opts {
		opt(x)
	}
	if x.outputDir == "" {
		x.outputDir = filepath.Join(input, DefaultOutputDir)
	}
	return x, nil
}

// OutputDir returns the output root.
func (x *Extractor) OutputDir() string {
	return x.outputDir
}

// log returns the logger, falling back to a discard logger if nil.
func (x *Extractor) log() *slog.Logger {
	if x.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.logger
}

// reportProgress sends a progress event if a callback is configured.
func (x *Extractor) reportProgress(ev ProgressEvent) {
	if x.progress != nil {
		x.progress(ev)
	}
}

// tables holds the shared state built up across phases.
type tables struct {
	exts   *typeinfo.Registry
	names  *names.Table
	groups *group.Table

	priority *resources.List
	debug    *resources.List
	graphs   *resources.List
}

// Run executes every phase and returns a report.
//
// Run returns an error only when the run cannot start (unreadable tables,
// input or output directory) or ctx is cancelled. Failures of individual
// files are logged and recorded in the report.
func (x *Extractor) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Input: x.input, Output: x.outputDir}

	x.reportProgress(ProgressEvent{Stage: StageDiscovering})
	in, err := Discover(x.input, x.outputDir)
	if err != nil {
		return nil, err
	}
	x.log().Info("input discovered",
		"containers", len(in.Containers),
		"names", len(in.Names),
		"object_graphs", len(in.ObjectGraphs),
		"loose", len(in.Loose))

	t, err := x.loadTables()
	if err != nil {
		return nil, err
	}

	// Names.
	results, err := x.runStage(ctx, StageNames, in.Names, func(_ context.Context, path string) FileResult {
		return x.processNames(path, t.names)
	})
	report.Files = append(report.Files, results...)
	t.names.Freeze()
	report.Names = t.names.Len()
	if err != nil {
		return report, err
	}

	sink, err := batch.NewFileSink(x.outputDir, batch.WithOverwrite(x.overwrite))
	if err != nil {
		return report, fmt.Errorf("fdata: %w", err)
	}
	defer sink.Close()

	driverOpts := []extract.Option{
		extract.WithExtensions(t.exts),
		extract.WithNames(t.names),
		extract.WithGroups(t.groups),
		extract.WithDecoder(chunk.NewDecoder(chunk.WithVariant(x.variant), chunk.WithLogger(x.logger))),
		extract.WithLogger(x.logger),
	}
	if x.manifestPath != "" {
		mw, err := manifest.Create(x.manifestPath)
		if err != nil {
			return report, fmt.Errorf("fdata: %w", err)
		}
		defer mw.Close()
		driverOpts = append(driverOpts, extract.WithManifest(mw))
	}
	driver := extract.NewDriver(sink, driverOpts...)

	var priority, rest []string
	for _, path := range in.Containers {
		if t.priority.Contains(path) {
			priority = append(priority, path)
		} else {
			rest = append(rest, path)
		}
	}

	// Priority containers.
	results, err = x.runStage(ctx, StagePriority, priority, func(ctx context.Context, path string) FileResult {
		return containerResult(driver.Process(ctx, path))
	})
	report.Files = append(report.Files, results...)
	if err != nil {
		return report, err
	}
	var extracted []string
	for _, res := range results {
		extracted = appendGraphs(extracted, res.ObjectGraphs)
	}

	// Object graphs.
	graphs := x.objectGraphs(in.ObjectGraphs, extracted, t.graphs)
	results, err = x.runStage(ctx, StageObjectGraphs, graphs, func(_ context.Context, path string) FileResult {
		return x.processObjectGraph(path, t.groups)
	})
	report.Files = append(report.Files, results...)
	t.groups.Freeze()
	report.Groups = t.groups.Len()
	if err != nil {
		return report, err
	}

	// Remaining containers.
	if t.debug.Len() > 0 {
		rest = slices.DeleteFunc(rest, func(path string) bool { return !t.debug.Contains(path) })
		x.log().Debug("main phase restricted to debug list", "containers", len(rest))
	}
	results, err = x.runStage(ctx, StageExtracting, rest, func(ctx context.Context, path string) FileResult {
		return containerResult(driver.Process(ctx, path))
	})
	report.Files = append(report.Files, results...)
	if err != nil {
		return report, err
	}

	// Loose files.
	results, err = x.runStage(ctx, StageLoose, in.Loose, func(ctx context.Context, path string) FileResult {
		return containerResult(driver.Process(ctx, path))
	})
	report.Files = append(report.Files, results...)

	report.Duration = time.Since(start)
	totals := report.Totals()
	x.log().Info("run finished",
		"files", totals.Files,
		"extracted", totals.Extracted,
		"skipped", totals.Skipped,
		"failed_entries", totals.Failed,
		"failed_files", len(report.Failed()),
		"bytes", totals.Bytes,
		"duration", report.Duration)
	return report, err
}

// runStage processes paths concurrently and reports progress per file.
// Files that were never started because ctx was cancelled are omitted.
func (x *Extractor) runStage(ctx context.Context, stage ProgressStage, paths []string, fn func(context.Context, string) FileResult) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, ctx.Err()
	}
	x.log().Info("phase started", "phase", stage.String(), "files", len(paths))

	var done atomic.Int64
	results, err := batch.RunPhase(ctx, x.workers, paths, func(ctx context.Context, path string) FileResult {
		res := fn(ctx, path)
		res.Stage = stage
		res.Path = path
		if res.Err != nil {
			x.log().Error("file failed", "phase", stage.String(), "path", path, "error", res.Err)
		}
		x.reportProgress(ProgressEvent{
			Stage:      stage,
			Path:       path,
			FilesDone:  int(done.Add(1)),
			FilesTotal: len(paths),
			Err:        res.Err,
		})
		return res
	})
	results = slices.DeleteFunc(results, func(r FileResult) bool { return r.Path == "" })
	return results, err
}

// loadTables builds the extension, name and group tables and the file lists.
func (x *Extractor) loadTables() (*tables, error) {
	t := &tables{exts: typeinfo.New(), names: names.NewTable()}

	if x.extensionTable != "" {
		if err := loadFile(x.extensionTable, t.exts.Load); err != nil {
			return nil, fmt.Errorf("fdata: extension table: %w", err)
		}
	}
	if x.nameTable != "" {
		err := loadFile(x.nameTable, func(r io.Reader) error {
			n, err := t.names.LoadCSV(r)
			x.log().Debug("predefined names loaded", "path", x.nameTable, "names", n)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fdata: name table: %w", err)
		}
	}

	var groupOpts []group.Option
	if x.noDefaultOverrides {
		groupOpts = append(groupOpts, group.WithOverrides(nil))
	}
	if x.groupFallback != "" {
		groupOpts = append(groupOpts, group.WithFallback(x.groupFallback))
	}
	for id, folder := range x.groupOverrides {
		groupOpts = append(groupOpts, group.WithOverride(id, folder))
	}
	t.groups = group.NewTable(groupOpts...)

	var err error
	if t.priority, err = resources.Load(x.priorityList); err != nil {
		return nil, fmt.Errorf("fdata: priority list: %w", err)
	}
	if t.debug, err = resources.Load(x.debugList); err != nil {
		return nil, fmt.Errorf("fdata: debug list: %w", err)
	}
	if t.graphs, err = resources.Load(x.objectGraphList); err != nil {
		return nil, fmt.Errorf("fdata: object graph list: %w", err)
	}
	return t, nil
}

func loadFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// processNames parses one name file and adds its synthesized names.
func (x *Extractor) processNames(path string, tbl *names.Table) FileResult {
	var res FileResult
	records, err := namefile.ParseFile(path)
	res.Records = len(records)

	added := 0
	log := x.log().With("path", path)
	for _, rec := range records {
		n, addErr := tbl.AddCandidates(rec.Class, rec.Name)
		log.Debug("name record",
			"fileKtid", typeinfo.Hex(rec.FileKtid),
			"typeInfo", typeinfo.Hex(rec.TypeInfoKtid),
			"name", rec.Name,
			"class", rec.Class,
			"candidates", n)
		added += n
		if addErr != nil {
			err = errors.Join(err, addErr)
			break
		}
	}
	res.Err = err
	log.Debug("name file processed", "records", res.Records, "names", added)
	return res
}

// processObjectGraph learns the group of every identifier in one object graph.
func (x *Extractor) processObjectGraph(path string, tbl *group.Table) FileResult {
	var res FileResult
	f, err := objdb.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Records = f.Len()

	learned := 0
	for rec := range f.Records() {
		n, err := tbl.Learn(rec)
		if err != nil {
			res.Err = err
			break
		}
		learned += n
	}
	x.log().Debug("object graph processed", "path", path, "records", res.Records, "identifiers", learned)
	return res
}

// objectGraphs merges discovered and extracted object graphs, restricted to
// list when it is not empty.
func (x *Extractor) objectGraphs(discovered, extracted []string, list *resources.List) []string {
	out := appendGraphs(slices.Clone(discovered), extracted)
	if list.Len() > 0 {
		out = slices.DeleteFunc(out, func(path string) bool { return !list.Contains(path) })
	}
	return out
}

func appendGraphs(dst, src []string) []string {
	for _, path := range src {
		if !slices.Contains(dst, path) {
			dst = append(dst, path)
		}
	}
	return dst
}

func containerResult(res extract.Result) FileResult {
	return FileResult{
		Entries:      res.Entries,
		Extracted:    res.Extracted,
		Skipped:      res.Skipped,
		Failed:       res.Failed,
		Bytes:        res.Bytes,
		ObjectGraphs: res.ObjectGraphs,
		Err:          res.Err,
	}
}
