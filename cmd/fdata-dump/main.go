// Command fdata-dump extracts RDB/FData game-asset containers.
//
// Usage:
//
//	fdata-dump [flags] <input-dir>
//	fdata-dump inspect <file>...
//
// Flags override values from the YAML config file selected by --config or
// $FDATA_CONFIG.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/meigma/fdata"
)

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "inspect" {
		return runInspect(args[1:], stdout)
	}

	flagSet := pflag.NewFlagSet("fdata-dump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	configPath := flagSet.String("config", "", "YAML config file (default: $"+configEnv+")")
	output := flagSet.StringP("output", "o", "", "output root (default: <input>/fdata_out)")
	workers := flagSet.IntP("workers", "j", 0, "files processed concurrently (default: GOMAXPROCS)")
	variant := flagSet.String("variant", "", "chunk framing: standard or fe")
	overwrite := flagSet.Bool("overwrite", false, "re-extract entries whose output exists")
	logLevel := flagSet.String("log-level", "", "log level: debug, info, warn, error")
	names := flagSet.String("names", "", "predefined name table (Hash,Name CSV)")
	extensions := flagSet.String("extensions", "", "extension table (TypeInfo,Extension CSV)")
	priority := flagSet.String("priority", "", "list of containers extracted before object graphs")
	debug := flagSet.String("debug-list", "", "restrict the main phase to the listed containers")
	graphs := flagSet.String("objdb-list", "", "restrict the object-graph phase to the listed files")
	manifestPath := flagSet.String("manifest", "", "write a JSON lines manifest of extracted files")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &exitError{code: 2, err: err}
	}
	if flagSet.NArg() != 1 {
		printHelp(stderr, flagSet)
		return &exitError{code: 2, err: errors.New("expected exactly one input directory")}
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	set := func(name string, apply func()) {
		if flagSet.Changed(name) {
			apply()
		}
	}
	set("output", func() { cfg.Output = *output })
	set("workers", func() { cfg.Workers = *workers })
	set("variant", func() { cfg.Variant = *variant })
	set("overwrite", func() { cfg.Overwrite = *overwrite })
	set("log-level", func() { cfg.LogLevel = *logLevel })
	set("names", func() { cfg.Tables.Names = *names })
	set("extensions", func() { cfg.Tables.Extensions = *extensions })
	set("priority", func() { cfg.Lists.Priority = *priority })
	set("debug-list", func() { cfg.Lists.Debug = *debug })
	set("objdb-list", func() { cfg.Lists.ObjectGraphs = *graphs })
	set("manifest", func() { cfg.Manifest = *manifestPath })
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts = append(opts, fdata.WithLogger(logger))

	x, err := fdata.New(flagSet.Arg(0), opts...)
	if err != nil {
		return err
	}
	report, err := x.Run(ctx)
	if report != nil {
		printReport(stdout, report)
	}
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return &exitError{code: 3, err: fmt.Errorf("%d of %d files failed", len(failed), len(report.Files))}
	}
	return nil
}

func printReport(w io.Writer, r *fdata.Report) {
	t := r.Totals()
	fmt.Fprintf(w, "output:    %s\n", r.Output)
	fmt.Fprintf(w, "files:     %d\n", t.Files)
	fmt.Fprintf(w, "names:     %d\n", r.Names)
	fmt.Fprintf(w, "groups:    %d\n", r.Groups)
	fmt.Fprintf(w, "extracted: %d (%d bytes)\n", t.Extracted, t.Bytes)
	fmt.Fprintf(w, "skipped:   %d\n", t.Skipped)
	fmt.Fprintf(w, "failed:    %d entries\n", t.Failed)
	for _, f := range r.Failed() {
		fmt.Fprintf(w, "  %s: %v\n", f.Path, f.Err)
	}
	fmt.Fprintf(w, "elapsed:   %s\n", r.Duration)
}

func runInspect(paths []string, stdout io.Writer) error {
	if len(paths) == 0 {
		return &exitError{code: 2, err: errors.New("inspect: expected at least one file")}
	}
	var errs []error
	for _, path := range paths {
		res, err := fdata.Inspect(path)
		if res != nil {
			printInspect(stdout, res)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func printInspect(w io.Writer, res *fdata.InspectResult) {
	fmt.Fprintf(w, "%s (%s)\n", res.Path, res.Kind)
	if h := res.Header; h != nil {
		fmt.Fprintf(w, "  system 0x%08X  files %d  ktid 0x%08X  path %s\n", h.SystemID, h.FileCount, h.Ktid, h.Path)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  OFFSET\tFILE KTID\tTYPE INFO\tEXT\tCOMP\tSIZE\tFLAGS")
	for _, e := range res.Entries {
		fmt.Fprintf(tw, "  0x%08X\t0x%08X\t0x%08X\t%s\t%d\t%d\t%03b\n",
			e.Offset, e.FileKtid, e.TypeInfoKtid, e.Extension, e.CompSize, e.FileSize, uint32(e.Flags))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "  %d entries, %d bytes stored, %d bytes decompressed\n",
		len(res.Entries), res.TotalCompSize(), res.TotalFileSize())
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `fdata-dump extracts RDB/FData game-asset containers.

Usage:
  fdata-dump [flags] <input-dir>
  fdata-dump inspect <file>...

Flags:
%s`, flagSet.FlagUsages())
}
