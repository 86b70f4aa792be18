package fdata

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/fdata/internal/manifest"
	"github.com/meigma/fdata/internal/names"
	"github.com/meigma/fdata/internal/testutil"
	"github.com/meigma/fdata/internal/typeinfo"
)

// fixture lays out a small game directory and returns the input root and a
// priority list naming the system container.
func fixture(t *testing.T) (input, priority string) {
	t.Helper()
	input = t.TempDir()
	write := func(rel string, data []byte) {
		t.Helper()
		path := filepath.Join(input, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}

	graph := testutil.ObjDB(t, testutil.ObjRecord{
		Name:       "Weapons",
		Properties: []testutil.ObjProperty{{Ktid: 1, Values: []uint32{0x500, 0}}},
	})
	write("sys/sys.fdata", testutil.Container(t,
		testutil.Entry{FileKtid: 0x99, TypeInfoKtid: typeinfo.KIDSObjDB, Data: graph, Stored: true},
	))
	write("data/0.fdata", testutil.Container(t,
		testutil.Entry{FileKtid: 0x42, TypeInfoKtid: 0x12345678, Data: []byte("ABCDEFGH"), Stored: true},
		testutil.Entry{FileKtid: 0x221E9FFB, TypeInfoKtid: typeinfo.G1M, Data: testutil.Compressible(40000)},
		testutil.Entry{FileKtid: 0x500, TypeInfoKtid: typeinfo.G1T, Data: []byte("sword texture")},
	))
	write("data/chr.name", testutil.NameFile(t, testutil.NameRecord{
		FileKtid:     0x1,
		TypeInfoKtid: typeinfo.G1M,
		Target:       testutil.WrapName("R_G1M", "chr0001_body"),
		Class:        names.ClassModel,
	}))
	write("data/0x00000077.file", testutil.Loose(t, testutil.Entry{
		FileKtid:     0x77,
		TypeInfoKtid: typeinfo.G1A,
		Data:         []byte("loose animation"),
		Stored:       true,
	}))
	write("data/broken.fdata", append(make([]byte, 16), bytes.Repeat([]byte{0xEE}, 0x30)...))

	priority = filepath.Join(t.TempDir(), "priority.txt")
	require.NoError(t, os.WriteFile(priority, []byte("# object graphs\nsys.fdata\n"), 0o600))
	return input, priority
}

func readOut(t *testing.T, x *Extractor, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(x.OutputDir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	input, priority := fixture(t)

	var mu sync.Mutex
	stages := map[ProgressStage]int{}
	x, err := New(input,
		WithPriorityList(priority),
		WithWorkers(2),
		WithProgress(func(ev ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			if ev.Path != "" {
				stages[ev.Stage]++
			}
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(input, DefaultOutputDir), x.OutputDir())

	report, err := x.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ABCDEFGH", readOut(t, x, "Root/0x12345678/0x42.0x12345678"))
	assert.Equal(t, string(testutil.Compressible(40000)), readOut(t, x, "Root/g1m/chr0001_body.g1m"))
	assert.Equal(t, "sword texture", readOut(t, x, "Weapons/g1t/0x500.g1t"))
	assert.Equal(t, "loose animation", readOut(t, x, "Root/g1a/0x77.g1a"))
	assert.NotEmpty(t, readOut(t, x, "System/kidsobjdb/0x99.kidsobjdb"))

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(input, "data", "broken.fdata"), failed[0].Path)
	assert.ErrorIs(t, failed[0].Err, ErrFormat)

	assert.Len(t, report.Stage(StageNames), 1)
	assert.Len(t, report.Stage(StagePriority), 1)
	assert.Len(t, report.Stage(StageObjectGraphs), 1)
	assert.Len(t, report.Stage(StageExtracting), 2)
	assert.Len(t, report.Stage(StageLoose), 1)
	assert.Equal(t, 8, report.Names)
	assert.Equal(t, 1, report.Groups)

	totals := report.Totals()
	assert.Equal(t, 5, totals.Extracted)
	assert.Zero(t, totals.Skipped)

	mu.Lock()
	assert.Equal(t, map[ProgressStage]int{
		StageNames:        1,
		StagePriority:     1,
		StageObjectGraphs: 1,
		StageExtracting:   2,
		StageLoose:        1,
	}, stages)
	mu.Unlock()
}

func TestRunSecondPassSkips(t *testing.T) {
	t.Parallel()

	input, priority := fixture(t)
	x, err := New(input, WithPriorityList(priority))
	require.NoError(t, err)

	_, err = x.Run(context.Background())
	require.NoError(t, err)

	report, err := x.Run(context.Background())
	require.NoError(t, err)
	totals := report.Totals()
	assert.Zero(t, totals.Extracted)
	assert.Equal(t, 5, totals.Skipped)

	// Object graphs already on disk still feed the group table.
	assert.Equal(t, 1, report.Groups)
}

func TestRunOverwrite(t *testing.T) {
	t.Parallel()

	input, priority := fixture(t)
	x, err := New(input, WithPriorityList(priority), WithOverwrite(true))
	require.NoError(t, err)

	_, err = x.Run(context.Background())
	require.NoError(t, err)
	report, err := x.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Totals().Extracted)
}

func TestRunWithoutPriorityUsesRoot(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	x, err := New(input, WithOutputDir(filepath.Join(t.TempDir(), "out")))
	require.NoError(t, err)

	report, err := x.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Groups)
	assert.Equal(t, "sword texture", readOut(t, x, "Root/g1t/0x500.g1t"))
	assert.NotEmpty(t, readOut(t, x, "System/kidsobjdb/0x99.kidsobjdb"))
}

func TestRunNameTablePrecedence(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	table := filepath.Join(t.TempDir(), "rdb_common.csv")
	require.NoError(t, os.WriteFile(table, []byte("Hash,Name\n221e9ffb,predefined.g1m\n00000042,named.bin\n"), 0o600))

	x, err := New(input, WithNameTable(table))
	require.NoError(t, err)
	_, err = x.Run(context.Background())
	require.NoError(t, err)

	// The synthesized name replaces the predefined one for the same hash.
	assert.Equal(t, string(testutil.Compressible(40000)), readOut(t, x, "Root/g1m/chr0001_body.g1m"))
	assert.Equal(t, "ABCDEFGH", readOut(t, x, "Root/0x12345678/named.bin"))
}

func TestRunExtensionTableAndOverride(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	table := filepath.Join(t.TempDir(), "ext.csv")
	require.NoError(t, os.WriteFile(table, []byte("TypeInfo,Extension\n0x12345678,bin\n"), 0o600))

	x, err := New(input, WithExtensionTable(table), WithGroupOverride(0x12345678, "Custom"))
	require.NoError(t, err)
	_, err = x.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", readOut(t, x, "Custom/bin/0x42.bin"))
}

func TestRunReplacedOverridesAndFallback(t *testing.T) {
	t.Parallel()

	input, priority := fixture(t)
	x, err := New(input,
		WithPriorityList(priority),
		WithoutDefaultGroupOverrides(),
		WithGroupOverride(typeinfo.G1A, "Motion"),
		WithGroupFallback("Misc"),
	)
	require.NoError(t, err)
	_, err = x.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, readOut(t, x, "Misc/kidsobjdb/0x99.kidsobjdb"))
	assert.Equal(t, "ABCDEFGH", readOut(t, x, "Misc/0x12345678/0x42.0x12345678"))
	assert.Equal(t, "sword texture", readOut(t, x, "Weapons/g1t/0x500.g1t"))
	assert.Equal(t, "loose animation", readOut(t, x, "Motion/g1a/0x77.g1a"))
}

func TestRunLogsNameRecords(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	x, err := New(input, WithLogger(logger), WithWorkers(1))
	require.NoError(t, err)
	_, err = x.Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=\"name record\"")
	assert.Contains(t, out, "fileKtid=0x1 ")
	assert.Contains(t, out, "typeInfo=0x563BDEF1")
	assert.Contains(t, out, "name=chr0001_body")
}

func TestRunDebugList(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	list := filepath.Join(t.TempDir(), "debug.txt")
	require.NoError(t, os.WriteFile(list, []byte("broken.fdata\n"), 0o600))

	x, err := New(input, WithDebugList(list))
	require.NoError(t, err)
	report, err := x.Run(context.Background())
	require.NoError(t, err)

	main := report.Stage(StageExtracting)
	require.Len(t, main, 1)
	assert.Equal(t, "broken.fdata", filepath.Base(main[0].Path))
}

func TestRunManifest(t *testing.T) {
	t.Parallel()

	input, priority := fixture(t)
	path := filepath.Join(t.TempDir(), "manifest.jsonl")
	x, err := New(input, WithPriorityList(priority), WithManifest(path))
	require.NoError(t, err)
	_, err = x.Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := manifest.Read(f)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	byPath := map[string]digest.Digest{}
	for _, rec := range recs {
		byPath[rec.Path] = rec.Digest
	}
	assert.Equal(t, digest.FromString("ABCDEFGH"), byPath["Root/0x12345678/0x42.0x12345678"])
}

func TestRunFEVariantRejectsStandardFraming(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	x, err := New(input, WithVariant(VariantFE))
	require.NoError(t, err)
	report, err := x.Run(context.Background())
	require.NoError(t, err)

	// Stored entries still extract; compressed ones fail per entry.
	assert.Equal(t, "ABCDEFGH", readOut(t, x, "Root/0x12345678/0x42.0x12345678"))
	assert.Positive(t, report.Totals().Failed)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	x, err := New(input)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = x.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = New(file)
	assert.Error(t, err)
}

func TestRunBadTables(t *testing.T) {
	t.Parallel()

	input, _ := fixture(t)
	missing := filepath.Join(t.TempDir(), "missing.csv")
	for _, opt := range []Option{WithNameTable(missing), WithExtensionTable(missing), WithPriorityList(missing)} {
		x, err := New(input, opt)
		require.NoError(t, err)
		_, err = x.Run(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}
