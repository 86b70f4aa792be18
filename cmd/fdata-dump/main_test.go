package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/fdata/internal/testutil"
	"github.com/meigma/fdata/internal/typeinfo"
)

func gameDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	data := testutil.Container(t,
		testutil.Entry{FileKtid: 0x42, TypeInfoKtid: typeinfo.G1T, Data: []byte("texture"), Stored: true},
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.fdata"), data, 0o600))
	return dir
}

func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

func TestRunExtracts(t *testing.T) {
	t.Setenv(configEnv, "")

	input := gameDir(t)
	out := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--output", out, "--log-level", "warn", input}, &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "Root", "g1t", "0x42.g1t"))
	require.NoError(t, err)
	assert.Equal(t, "texture", string(data))
	assert.Contains(t, stdout.String(), "extracted: 1")
}

func TestRunUsageErrors(t *testing.T) {
	t.Setenv(configEnv, "")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, &stdout, &stderr)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, stderr.String(), "Usage:")

	err = run(context.Background(), []string{"--bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, exitCode(err))

	err = run(context.Background(), []string{"--variant", "zstd", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 2, exitCode(err))

	require.NoError(t, run(context.Background(), []string{"--help"}, &stdout, &stderr))
}

func TestRunReportsFailedFiles(t *testing.T) {
	t.Setenv(configEnv, "")

	input := gameDir(t)
	broken := append(make([]byte, 16), bytes.Repeat([]byte{0xEE}, 0x30)...)
	require.NoError(t, os.WriteFile(filepath.Join(input, "broken.fdata"), broken, 0o600))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--log-level", "error", input}, &stdout, &stderr)
	assert.Equal(t, 3, exitCode(err))
	assert.Contains(t, stdout.String(), "broken.fdata")
}

func TestRunInspect(t *testing.T) {
	t.Parallel()

	input := gameDir(t)
	var stdout bytes.Buffer

	require.NoError(t, runInspect([]string{filepath.Join(input, "0.fdata")}, &stdout))
	assert.Contains(t, stdout.String(), "0x00000042")
	assert.Contains(t, stdout.String(), "g1t")
	assert.Contains(t, stdout.String(), "1 entries")

	err := runInspect(nil, &stdout)
	assert.Equal(t, 2, exitCode(err))

	err = runInspect([]string{filepath.Join(input, "missing.fdata")}, &stdout)
	require.Error(t, err)
}
