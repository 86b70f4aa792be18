package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configEnv, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
output: /tmp/out
workers: 4
variant: fe
overwrite: true
log_level: debug
manifest: /tmp/out/manifest.jsonl
tables:
  names: names.csv
  extensions: ext.csv
lists:
  priority: priority.txt
  debug: debug.txt
  object_graphs: graphs.txt
group_overrides:
  "0x12345678": Custom
  "ABCDEF01": Other
replace_group_overrides: true
group_fallback: Misc
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.Output)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "fe", cfg.Variant)
	assert.True(t, cfg.Overwrite)
	assert.Equal(t, "names.csv", cfg.Tables.Names)
	assert.Equal(t, "ext.csv", cfg.Tables.Extensions)
	assert.Equal(t, "priority.txt", cfg.Lists.Priority)
	assert.Equal(t, "debug.txt", cfg.Lists.Debug)
	assert.Equal(t, "graphs.txt", cfg.Lists.ObjectGraphs)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	overrides, err := cfg.Overrides()
	require.NoError(t, err)
	assert.Equal(t, map[uint32]string{0x12345678: "Custom", 0xABCDEF01: "Other"}, overrides)
	assert.True(t, cfg.ReplaceGroupOverrides)
	assert.Equal(t, "Misc", cfg.GroupFallback)
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "workers: 2\n")
	t.Setenv(configEnv, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "standard", cfg.Variant, "unset keys keep defaults")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown variant", body: "variant: zstd\n", want: "unknown chunk variant"},
		{name: "bad level", body: "log_level: loud\n", want: "invalid log level"},
		{name: "negative workers", body: "workers: -1\n", want: "workers must not be negative"},
		{name: "bad override id", body: "group_overrides:\n  nothex: X\n", want: "group override"},
		{name: "empty override folder", body: "group_overrides:\n  \"0x1\": \"\"\n", want: "empty folder"},
		{name: "malformed yaml", body: "workers: [\n", want: "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)
	baseline := len(opts)

	cfg.Output = "/tmp/out"
	cfg.GroupOverrides = map[string]string{"0x1": "A", "0x2": "B"}
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, baseline+3)

	cfg.ReplaceGroupOverrides = true
	cfg.GroupFallback = "Misc"
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, baseline+5)

	cfg.Variant = "bogus"
	_, err = cfg.Options()
	require.Error(t, err)
}
