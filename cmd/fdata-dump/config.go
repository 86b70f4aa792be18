package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meigma/fdata"
	"github.com/meigma/fdata/internal/typeinfo"
)

// configEnv names the environment variable selecting the config file when
// --config is not given.
const configEnv = "FDATA_CONFIG"

// Config is the file configuration of fdata-dump. Flags override it.
type Config struct {
	// Output is the output root. Default: <input>/fdata_out.
	Output string `yaml:"output"`

	// Workers is the number of files processed concurrently. Default: GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Variant is the chunk framing: "standard" or "fe".
	Variant string `yaml:"variant"`

	// Overwrite re-extracts entries whose output exists.
	Overwrite bool `yaml:"overwrite"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`

	// Manifest is the path of the JSON lines manifest to write.
	Manifest string `yaml:"manifest"`

	// Tables configures the static lookup tables.
	Tables TablesConfig `yaml:"tables"`

	// Lists configures the file lists.
	Lists ListsConfig `yaml:"lists"`

	// GroupOverrides maps type-info identifiers ("0x20A6A0BB") to folders.
	GroupOverrides map[string]string `yaml:"group_overrides"`

	// ReplaceGroupOverrides drops the built-in overrides, leaving only
	// GroupOverrides.
	ReplaceGroupOverrides bool `yaml:"replace_group_overrides"`

	// GroupFallback is the folder of files with no learned group. Default: Root.
	GroupFallback string `yaml:"group_fallback"`
}

// TablesConfig configures the static lookup tables.
type TablesConfig struct {
	// Names is a "Hash,Name" CSV of predefined names.
	Names string `yaml:"names"`

	// Extensions is a "TypeInfo,Extension" CSV merged over the built-in table.
	Extensions string `yaml:"extensions"`
}

// ListsConfig configures the file lists.
type ListsConfig struct {
	// Priority names containers extracted before object graphs are read.
	Priority string `yaml:"priority"`

	// Debug restricts the main phase to the listed containers.
	Debug string `yaml:"debug"`

	// ObjectGraphs restricts the object-graph phase to the listed files.
	ObjectGraphs string `yaml:"object_graphs"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Variant:  fdata.VariantStandard.Name,
		LogLevel: "info",
	}
}

// LoadConfig reads the config file at path, or at $FDATA_CONFIG when path
// is empty. With neither set, the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	var errs []error
	if _, err := fdata.ParseVariant(c.Variant); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Overrides(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Overrides parses GroupOverrides.
func (c *Config) Overrides() (map[uint32]string, error) {
	out := make(map[uint32]string, len(c.GroupOverrides))
	for key, folder := range c.GroupOverrides {
		id, err := typeinfo.ParseID(key)
		if err != nil {
			return nil, fmt.Errorf("group override %q: %w", key, err)
		}
		if folder == "" {
			return nil, fmt.Errorf("group override %q: empty folder", key)
		}
		out[id] = folder
	}
	return out, nil
}

// Options converts the configuration to extractor options.
func (c *Config) Options() ([]fdata.Option, error) {
	variant, err := fdata.ParseVariant(c.Variant)
	if err != nil {
		return nil, err
	}
	overrides, err := c.Overrides()
	if err != nil {
		return nil, err
	}
	opts := []fdata.Option{
		fdata.WithWorkers(c.Workers),
		fdata.WithVariant(variant),
		fdata.WithOverwrite(c.Overwrite),
		fdata.WithNameTable(c.Tables.Names),
		fdata.WithExtensionTable(c.Tables.Extensions),
		fdata.WithPriorityList(c.Lists.Priority),
		fdata.WithDebugList(c.Lists.Debug),
		fdata.WithObjectGraphList(c.Lists.ObjectGraphs),
		fdata.WithManifest(c.Manifest),
	}
	if c.Output != "" {
		opts = append(opts, fdata.WithOutputDir(c.Output))
	}
	if c.ReplaceGroupOverrides {
		opts = append(opts, fdata.WithoutDefaultGroupOverrides())
	}
	if c.GroupFallback != "" {
		opts = append(opts, fdata.WithGroupFallback(c.GroupFallback))
	}
	for id, folder := range overrides {
		opts = append(opts, fdata.WithGroupOverride(id, folder))
	}
	return opts, nil
}
