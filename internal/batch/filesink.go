package batch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Committer receives the content of one output file.
//
// Content is written to a temporary file that becomes visible at its final
// path only on Commit. Exactly one of Commit or Discard must be called.
type Committer interface {
	io.Writer

	// Commit publishes the written content at the final path.
	Commit() error

	// Discard removes the written content.
	Discard() error
}

// FileSink writes output files below a root directory with atomic writes.
//
// Files are written to a temporary file in the destination directory,
// then renamed to the final path on Commit. Partially written files are
// never visible at the final path, and concurrent writers of the same path
// each publish a complete file. All paths are resolved through an
// [os.Root], so names cannot escape the output directory.
type FileSink struct {
	dir       string
	root      *os.Root
	overwrite bool
	seq       atomic.Uint64
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// NewFileSink creates a FileSink that writes below dir, creating it if needed.
// The caller must Close the sink.
func NewFileSink(dir string, opts ...FileSinkOption) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open output directory %s: %w", dir, err)
	}
	s := &FileSink{dir: dir, root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the output root.
func (s *FileSink) Dir() string {
	return s.dir
}

// Path returns the absolute location of the slash-separated relative name.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// Close releases the output root.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// ShouldProcess returns false if name already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(name string) bool {
	if s.overwrite {
		return true
	}
	_, err := s.root.Stat(filepath.FromSlash(name))
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer for the slash-separated relative name.
func (s *FileSink) Writer(name string) (Committer, error) {
	dest := filepath.FromSlash(name)

	dir := filepath.Dir(dest)
	if dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	// Create temp file in the same directory for an atomic rename.
	temp := filepath.Join(dir, fmt.Sprintf(".part-%d-%d", os.Getpid(), s.seq.Add(1)))
	f, err := s.root.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &fileCommitter{
		root:     s.root,
		destPath: dest,
		tempPath: temp,
		tempFile: f,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	root     *os.Root
	destPath string
	tempPath string
	tempFile *os.File
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := c.root.Rename(c.tempPath, c.destPath); err != nil {
		_ = c.root.Remove(c.tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return c.root.Remove(c.tempPath)
}
