package container

import (
	"fmt"
	"os"
)

// FileSource adapts an *os.File to ByteSource.
type FileSource struct {
	*os.File
	size int64
}

// OpenFile opens path for reading as a ByteSource.
// The caller must Close the returned source.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &FileSource{File: f, size: info.Size()}, nil
}

// Size returns the file size observed at open time.
func (s *FileSource) Size() int64 {
	return s.size
}
