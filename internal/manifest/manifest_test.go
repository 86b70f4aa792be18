package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigester(t *testing.T) {
	t.Parallel()

	d := NewDigester()
	_, err := io.Copy(d, strings.NewReader("ABCD"))
	require.NoError(t, err)
	_, err = d.Write([]byte("EFGH"))
	require.NoError(t, err)

	assert.Equal(t, digest.FromString("ABCDEFGH"), d.Digest())
	assert.Equal(t, uint64(8), d.Size())
	assert.Equal(t, digest.SHA256, d.Digest().Algorithm())
}

func TestWriterReadBack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	rec := Record{
		Path:         "Root/0x12345678/0x42.0x12345678",
		Container:    "data/0.fdata",
		Offset:       0x10,
		FileKtid:     0x42,
		TypeInfoKtid: 0x12345678,
		Size:         8,
		Stored:       true,
		Digest:       digest.FromString("ABCDEFGH"),
	}
	require.NoError(t, w.Add(rec))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []Record{rec}, got)
}

func TestReadRejectsBadDigest(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader(`{"path":"a","digest":"sha256:zz"}` + "\n"))
	assert.Error(t, err)
}

func TestWriterConcurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.jsonl")
	w, err := Create(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Add(Record{
				Path:   fmt.Sprintf("Root/bin/%02d", i),
				Digest: digest.FromString(fmt.Sprint(i)),
			}))
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := Read(f)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}
