package fdata

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/fdata/internal/testutil"
	"github.com/meigma/fdata/internal/typeinfo"
)

func TestInspectContainer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0.fdata")
	require.NoError(t, os.WriteFile(path, testutil.Container(t,
		testutil.Entry{FileKtid: 1, TypeInfoKtid: typeinfo.G1M, Data: testutil.Compressible(20000), Opaque: make([]byte, 12)},
		testutil.Entry{FileKtid: 2, TypeInfoKtid: 0xDEADBEEF, Data: []byte("ABCDEFGH"), Stored: true, Flags: 0b101},
	), 0o600))

	res, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, KindContainer, res.Kind)
	require.Len(t, res.Entries, 2)

	first := res.Entries[0]
	assert.Equal(t, "g1m", first.Extension)
	assert.Equal(t, int64(0x10), first.Offset)
	assert.Equal(t, uint64(12), first.OpaqueSize())
	assert.False(t, first.Stored())

	second := res.Entries[1]
	assert.Equal(t, "0xDEADBEEF", second.Extension)
	assert.True(t, second.Stored())
	assert.True(t, second.Flags.Has(0))
	assert.False(t, second.Flags.Has(1))
	assert.True(t, second.Flags.Has(2))

	assert.Equal(t, uint64(20008), res.TotalFileSize())
	assert.Equal(t, first.CompSize+8, res.TotalCompSize())
}

func TestInspectLoose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0x00000009.file")
	require.NoError(t, os.WriteFile(path, testutil.Loose(t, testutil.Entry{
		FileKtid: 9, TypeInfoKtid: typeinfo.G1A, Data: []byte("x"), Stored: true,
	}), 0o600))

	res, err := Inspect(path)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(0), res.Entries[0].Offset)
	assert.Equal(t, "g1a", res.Entries[0].Extension)
}

func TestInspectIndex(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for _, v := range []uint32{0x5F524442, 0x30303030, 0x20, 7, 3, 0xABCD} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.WriteString("data/system.rdb\x00")
	path := filepath.Join(t.TempDir(), "system.rdb")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	res, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, KindIndex, res.Kind)
	require.NotNil(t, res.Header)
	assert.Equal(t, uint32(3), res.Header.FileCount)
	assert.Equal(t, "data/system.rdb", res.Header.Path)
	assert.Empty(t, res.Entries)
}

func TestInspectErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.fdata")
	good := testutil.Container(t, testutil.Entry{FileKtid: 1, Data: []byte("ok"), Stored: true})
	require.NoError(t, os.WriteFile(bad, append(good, bytes.Repeat([]byte{1}, 0x30)...), 0o600))

	res, err := Inspect(bad)
	assert.ErrorIs(t, err, ErrFormat)
	require.NotNil(t, res)
	assert.Len(t, res.Entries, 1)

	_, err = Inspect(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)

	_, err = Inspect(filepath.Join(dir, "missing.fdata"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
