// Package testutil builds synthetic containers, name files and object graphs
// for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// chunkSize is the decompressed size of a full chunk.
const chunkSize = 16384

// Framing describes how compressed chunks are framed.
type Framing struct {
	SizeWidth int
	Trailer   int
}

// Chunk framings matching the decoder variants.
var (
	StandardFraming = Framing{SizeWidth: 2, Trailer: 8}
	FEFraming       = Framing{SizeWidth: 4}
)

// Deflate returns data as a zlib stream.
func Deflate(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(tb, err)
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// Chunks splits data into 16 KiB pieces, compresses each independently and
// frames them with f.
func Chunks(tb testing.TB, data []byte, f Framing) []byte {
	tb.Helper()
	var buf bytes.Buffer
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		comp := Deflate(tb, data[start:end])
		switch f.SizeWidth {
		case 2:
			require.LessOrEqual(tb, len(comp), 0xFFFF)
			_ = binary.Write(&buf, binary.LittleEndian, uint16(len(comp))) //nolint:gosec // checked above
		default:
			_ = binary.Write(&buf, binary.LittleEndian, uint32(len(comp))) //nolint:gosec // test data is small
		}
		buf.Write(make([]byte, f.Trailer))
		buf.Write(comp)
	}
	return buf.Bytes()
}

// Compressible returns n bytes of repetitive, easily compressed data.
func Compressible(n int) []byte {
	pattern := []byte("fdata chunk payload 0123456789 ")
	out := make([]byte, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)] + byte(i/chunkSize)
	}
	return out
}

// Entry describes a container entry to build.
type Entry struct {
	EntryType    uint32
	FileKtid     uint32
	TypeInfoKtid uint32
	Flags        uint32

	// Data is the decompressed content.
	Data []byte

	// Stored writes Data verbatim with CompSize == FileSize.
	Stored bool

	// Opaque is written between the header and the payload.
	Opaque []byte

	// Framing selects the chunk framing; the zero value means StandardFraming.
	Framing Framing

	// Payload replaces the computed payload when non-nil. CompSize is
	// derived from its length.
	Payload []byte
}

// Header field values written for every entry.
const (
	entryMagic   uint32 = 0x4B524449
	version      uint32 = 0x30303030
	entryHdrSize        = 0x30
)

// EntryBytes encodes a single entry without trailing alignment.
func EntryBytes(tb testing.TB, e Entry) []byte {
	tb.Helper()
	payload := e.Payload
	if payload == nil {
		if e.Stored {
			payload = e.Data
		} else {
			f := e.Framing
			if f.SizeWidth == 0 {
				f = StandardFraming
			}
			payload = Chunks(tb, e.Data, f)
		}
	}
	compSize := uint64(len(payload))
	entrySize := uint64(entryHdrSize+len(e.Opaque)) + compSize

	var buf bytes.Buffer
	hdr := []any{
		entryMagic, version,
		entrySize, compSize, uint64(len(e.Data)),
		e.EntryType, e.FileKtid, e.TypeInfoKtid, e.Flags,
	}
	for _, v := range hdr {
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.Write(e.Opaque)
	buf.Write(payload)
	return buf.Bytes()
}

// Container encodes a container: a 16-byte file header followed by the
// entries, each padded to a 16-byte boundary.
func Container(tb testing.TB, entries ...Entry) []byte {
	tb.Helper()
	var buf bytes.Buffer
	buf.WriteString("FDATA\x00\x00\x00")
	buf.Write(make([]byte, 8))
	for _, e := range entries {
		buf.Write(EntryBytes(tb, e))
		pad(&buf, 16)
	}
	return buf.Bytes()
}

// Loose encodes a loose ".file" file holding a single entry at offset 0.
func Loose(tb testing.TB, e Entry) []byte {
	tb.Helper()
	var buf bytes.Buffer
	buf.Write(EntryBytes(tb, e))
	pad(&buf, 16)
	return buf.Bytes()
}

func pad(buf *bytes.Buffer, n int) {
	if rem := buf.Len() % n; rem != 0 {
		buf.Write(make([]byte, n-rem))
	}
}

// Marker triples wrapped around target names in name files.
var (
	namePrefix = []byte{0xEF, 0xBC, 0xBB}
	nameSuffix = []byte{0xEF, 0xBC, 0xBD}
)

// WrapName wraps a base name the way name files store it, e.g.
// "R_G1M［body］".
func WrapName(tag, name string) string {
	return tag + string(namePrefix) + name + string(nameSuffix)
}

// NameRecord describes one name file entry.
type NameRecord struct {
	FileKtid     uint32
	TypeInfoKtid uint32

	// Target is stored verbatim as the first string.
	Target string

	// Class is stored as the second string.
	Class string

	// Extra strings appended after Class.
	Extra []string
}

// NameFile encodes a name file: a 24-byte header followed by entries,
// each padded to a 4-byte boundary.
func NameFile(tb testing.TB, records ...NameRecord) []byte {
	tb.Helper()
	var buf bytes.Buffer
	header := []uint32{0x4B52445F, version, 24, 0, uint32(len(records)), 0} //nolint:gosec // test data is small
	for _, v := range header {
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, v))
	}
	for _, rec := range records {
		strs := append([]string{rec.Target, rec.Class}, rec.Extra...)
		fixed := 24 + 4*len(strs)

		var body bytes.Buffer
		offsets := make([]uint32, len(strs))
		for i, s := range strs {
			offsets[i] = uint32(fixed + body.Len()) //nolint:gosec // test data is small
			body.WriteString(s)
			body.WriteByte(0)
		}
		entrySize := uint32(fixed + body.Len()) //nolint:gosec // test data is small

		fields := []uint32{entryMagic, version, entrySize, rec.FileKtid, rec.TypeInfoKtid, uint32(len(strs))} //nolint:gosec // test data is small
		for _, v := range fields {
			require.NoError(tb, binary.Write(&buf, binary.LittleEndian, v))
		}
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, offsets))
		buf.Write(body.Bytes())
		pad(&buf, 4)
	}
	return buf.Bytes()
}

// ObjProperty is one object-graph property.
type ObjProperty struct {
	Ktid   uint32
	Values []uint32
}

// ObjRecord is one object-graph record.
type ObjRecord struct {
	TypeInfoKtid uint32
	ObjectKtid   uint32
	Name         string
	Properties   []ObjProperty
}

// ObjDB encodes an object graph file.
func ObjDB(tb testing.TB, records ...ObjRecord) []byte {
	tb.Helper()
	var buf bytes.Buffer
	buf.WriteString("KODB")
	header := []uint32{version, 16, uint32(len(records))} //nolint:gosec // test data is small
	require.NoError(tb, binary.Write(&buf, binary.LittleEndian, header))

	for _, rec := range records {
		var body bytes.Buffer
		require.NoError(tb, binary.Write(&body, binary.LittleEndian, rec.TypeInfoKtid))
		require.NoError(tb, binary.Write(&body, binary.LittleEndian, rec.ObjectKtid))
		require.NoError(tb, binary.Write(&body, binary.LittleEndian, uint16(len(rec.Name))))       //nolint:gosec // test data is small
		require.NoError(tb, binary.Write(&body, binary.LittleEndian, uint16(len(rec.Properties)))) //nolint:gosec // test data is small
		body.WriteString(rec.Name)
		// recordSize precedes body, so pad relative to the record start.
		for (4+body.Len())%4 != 0 {
			body.WriteByte(0)
		}
		for _, p := range rec.Properties {
			require.NoError(tb, binary.Write(&body, binary.LittleEndian, p.Ktid))
			require.NoError(tb, binary.Write(&body, binary.LittleEndian, uint32(len(p.Values)))) //nolint:gosec // test data is small
			require.NoError(tb, binary.Write(&body, binary.LittleEndian, p.Values))
		}
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, uint32(4+body.Len()))) //nolint:gosec // test data is small
		buf.Write(body.Bytes())
	}
	return buf.Bytes()
}
