package rdbtype

// Magic and version markers shared by all IDRK framed formats.
const (
	// EntryMagic is the little-endian value of the "IDRK" entry marker.
	EntryMagic uint32 = 0x4B524449

	// Version is the little-endian value of the "0000" version marker.
	Version uint32 = 0x30303030

	// EntryHeaderSize is the size of the fixed container entry header.
	EntryHeaderSize = 0x30
)

// Flags is the entry flag bitfield. Only the low three bits are defined.
type Flags uint32

// Has reports whether bit n (0, 1 or 2) is set.
func (f Flags) Has(n uint) bool {
	if n > 2 {
		return false
	}
	return f&(1<<n) != 0
}

// EntryHeader is the on-disk layout of a container entry header.
//
// Fields are stored little-endian in this order.
type EntryHeader struct {
	Magic        uint32
	Version      uint32
	EntrySize    uint64
	CompSize     uint64
	FileSize     uint64
	EntryType    uint32
	FileKtid     uint32
	TypeInfoKtid uint32
	Flags        Flags
}

// Entry represents one record inside a container.
type Entry struct {
	EntryHeader

	// Offset is the stream offset of the entry header (the entry base).
	Offset int64

	// PayloadOffset is the stream offset of the first payload byte,
	// immediately after the opaque region.
	PayloadOffset int64
}

// OpaqueSize returns the length of the uninterpreted region between the
// header and the payload.
func (e *Entry) OpaqueSize() uint64 {
	return e.EntrySize - e.CompSize - EntryHeaderSize
}

// Stored reports whether the payload is stored without compression.
func (e *Entry) Stored() bool {
	return e.CompSize == e.FileSize
}

// End returns the offset one past the last byte of the entry, before alignment.
func (e *Entry) End() int64 {
	return e.Offset + int64(e.EntrySize) //nolint:gosec // validated against stream size by the reader
}
