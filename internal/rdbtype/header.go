package rdbtype

// Header is the fixed part of an RDB index file header followed by its
// NUL-terminated path.
type Header struct {
	Magic      uint32
	Version    uint32
	HeaderSize uint32
	SystemID   uint32
	FileCount  uint32
	Ktid       uint32

	// Path is the archive path recorded in the header.
	Path string
}
