package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/meigma/fdata/internal/rdbtype"
)

// maxPathLen bounds the NUL-terminated path of an RDB header.
const maxPathLen = 4096

// ReadHeader parses the header of an RDB index file.
func ReadHeader(r io.Reader) (*rdbtype.Header, error) {
	br := bufio.NewReader(io.LimitReader(r, 24+maxPathLen+1))

	var fixed [6]uint32
	if err := binary.Read(br, binary.LittleEndian, &fixed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, rdbtype.Formatf(0, "truncated rdb header")
		}
		return nil, err
	}
	h := &rdbtype.Header{
		Magic:      fixed[0],
		Version:    fixed[1],
		HeaderSize: fixed[2],
		SystemID:   fixed[3],
		FileCount:  fixed[4],
		Ktid:       fixed[5],
	}
	if h.Version != rdbtype.Version {
		return nil, rdbtype.Formatf(4, "bad rdb version 0x%08X", h.Version)
	}

	path, err := br.ReadBytes(0)
	if err != nil {
		return nil, rdbtype.Formatf(24, "rdb path unterminated within %d bytes", maxPathLen)
	}
	h.Path = string(path[:len(path)-1])
	return h, nil
}
