package chunk

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Pool manages reusable zlib readers to reduce allocation overhead.
//
// zlib readers consume the stream header on creation, so the pool starts
// empty and readers are only created on first use.
type Pool struct {
	pool sync.Pool
}

// NewPool creates an empty reader pool.
func NewPool() *Pool {
	return &Pool{}
}

// Get returns a zlib reader positioned at the start of r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *Pool) Get(r io.Reader) (io.ReadCloser, func(), error) {
	if p == nil {
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	}

	value := p.pool.Get()
	if value == nil {
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, p.releaser(zr), nil
	}

	zr, ok := value.(io.ReadCloser)
	resetter, resettable := value.(zlib.Resetter)
	if !ok || !resettable {
		fresh, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, p.releaser(fresh), nil
	}
	if err := resetter.Reset(r, nil); err != nil {
		// A failed reset leaves the reader in an undefined state; drop it.
		_ = zr.Close()
		return nil, nil, err
	}
	return zr, p.releaser(zr), nil
}

func (p *Pool) releaser(zr io.ReadCloser) func() {
	return func() {
		p.pool.Put(zr)
	}
}
