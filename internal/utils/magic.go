// Package utils provides helpers shared by the scalemerge backends.
package utils

import (
	"bytes"
	"io"
	"sync"
)

// ReaderAt is a simplified interface for io.ReaderAt.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

var headerPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 16)
	},
}

// getHeader returns a byte slice of length size from the pool.
func getHeader(size int) []byte {
	buf := headerPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func releaseHeader(buf []byte) {
	//nolint:staticcheck // SA6002: slice descriptor copy is acceptable for sync.Pool
	headerPool.Put(buf[:0])
}

// HasPrefix reports whether the first bytes of r equal magic.
// Short files never match.
func HasPrefix(r ReaderAt, magic []byte) bool {
	buf := getHeader(len(magic))
	defer releaseHeader(buf)

	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return false
	}
	return n == len(magic) && bytes.Equal(buf, magic)
}
