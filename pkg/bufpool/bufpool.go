// Package bufpool pools the byte buffers PDF documents are serialized
// into, so a busy API server does not allocate a fresh multi-megabyte
// buffer per report.
//
// Usage:
//
//	buf := bufpool.Get()
//	defer bufpool.Put(buf)
//	_ = doc.Output(buf)
//	pdf := bytes.Clone(buf.Bytes())
package bufpool

import (
	"bytes"
	"sync"
)

// MaxPooledSize is the largest buffer capacity returned to the pool.
// Larger buffers are left to the garbage collector.
const MaxPooledSize = 4 << 20

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Get returns an empty buffer from the pool.
func Get() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// GetSized returns an empty buffer with at least size bytes of capacity.
func GetSized(size int) *bytes.Buffer {
	buf := Get()
	if buf.Cap() < size {
		buf.Grow(size)
	}
	return buf
}

// Put returns buf to the pool. The caller must not use buf afterwards.
func Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooledSize {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
