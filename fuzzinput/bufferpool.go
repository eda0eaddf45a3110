package fuzzinput

import "sync"

// Element storage is drawn from a local pool. A tensor's buffer goes back
// to the pool on Release; nothing else holds on to it.

type byteBuffer struct {
	b []byte
}

var bbPool = sync.Pool{New: func() any { return &byteBuffer{b: make([]byte, 0, 1024)} }}

// getBuffer obtains a pooled buffer with length n and every byte zeroed.
func getBuffer(n int) *byteBuffer {
	bb := bbPool.Get().(*byteBuffer)
	bb.ensure(n)
	bb.b = bb.b[:n]
	clear(bb.b)
	return bb
}

// putBuffer returns bb to the pool after resetting its length.
func putBuffer(bb *byteBuffer) {
	bb.b = bb.b[:0]
	bbPool.Put(bb)
}

// ensure grows the capacity to at least n bytes.
func (bb *byteBuffer) ensure(n int) {
	if cap(bb.b) >= n {
		return
	}
	c := cap(bb.b)
	if c == 0 {
		c = 1024
	}
	for c < n {
		c <<= 1
	}
	bb.b = make([]byte, 0, c)
}
