package fuzzinput

import (
	"encoding/binary"
	"math"
)

// Cursor reads typed values from a fuzz input. It is owned by a single
// harness invocation and must not be shared between goroutines.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor constructs a Cursor over b. The slice is never modified.
func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Len returns the length of the whole input.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// HasRemaining reports whether at least n bytes are left. It is true for
// any n <= 0.
func (c *Cursor) HasRemaining(n int) bool { return n <= c.Remaining() }

// Rest returns the unread portion of the input without consuming it.
func (c *Cursor) Rest() []byte { return c.buf[c.off:] }

// Require returns a ShortBytesError when fewer than n bytes are left.
// Harnesses use it where a missing argument should reject the input
// instead of falling back to a default.
func (c *Cursor) Require(n int) error {
	if c.HasRemaining(n) {
		return nil
	}
	return ShortBytesError{Wanted: n, Remaining: c.Remaining()}
}

// Skip advances over n bytes, or to the end of the input if fewer remain,
// and returns the number of bytes skipped.
func (c *Cursor) Skip(n int) int {
	if n <= 0 {
		return 0
	}
	if n > c.Remaining() {
		n = c.Remaining()
	}
	c.off += n
	return n
}

// ReadIntegral reads width bytes as a little-endian unsigned integer.
// Width must be 1, 2, 4 or 8. When fewer than width bytes are left, or the
// width is unsupported, it returns (0, false) and the offset is unchanged.
func (c *Cursor) ReadIntegral(width int) (uint64, bool) {
	if !c.HasRemaining(width) {
		return 0, false
	}
	p := c.buf[c.off:]
	var v uint64
	switch width {
	case 1:
		v = uint64(p[0])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(p))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(p))
	case 8:
		v = binary.LittleEndian.Uint64(p)
	default:
		return 0, false
	}
	c.off += width
	return v, true
}

// ReadUint8 reads one byte.
func (c *Cursor) ReadUint8() (uint8, bool) {
	v, ok := c.ReadIntegral(1)
	return uint8(v), ok
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, bool) {
	v, ok := c.ReadIntegral(2)
	return uint16(v), ok
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, bool) {
	v, ok := c.ReadIntegral(4)
	return uint32(v), ok
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, bool) {
	return c.ReadIntegral(8)
}

// ReadInt8 reads one byte as a two's complement int8.
func (c *Cursor) ReadInt8() (int8, bool) {
	v, ok := c.ReadIntegral(1)
	return int8(v), ok
}

// ReadInt16 reads a little-endian int16.
func (c *Cursor) ReadInt16() (int16, bool) {
	v, ok := c.ReadIntegral(2)
	return int16(v), ok
}

// ReadInt32 reads a little-endian int32.
func (c *Cursor) ReadInt32() (int32, bool) {
	v, ok := c.ReadIntegral(4)
	return int32(v), ok
}

// ReadInt64 reads a little-endian int64.
func (c *Cursor) ReadInt64() (int64, bool) {
	v, ok := c.ReadIntegral(8)
	return int64(v), ok
}

// ReadFloat32 reads the IEEE 754 bits of a float32. NaN and infinities
// are returned as-is.
func (c *Cursor) ReadFloat32() (float32, bool) {
	v, ok := c.ReadIntegral(4)
	return math.Float32frombits(uint32(v)), ok
}

// ReadFloat64 reads the IEEE 754 bits of a float64.
func (c *Cursor) ReadFloat64() (float64, bool) {
	v, ok := c.ReadIntegral(8)
	return math.Float64frombits(v), ok
}

// Uint8Or reads one byte or returns def.
func (c *Cursor) Uint8Or(def uint8) uint8 {
	if v, ok := c.ReadUint8(); ok {
		return v
	}
	return def
}

// Int32Or reads an int32 or returns def.
func (c *Cursor) Int32Or(def int32) int32 {
	if v, ok := c.ReadInt32(); ok {
		return v
	}
	return def
}

// Int64Or reads an int64 or returns def.
func (c *Cursor) Int64Or(def int64) int64 {
	if v, ok := c.ReadInt64(); ok {
		return v
	}
	return def
}

// Float32Or reads a float32 or returns def.
func (c *Cursor) Float32Or(def float32) float32 {
	if v, ok := c.ReadFloat32(); ok {
		return v
	}
	return def
}

// Float64Or reads a float64 or returns def.
func (c *Cursor) Float64Or(def float64) float64 {
	if v, ok := c.ReadFloat64(); ok {
		return v
	}
	return def
}

// ReadBool reads one byte and returns whether its low bit is set.
// An exhausted cursor yields false.
func (c *Cursor) ReadBool() bool {
	return c.Uint8Or(0)&1 == 1
}

// ReadBoundedInt reads one byte and reduces it modulo bound, so the result
// is always in [0, bound). An exhausted cursor reads as byte 0. A bound
// <= 0 returns 0 without consuming input.
func (c *Cursor) ReadBoundedInt(bound int) int {
	if bound <= 0 {
		return 0
	}
	return int(c.Uint8Or(0)) % bound
}

// ReadRange returns a value in [lo, hi] derived from one byte. When hi < lo
// it returns lo without consuming input.
func (c *Cursor) ReadRange(lo, hi int) int {
	if hi < lo {
		return lo
	}
	return lo + c.ReadBoundedInt(hi-lo+1)
}

// ReadChoice picks one of n alternatives; it is ReadBoundedInt under a
// name that reads better at call sites selecting an operation variant.
func (c *Cursor) ReadChoice(n int) int { return c.ReadBoundedInt(n) }

// ReadFloatIn maps one byte linearly onto [lo, hi]. It is used for
// tolerances, probabilities and scale factors where raw IEEE bits would
// mostly produce NaN or huge values. An exhausted cursor yields lo.
func (c *Cursor) ReadFloatIn(lo, hi float64) float64 {
	b, ok := c.ReadUint8()
	if !ok {
		return lo
	}
	return lo + (hi-lo)*float64(b)/math.MaxUint8
}

// ReadBytes returns a copy of the next n bytes. Bytes missing from the
// input are zero; the offset advances only by the bytes actually read.
func (c *Cursor) ReadBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	c.off += copy(out, c.buf[c.off:])
	return out
}
