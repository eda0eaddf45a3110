package fuzzinput

import (
	"math/bits"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Shape is an ordered list of dimension sizes. A nil or empty Shape is a
// scalar.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// NumElements returns the product of the dimensions, 1 for a scalar.
// ok is false if a dimension is negative or the product overflows int.
func (s Shape) NumElements() (n int, ok bool) {
	var acc uint64 = 1
	for _, d := range s {
		if d < 0 {
			return 0, false
		}
		hi, lo := bits.Mul64(acc, uint64(d))
		if hi != 0 {
			return 0, false
		}
		acc = lo
	}
	n, err := safecast.Conv[int](acc)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders the shape as "[d0,d1,...]".
func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(d))
	}
	b.WriteByte(']')
	return b.String()
}

// ReadShape reads a rank in [0, maxRank] and then rank dimensions in
// [1, maxDimSize]. Every dimension whose byte is missing is 1.
//
// A dimension that would take the element count past MaxTensorElements is
// lowered so the product stays within it. Bounds accepted by
// Limits.Validate never trigger this.
func (c *Cursor) ReadShape(maxRank, maxDimSize int) Shape {
	rank := c.ReadBoundedInt(maxRank + 1)
	if rank == 0 {
		return Shape{}
	}
	shape := make(Shape, rank)
	n := 1
	for i := range shape {
		d := c.ReadBoundedInt(maxDimSize) + 1
		if d > MaxTensorElements/n {
			d = MaxTensorElements / n
		}
		shape[i] = d
		n *= d
	}
	return shape
}
