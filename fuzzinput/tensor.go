package fuzzinput

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// Tensor is a decoded tensor descriptor: a shape, an element type and the
// raw little-endian element storage.
type Tensor struct {
	Shape Shape
	DType DType

	// Consumed is the number of element bytes taken from the input. It is
	// smaller than len(Data()) when the input ran out and the rest of the
	// storage was zero-filled.
	Consumed int

	buf *byteBuffer
}

// ReadTensor reads an element type from supported, a shape bounded by
// maxRank and maxDimSize, and NumElements*DType.Size() bytes of element
// storage. Storage beyond the end of the input is zero.
func (c *Cursor) ReadTensor(maxRank, maxDimSize int, supported []DType) *Tensor {
	t := &Tensor{DType: c.ReadScalarType(supported)}
	t.Shape = c.ReadShape(maxRank, maxDimSize)

	// ReadShape keeps n within MaxTensorElements.
	n, _ := t.Shape.NumElements()
	t.buf = getBuffer(n * t.DType.Size())
	t.Consumed = copy(t.buf.b, c.buf[c.off:])
	c.off += t.Consumed
	return t
}

// ReadTensorWith is ReadTensor with bounds taken from l.
func (c *Cursor) ReadTensorWith(l Limits, supported []DType) *Tensor {
	return c.ReadTensor(l.MaxRank, l.MaxDimSize, supported)
}

// Data returns the raw element storage. It is nil after Release.
func (t *Tensor) Data() []byte {
	if t.buf == nil {
		return nil
	}
	return t.buf.b
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.Shape) }

// NumElements returns the element count implied by the shape.
func (t *Tensor) NumElements() int {
	n, ok := t.Shape.NumElements()
	if !ok {
		return 0
	}
	return n
}

// Release returns the element storage to the pool. The tensor must not be
// used afterwards except for Shape and DType.
func (t *Tensor) Release() {
	if t.buf != nil {
		putBuffer(t.buf)
		t.buf = nil
	}
}

// Float64s decodes every element as a float64. Complex elements contribute
// their real part and booleans decode as 0 or 1.
func (t *Tensor) Float64s() []float64 {
	data := t.Data()
	size := t.DType.Size()
	if size == 0 {
		return nil
	}
	out := make([]float64, len(data)/size)
	for i := range out {
		out[i] = decodeReal(t.DType, data[i*size:])
	}
	return out
}

// Complex128s decodes every element as a complex128. Real elements get a
// zero imaginary part.
func (t *Tensor) Complex128s() []complex128 {
	data := t.Data()
	size := t.DType.Size()
	if size == 0 {
		return nil
	}
	out := make([]complex128, len(data)/size)
	for i := range out {
		p := data[i*size:]
		switch t.DType {
		case Complex64:
			re := math.Float32frombits(binary.LittleEndian.Uint32(p))
			im := math.Float32frombits(binary.LittleEndian.Uint32(p[4:]))
			out[i] = complex(float64(re), float64(im))
		case Complex128:
			re := math.Float64frombits(binary.LittleEndian.Uint64(p))
			im := math.Float64frombits(binary.LittleEndian.Uint64(p[8:]))
			out[i] = complex(re, im)
		default:
			out[i] = complex(decodeReal(t.DType, p), 0)
		}
	}
	return out
}

// MatrixDims returns the dimensions of the tensor viewed as a matrix: the
// last dimension becomes the columns and all leading dimensions collapse
// into rows. Scalars and vectors are a single row.
func (t *Tensor) MatrixDims() (rows, cols int) {
	switch t.Rank() {
	case 0:
		return 1, 1
	case 1:
		return 1, t.Shape[0]
	}
	cols = t.Shape[len(t.Shape)-1]
	if cols == 0 {
		return 0, 0
	}
	return t.NumElements() / cols, cols
}

// BatchDims returns the tensor viewed as a batch of matrices over its two
// trailing dimensions. Tensors of rank < 2 are a batch of one.
func (t *Tensor) BatchDims() (batch, rows, cols int) {
	if t.Rank() < 2 {
		rows, cols = t.MatrixDims()
		return 1, rows, cols
	}
	rows = t.Shape[len(t.Shape)-2]
	cols = t.Shape[len(t.Shape)-1]
	if rows == 0 || cols == 0 {
		return 0, rows, cols
	}
	return t.NumElements() / (rows * cols), rows, cols
}

func decodeReal(d DType, p []byte) float64 {
	switch d {
	case Float32, Complex64:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case Float64, Complex128:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(p)).Float32())
	case BFloat16:
		return float64(math.Float32frombits(uint32(binary.LittleEndian.Uint16(p)) << 16))
	case Int8:
		return float64(int8(p[0]))
	case Uint8:
		return float64(p[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(p)))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(p)))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(p)))
	case Bool:
		if p[0] != 0 {
			return 1
		}
		return 0
	}
	return 0
}
