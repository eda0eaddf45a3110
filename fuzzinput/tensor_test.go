package fuzzinput

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func TestReadTensorFloat32(t *testing.T) {
	// dtype 0 -> float32, rank byte 1 -> rank 1, dim byte 1 -> 2 elements.
	buf := []byte{0, 1, 1}
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(1.5))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(-2))
	buf = append(buf, 0xaa)

	c := NewCursor(buf)
	tn := c.ReadTensor(4, 10, nil)
	defer tn.Release()

	if tn.DType != Float32 || tn.Shape.String() != "[2]" {
		t.Fatalf("tensor = %v", tn)
	}
	if tn.Consumed != 8 {
		t.Fatalf("consumed = %d", tn.Consumed)
	}
	got := tn.Float64s()
	if len(got) != 2 || got[0] != 1.5 || got[1] != -2 {
		t.Fatalf("Float64s = %v", got)
	}
	if c.Remaining() != 1 {
		t.Fatalf("remaining = %d", c.Remaining())
	}
}

func TestReadTensorZeroFill(t *testing.T) {
	// dtype 10 -> int64, rank 2, dims 2x3, only 4 element bytes present.
	buf := []byte{10, 2, 1, 2, 0x05, 0, 0, 0}
	c := NewCursor(buf)
	tn := c.ReadTensor(4, 10, nil)
	defer tn.Release()

	if tn.DType != Int64 || tn.Shape.String() != "[2,3]" {
		t.Fatalf("tensor = %v", tn)
	}
	if len(tn.Data()) != 6*8 {
		t.Fatalf("storage = %d bytes", len(tn.Data()))
	}
	if tn.Consumed != 4 {
		t.Fatalf("consumed = %d", tn.Consumed)
	}
	vals := tn.Float64s()
	if vals[0] != 5 {
		t.Fatalf("vals[0] = %v", vals[0])
	}
	for _, v := range vals[1:] {
		if v != 0 {
			t.Fatalf("zero fill: %v", vals)
		}
	}
	if c.Remaining() != 0 || c.Offset() != len(buf) {
		t.Fatalf("offset = %d", c.Offset())
	}
	if !strings.Contains(tn.String(), "zero-filled=44") {
		t.Fatalf("String = %q", tn.String())
	}
}

func TestReadTensorPoolReuseIsZeroed(t *testing.T) {
	full := make([]byte, 3+16*4)
	full[0], full[1], full[2] = 5, 1, 3 // complex128 [4]
	for i := 3; i < len(full); i++ {
		full[i] = 0xff
	}
	a := NewCursor(full).ReadTensor(4, 10, nil)
	a.Release()

	b := NewCursor([]byte{5, 1, 3}).ReadTensor(4, 10, nil)
	defer b.Release()
	for _, x := range b.Data() {
		if x != 0 {
			t.Fatalf("reused buffer not zeroed: %v", b.Data())
		}
	}
}

func TestElementDecoding(t *testing.T) {
	cases := []struct {
		dtype DType
		bytes []byte
		want  float64
	}{
		{Float16, []byte{0x00, 0x3c}, 1},
		{Float16, []byte{0x00, 0xc0}, -2},
		{BFloat16, []byte{0xc0, 0x3f}, 1.5},
		{Int8, []byte{0xff}, -1},
		{Uint8, []byte{0xff}, 255},
		{Int16, []byte{0xfe, 0xff}, -2},
		{Int32, []byte{0x10, 0x00, 0x00, 0x00}, 16},
		{Bool, []byte{0x02}, 1},
		{Bool, []byte{0x00}, 0},
	}
	for _, tc := range cases {
		if got := decodeReal(tc.dtype, tc.bytes); got != tc.want {
			t.Fatalf("%v %x: got %v want %v", tc.dtype, tc.bytes, got, tc.want)
		}
	}
}

func TestComplex128s(t *testing.T) {
	buf := []byte{4, 0} // complex64 scalar
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(3))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(-4))
	tn := NewCursor(buf).ReadTensor(4, 10, nil)
	defer tn.Release()

	got := tn.Complex128s()
	if len(got) != 1 || got[0] != complex(3, -4) {
		t.Fatalf("Complex128s = %v", got)
	}
	if re := tn.Float64s(); re[0] != 3 {
		t.Fatalf("real part = %v", re)
	}
	if s := tn.String(); s != "complex64[] {3-4i}" {
		t.Fatalf("String = %q", s)
	}
}

func TestMatrixAndBatchDims(t *testing.T) {
	cases := []struct {
		shape              Shape
		rows, cols         int
		batch, brows, bcol int
	}{
		{Shape{}, 1, 1, 1, 1, 1},
		{Shape{5}, 1, 5, 1, 1, 5},
		{Shape{2, 3}, 2, 3, 1, 2, 3},
		{Shape{4, 2, 3}, 8, 3, 4, 2, 3},
		{Shape{2, 2, 3, 5}, 12, 5, 4, 3, 5},
	}
	for _, tc := range cases {
		tn := &Tensor{Shape: tc.shape, DType: Float64}
		r, c := tn.MatrixDims()
		if r != tc.rows || c != tc.cols {
			t.Fatalf("%v MatrixDims = %d,%d", tc.shape, r, c)
		}
		b, br, bc := tn.BatchDims()
		if b != tc.batch || br != tc.brows || bc != tc.bcol {
			t.Fatalf("%v BatchDims = %d,%d,%d", tc.shape, b, br, bc)
		}
	}
}

func TestShapeNumElementsOverflow(t *testing.T) {
	if _, ok := (Shape{math.MaxInt, 3}).NumElements(); ok {
		t.Fatal("overflow not detected")
	}
	if _, ok := (Shape{2, -1}).NumElements(); ok {
		t.Fatal("negative dim accepted")
	}
	if n, ok := (Shape{}).NumElements(); !ok || n != 1 {
		t.Fatalf("scalar NumElements = %d, %v", n, ok)
	}
}

func TestReleasedTensor(t *testing.T) {
	tn := NewCursor([]byte{1, 0}).ReadTensor(4, 10, nil)
	tn.Release()
	tn.Release()
	if tn.Data() != nil || len(tn.Float64s()) != 0 {
		t.Fatalf("released tensor still has data")
	}
	if s := tn.String(); s != "float64[] <released>" {
		t.Fatalf("String = %q", s)
	}
}

func TestScalarTypeSubset(t *testing.T) {
	c := NewCursor([]byte{0, 1, 2, 3, 4, 5})
	for i := 0; i < 6; i++ {
		d := c.ReadScalarType(FloatingTypes)
		if !d.IsFloating() {
			t.Fatalf("got non floating %v", d)
		}
	}
	for _, d := range SupportedTypes {
		if d.Size() == 0 || d.String() == "<invalid>" {
			t.Fatalf("dtype %d has no size or name", d)
		}
	}
}

func TestReadTensorOversizedBounds(t *testing.T) {
	in := []byte{0, 8, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	c := NewCursor(in)
	tn := c.ReadTensor(8, 256, []DType{Float64})
	defer tn.Release()

	want := Shape{256, 256, 64, 1, 1, 1, 1, 1}
	if tn.Shape.String() != want.String() {
		t.Fatalf("shape = %v, want %v", tn.Shape, want)
	}
	n := tn.NumElements()
	if n != MaxTensorElements || len(tn.Data()) != n*Float64.Size() {
		t.Fatalf("NumElements = %d, storage = %d bytes", n, len(tn.Data()))
	}
	if rows, cols := tn.MatrixDims(); rows*cols != n {
		t.Fatalf("MatrixDims = %d x %d for %d elements", rows, cols, n)
	}
	if tn.Consumed != 0 || c.Offset() != len(in) {
		t.Fatalf("consumed %d, offset %d", tn.Consumed, c.Offset())
	}
}

func TestReadShapeElementCap(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xff
	}
	for _, maxRank := range []int{3, 8, 32} {
		c := NewCursor(buf)
		s := c.ReadShape(maxRank, 256)
		n, ok := s.NumElements()
		if !ok || n > MaxTensorElements {
			t.Fatalf("rank %d: %v has %d elements", maxRank, s, n)
		}
		for _, d := range s {
			if d < 1 || d > 256 {
				t.Fatalf("dim %d outside [1, 256]", d)
			}
		}
	}
}
