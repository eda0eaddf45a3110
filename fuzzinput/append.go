package fuzzinput

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// The AppendXxxx functions build inputs that decode to known values. They
// are the inverse of the Cursor reads and are used for seed corpora and
// tests.

// AppendUint8 appends one byte.
func AppendUint8(b []byte, v uint8) []byte { return append(b, v) }

// AppendUint16 appends a little-endian uint16.
func AppendUint16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }

// AppendUint32 appends a little-endian uint32.
func AppendUint32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

// AppendUint64 appends a little-endian uint64.
func AppendUint64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

// AppendFloat32 appends the IEEE 754 bits of f.
func AppendFloat32(b []byte, f float32) []byte { return AppendUint32(b, math.Float32bits(f)) }

// AppendFloat64 appends the IEEE 754 bits of f.
func AppendFloat64(b []byte, f float64) []byte { return AppendUint64(b, math.Float64bits(f)) }

// AppendBool appends a byte that ReadBool decodes as v.
func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// AppendShape appends a rank byte and one byte per dimension so that
// ReadShape(l.MaxRank, l.MaxDimSize) returns s. It panics if s cannot be
// decoded under l, as a seed built from it would silently decode to
// another shape.
func AppendShape(b []byte, s Shape, l Limits) []byte {
	if len(s) > l.MaxRank {
		panic(fmt.Sprintf("fuzzinput: shape %v exceeds rank %d", s, l.MaxRank))
	}
	for _, d := range s {
		if d < 1 || d > l.MaxDimSize {
			panic(fmt.Sprintf("fuzzinput: shape %v has a dimension outside [1, %d]", s, l.MaxDimSize))
		}
	}
	b = append(b, byte(len(s)))
	for _, d := range s {
		b = append(b, byte(d-1))
	}
	return b
}

// AppendScalarType appends the selector of d within supported. A type
// missing from supported encodes as supported[0].
func AppendScalarType(b []byte, d DType, supported []DType) []byte {
	if len(supported) == 0 {
		supported = SupportedTypes
	}
	for i, s := range supported {
		if s == d {
			return append(b, byte(i))
		}
	}
	return append(b, 0)
}

// AppendTensor appends a tensor of type d and shape s whose elements are
// vals, converted to d. Missing values are left for the decoder to zero-fill.
// s must fit DefaultLimits.
func AppendTensor(b []byte, d DType, s Shape, vals []float64, supported []DType) []byte {
	return AppendTensorWith(b, DefaultLimits(), d, s, vals, supported)
}

// AppendTensorWith is AppendTensor for inputs decoded under l.
func AppendTensorWith(b []byte, l Limits, d DType, s Shape, vals []float64, supported []DType) []byte {
	b = AppendScalarType(b, d, supported)
	b = AppendShape(b, s, l)
	n, _ := s.NumElements()
	if len(vals) > n {
		vals = vals[:n]
	}
	for _, v := range vals {
		b = appendElement(b, d, v)
	}
	return b
}

func appendElement(b []byte, d DType, v float64) []byte {
	switch d {
	case Float32:
		return AppendFloat32(b, float32(v))
	case Float64:
		return AppendFloat64(b, v)
	case Float16:
		return AppendUint16(b, float16.Fromfloat32(float32(v)).Bits())
	case BFloat16:
		return AppendUint16(b, uint16(math.Float32bits(float32(v))>>16))
	case Complex64:
		return AppendFloat32(AppendFloat32(b, float32(v)), 0)
	case Complex128:
		return AppendFloat64(AppendFloat64(b, v), 0)
	case Int8:
		return append(b, byte(int8(v)))
	case Uint8:
		return append(b, uint8(v))
	case Int16:
		return AppendUint16(b, uint16(int16(v)))
	case Int32:
		return AppendUint32(b, uint32(int32(v)))
	case Int64:
		return AppendUint64(b, uint64(int64(v)))
	case Bool:
		return AppendBool(b, v != 0)
	}
	return b
}
