package fuzzinput

// DType is the element type of a decoded tensor.
type DType uint8

const (
	Float32 DType = iota
	Float64
	Float16
	BFloat16
	Complex64
	Complex128
	Int8
	Uint8
	Int16
	Int32
	Int64
	Bool
)

var (
	// SupportedTypes lists every element type the decoder produces, in
	// selector order.
	SupportedTypes = []DType{
		Float32, Float64, Float16, BFloat16,
		Complex64, Complex128,
		Int8, Uint8, Int16, Int32, Int64,
		Bool,
	}

	// FloatingTypes are the real floating point types.
	FloatingTypes = []DType{Float32, Float64, Float16, BFloat16}

	// ComplexTypes are the complex types.
	ComplexTypes = []DType{Complex64, Complex128}
)

// Size returns the element size in bytes, or 0 for an unknown type.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64, Complex64:
		return 8
	case Float16, BFloat16, Int16:
		return 2
	case Complex128:
		return 16
	case Int8, Uint8, Bool:
		return 1
	default:
		return 0
	}
}

func (d DType) IsFloating() bool {
	switch d {
	case Float32, Float64, Float16, BFloat16:
		return true
	}
	return false
}

func (d DType) IsComplex() bool { return d == Complex64 || d == Complex128 }

// String implements fmt.Stringer
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "<invalid>"
	}
}

// ReadScalarType reads one byte and maps it onto supported. An empty
// supported list selects from SupportedTypes. An exhausted cursor selects
// supported[0].
func (c *Cursor) ReadScalarType(supported []DType) DType {
	if len(supported) == 0 {
		supported = SupportedTypes
	}
	return supported[c.ReadBoundedInt(len(supported))]
}
