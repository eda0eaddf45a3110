// Package fuzzinput decodes opaque fuzzer input into the typed arguments a
// single call into the target library needs.
//
// The package is built around a Cursor: a read-only byte slice plus an offset.
// Every read is little-endian, never reads past the end of the buffer and
// never fails. When fewer bytes remain than a read needs, the read returns its
// default value and leaves the offset untouched, so a short input degrades
// into a smaller, still valid set of arguments instead of an error.
//
// The package defines three families of functions:
//   - (*Cursor).ReadXxxx() returns a value and whether enough bytes were left.
//   - (*Cursor).XxxxOr(def) returns the value or def on shortfall.
//   - (*Cursor).ReadShape/ReadScalarType/ReadTensor compose the primitive
//     reads into a tensor descriptor.
package fuzzinput

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultMaxRank is the rank bound used when a harness does not
	// configure its own Limits.
	DefaultMaxRank = 4

	// DefaultMaxDimSize is the upper bound of a single decoded dimension.
	DefaultMaxDimSize = 10

	// MaxTensorElements caps the element count that Limits may allow.
	// maxDimSize^maxRank must stay under it.
	MaxTensorElements = 1 << 22
)

// Limits bounds the shapes decoded from fuzz input.
type Limits struct {
	MaxRank    int `toml:"max_rank"`
	MaxDimSize int `toml:"max_dim_size"`
}

// DefaultLimits returns the rank/dimension bounds used by the harnesses
// unless configuration overrides them.
func DefaultLimits() Limits {
	return Limits{MaxRank: DefaultMaxRank, MaxDimSize: DefaultMaxDimSize}
}

// ErrLimits is returned by Limits.Validate for unusable bounds.
var ErrLimits = errors.New("fuzzinput: invalid decode limits")

// Validate reports whether the limits can be used to decode tensors whose
// largest element count stays under MaxTensorElements.
func (l Limits) Validate() error {
	if l.MaxRank < 0 || l.MaxRank > math.MaxUint8 {
		return fmt.Errorf("%w: max rank %d out of range [0, 255]", ErrLimits, l.MaxRank)
	}
	if l.MaxDimSize < 1 || l.MaxDimSize > byteValueCount {
		return fmt.Errorf("%w: max dim size %d out of range [1, 256]", ErrLimits, l.MaxDimSize)
	}
	worst := 1
	for i := 0; i < l.MaxRank; i++ {
		worst *= l.MaxDimSize
		if worst > MaxTensorElements {
			return fmt.Errorf("%w: %d^%d elements exceeds %d", ErrLimits, l.MaxDimSize, l.MaxRank, MaxTensorElements)
		}
	}
	return nil
}

const byteValueCount = math.MaxUint8 + 1
