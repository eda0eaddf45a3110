package fuzzinput

import (
	"math"
	"strconv"
	"strings"
)

// previewElements is the number of elements String renders.
const previewElements = 8

// String renders the tensor as dtype, shape and an element preview, for
// example "float32[2,3] {1, -0.5, NaN, 0, 0, 0}".
func (t *Tensor) String() string {
	var b strings.Builder
	b.WriteString(t.DType.String())
	b.WriteString(t.Shape.String())
	if t.buf == nil {
		b.WriteString(" <released>")
		return b.String()
	}
	b.WriteString(" {")
	if t.DType.IsComplex() {
		vals := t.Complex128s()
		for i, v := range vals {
			if i == previewElements {
				b.WriteString(", ...")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatFloatDiag(real(v)))
			if im := imag(v); math.Signbit(im) {
				b.WriteString(formatFloatDiag(im))
			} else {
				b.WriteByte('+')
				b.WriteString(formatFloatDiag(im))
			}
			b.WriteByte('i')
		}
	} else {
		vals := t.Float64s()
		for i, v := range vals {
			if i == previewElements {
				b.WriteString(", ...")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatFloatDiag(v))
		}
	}
	b.WriteByte('}')
	if missing := len(t.Data()) - t.Consumed; missing > 0 {
		b.WriteString(" zero-filled=")
		b.WriteString(strconv.Itoa(missing))
	}
	return b.String()
}

func formatFloatDiag(f float64) string {
	if math.IsInf(f, +1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	af := math.Abs(f)
	if af == 0 || (af >= 1e-6 && af < 1e15) {
		return trimTrailingZerosDot(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func trimTrailingZerosDot(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
