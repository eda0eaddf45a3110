package harness

import (
	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
)

// Dense views t as a matrix with its leading dimensions collapsed into rows.
func Dense(t *fuzzinput.Tensor) *mat.Dense {
	r, c := t.MatrixDims()
	vals := t.Float64s()
	if r*c == 0 || len(vals) != r*c {
		return nil
	}
	return mat.NewDense(r, c, vals)
}

// Square returns the leading n×n block of Dense(t), n = min(rows, cols).
func Square(t *fuzzinput.Tensor) *mat.Dense {
	d := Dense(t)
	if d == nil {
		return nil
	}
	r, c := d.Dims()
	n := min(r, c)
	return mat.DenseCopyOf(d.Slice(0, n, 0, n))
}

// Symmetric returns (S + Sᵀ)/2 for S = Square(t).
func Symmetric(t *fuzzinput.Tensor) *mat.SymDense {
	s := Square(t)
	if s == nil {
		return nil
	}
	n, _ := s.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (s.At(i, j)+s.At(j, i))/2)
		}
	}
	return sym
}

// Vector returns the elements of t as a column vector.
func Vector(t *fuzzinput.Tensor) *mat.VecDense {
	vals := t.Float64s()
	if len(vals) == 0 {
		return nil
	}
	return mat.NewVecDense(len(vals), vals)
}

// Batches splits t into matrices over its two trailing dimensions.
func Batches(t *fuzzinput.Tensor) []*mat.Dense {
	b, r, c := t.BatchDims()
	vals := t.Float64s()
	if b == 0 || len(vals) != b*r*c {
		return nil
	}
	out := make([]*mat.Dense, b)
	for i := range out {
		out[i] = mat.NewDense(r, c, vals[i*r*c:(i+1)*r*c:(i+1)*r*c])
	}
	return out
}

func flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
