// Package linalg fuzzes the dense linear algebra of gonum/mat: determinants,
// inverses, solvers, the SVD, QR, LU, Cholesky and eigen decompositions,
// matrix functions, norms, products and shape manipulation.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// Family is the registry family of every harness in this package.
const Family = "linalg"

// Harnesses returns the linear algebra harnesses.
func Harnesses() []*harness.Harness {
	return []*harness.Harness{
		detHarness,
		batchDetHarness,
		inverseHarness,
		solveHarness,
		svdHarness,
		qrHarness,
		luHarness,
		choleskyHarness,
		eigenHarness,
		eigenSymHarness,
		matFuncHarness,
		normHarness,
		productHarness,
		shapeHarness,
	}
}

// finite reports whether every element of m is finite. Decompositions that
// iterate to convergence are only run on finite inputs.
func finite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// scaleTol is an absolute tolerance proportional to the magnitude of m.
func scaleTol(m mat.Matrix, eps float64) float64 {
	return eps * (1 + mat.Norm(m, 1))
}

func matrixSeed(r, c int, vals ...float64) []byte {
	return fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{r, c}, vals, nil)
}

func seedTensor3(b, r, c int, vals ...float64) []byte {
	return fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{b, r, c}, vals, nil)
}

func seed(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

var (
	wellConditioned = []float64{4, 1, 0, 1, 3, 1, 0, 1, 2}
	singular        = []float64{1, 2, 3, 2, 4, 6, 1, 1, 1}
	rectangular     = []float64{1, 2, 3, 4, 5, 6, 7, 8}
)
