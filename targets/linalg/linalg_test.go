package linalg

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/harness"
	"github.com/synadia-labs/tensorfuzz/harness/harnesstest"
)

func TestSeeds(t *testing.T) {
	harnesstest.RunSeeds(t, Harnesses())
}

func TestRegisterAll(t *testing.T) {
	r := harness.NewRegistry()
	if err := r.Register(Harnesses()...); err != nil {
		t.Fatal(err)
	}
	for _, h := range r.All() {
		if h.Family != Family {
			t.Fatalf("%s: family %q", h.Name, h.Family)
		}
	}
}

func TestShortInputsKept(t *testing.T) {
	for _, h := range Harnesses() {
		if code := h.TestOneInput([]byte{1}); code != harness.Keep {
			t.Fatalf("%s: 1-byte input returned %d", h.Name, code)
		}
	}
}

func TestNonFiniteInputs(t *testing.T) {
	nan := []float64{1, 0, 0, 0}
	nan[1] = nan[1] / nan[2] // 0/0
	inf := []float64{1e308, 1e308, -1e308, 1e308}
	r := harness.NewRunner(harness.WithProgressEvery(0))
	for _, h := range Harnesses() {
		for _, vals := range [][]float64{nan, inf} {
			data := seed(matrixSeed(2, 2, vals...), matrixSeed(2, 2, vals...), []byte{1, 2, 3})
			if res := r.Execute(h, data); res.Fault != nil && res.Fault.Kind == harness.KindPanic {
				t.Fatalf("%s: %v", h.Name, res.Fault)
			}
		}
	}
}

func TestFinite(t *testing.T) {
	if !finite(mat.NewDense(2, 2, []float64{1, 2, 3, 4})) {
		t.Fatal("finite matrix reported non-finite")
	}
	zero := 0.0
	if finite(mat.NewDense(1, 2, []float64{1, 1 / zero})) {
		t.Fatal("Inf not detected")
	}
}

func FuzzDet(f *testing.F)       { harnesstest.Fuzz(f, detHarness) }
func FuzzBatchDet(f *testing.F)  { harnesstest.Fuzz(f, batchDetHarness) }
func FuzzInverse(f *testing.F)   { harnesstest.Fuzz(f, inverseHarness) }
func FuzzSolve(f *testing.F)     { harnesstest.Fuzz(f, solveHarness) }
func FuzzSVD(f *testing.F)       { harnesstest.Fuzz(f, svdHarness) }
func FuzzQR(f *testing.F)        { harnesstest.Fuzz(f, qrHarness) }
func FuzzLU(f *testing.F)        { harnesstest.Fuzz(f, luHarness) }
func FuzzCholesky(f *testing.F)  { harnesstest.Fuzz(f, choleskyHarness) }
func FuzzEigen(f *testing.F)     { harnesstest.Fuzz(f, eigenHarness) }
func FuzzEigenSym(f *testing.F)  { harnesstest.Fuzz(f, eigenSymHarness) }
func FuzzMatFunc(f *testing.F)   { harnesstest.Fuzz(f, matFuncHarness) }
func FuzzNorm(f *testing.F)      { harnesstest.Fuzz(f, normHarness) }
func FuzzProduct(f *testing.F)   { harnesstest.Fuzz(f, productHarness) }
func FuzzShape(f *testing.F)     { harnesstest.Fuzz(f, shapeHarness) }

func TestSolveNeedsRightHandSide(t *testing.T) {
	r := harness.NewRunner(harness.WithProgressEvery(0))
	res := r.Execute(solveHarness, matrixSeed(2, 2, 1, 0, 0, 1))
	if res.Code != harness.Discard || res.Fault != nil {
		t.Fatalf("res = %+v", res)
	}
	res = r.Execute(solveHarness, seed(matrixSeed(2, 2, 1, 0, 0, 1), matrixSeed(2, 1, 1, 2)))
	if res.Code != harness.Keep || res.Fault != nil {
		t.Fatalf("res = %+v", res)
	}
}
