package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/harness"
)

func eye(n int) *mat.DiagDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
	}
	return mat.NewDiagDense(n, d)
}

var detHarness = &harness.Harness{
	Name:    "linalg_det",
	Family:  Family,
	Doc:     "mat.Det and mat.LogDet, cross-checked against each other",
	MinSize: 2,
	Seeds: [][]byte{
		matrixSeed(3, 3, wellConditioned...),
		matrixSeed(3, 3, singular...),
		matrixSeed(2, 4, rectangular...),
	},
	Run: func(in *harness.Input) error {
		t := in.Tensor()
		a := harness.Dense(t)
		if a == nil {
			return harness.ErrReject
		}
		var det, logDet, sign float64
		if err := in.Try("Det", func() { det = mat.Det(a) }); err != nil {
			// Not square: run on the leading square block instead.
			a = harness.Square(t)
			det = mat.Det(a)
		}
		in.Op("LogDet")
		logDet, sign = mat.LogDet(a)
		if ad := math.Abs(det); ad > 1e-200 && ad < 1e200 && !math.IsNaN(logDet) {
			in.Compare("LogDet", []float64{det}, []float64{sign * math.Exp(logDet)}, 1e-6, 0)
		}
		return nil
	},
}

var batchDetHarness = &harness.Harness{
	Name:    "linalg_batch_det",
	Family:  Family,
	Doc:     "determinants over a batch of matrices, mat.Det against LU.Det",
	MinSize: 2,
	Seeds: [][]byte{
		matrixSeed(3, 3, wellConditioned...),
		seedTensor3(2, 2, 2, 1, 2, 3, 4, 0, 1, 1, 0),
	},
	Run: func(in *harness.Input) error {
		for _, m := range harness.Batches(in.Tensor()) {
			var det float64
			if err := in.Try("Det", func() { det = mat.Det(m) }); err != nil {
				return nil
			}
			var lu mat.LU
			in.Op("LU.Factorize")
			lu.Factorize(m)
			in.Compare("LU.Det", []float64{det}, []float64{lu.Det()}, 1e-12, 0)
		}
		return nil
	},
}

var inverseHarness = &harness.Harness{
	Name:    "linalg_inverse",
	Family:  Family,
	Doc:     "Dense.Inverse against an LU solve of the identity",
	MinSize: 2,
	Seeds: [][]byte{
		matrixSeed(3, 3, wellConditioned...),
		matrixSeed(3, 3, singular...),
		matrixSeed(1, 1, 0),
	},
	Run: func(in *harness.Input) error {
		a := harness.Square(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		var inv mat.Dense
		in.Op("Inverse")
		if err := inv.Inverse(a); err != nil || !finite(a) {
			return nil
		}
		var lu mat.LU
		lu.Factorize(a)
		if lu.Cond() > 1e6 {
			return nil
		}
		n, _ := a.Dims()
		var x mat.Dense
		in.Op("LU.SolveTo")
		if err := lu.SolveTo(&x, false, eye(n)); err != nil {
			return nil
		}
		in.CompareMatrix("Inverse", &x, &inv, 1e-6, scaleTol(&x, 1e-9))

		var id mat.Dense
		id.Mul(a, &inv)
		in.CompareMatrix("A*Inverse", eye(n), &id, 0, 1e-6)
		return nil
	},
}

var solveHarness = &harness.Harness{
	Name:    "linalg_solve",
	Family:  Family,
	Doc:     "Dense.Solve and VecDense.SolveVec for square and least squares systems",
	MinSize: 4,
	Seeds: [][]byte{
		seed(matrixSeed(3, 3, wellConditioned...), matrixSeed(3, 2, 1, 2, 3, 4, 5, 6)),
		seed(matrixSeed(4, 2, rectangular...), matrixSeed(4, 1, 1, 2, 3, 4)),
		seed(matrixSeed(2, 4, rectangular...), matrixSeed(2, 1, 1, 0)),
		seed(matrixSeed(3, 3, wellConditioned...), matrixSeed(2, 2, 1, 0, 0, 1)),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		// A missing right-hand side would decode as a scalar.
		if err := in.Require(2, "b"); err != nil {
			return err
		}
		b := harness.Dense(in.Tensor())
		if a == nil || b == nil {
			return harness.ErrReject
		}
		if !finite(a) || !finite(b) {
			return nil
		}
		var x mat.Dense
		var solveErr error
		if err := in.Try("Solve", func() { solveErr = x.Solve(a, b) }); err != nil {
			return nil
		}

		var v mat.VecDense
		_ = in.Try("SolveVec", func() { _ = v.SolveVec(a, b.ColView(0)) })

		r, c := a.Dims()
		if solveErr != nil || r != c || mat.Cond(a, 1) > 1e6 {
			return nil
		}
		var ax mat.Dense
		ax.Mul(a, &x)
		tol := 1e-8 * (1 + mat.Norm(a, 1)) * (1 + mat.Norm(&x, 1))
		in.CompareMatrix("A*Solve", b, &ax, 0, tol)
		return nil
	},
}

var matFuncHarness = &harness.Harness{
	Name:    "linalg_matfunc",
	Family:  Family,
	Doc:     "Dense.Pow against repeated products, and Dense.Exp",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 3),
		append(matrixSeed(2, 2, 0, 1, -1, 0), 9),
		append(matrixSeed(2, 2, 1, 2, 3, 4), 1),
		append(matrixSeed(2, 2, 1, 2, 3, 4), 0),
	},
	Run: func(in *harness.Input) error {
		a := harness.Square(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		n := in.ReadRange(-1, 8)

		var p mat.Dense
		if err := in.Try("Pow", func() { p.Pow(a, n) }); err != nil {
			return nil
		}
		if norm := mat.Norm(a, 1); finite(a) && norm <= 1e3 {
			r, _ := a.Dims()
			want := mat.DenseCopyOf(eye(r))
			for i := 0; i < n; i++ {
				var next mat.Dense
				next.Mul(want, a)
				want = &next
			}
			in.CompareMatrix("Pow", want, &p, 1e-9, 1e-12*math.Pow(1+norm, float64(n)))
		}

		// Exp squares once per doubling of the 1-norm and never returns when
		// the norm overflows, even for finite entries.
		if !finite(a) || mat.Norm(a, 1) > 1e12 {
			return nil
		}
		var e mat.Dense
		in.Op("Exp")
		e.Exp(a)
		return nil
	},
}

var normHarness = &harness.Harness{
	Name:    "linalg_norm",
	Family:  Family,
	Doc:     "matrix norms, trace, condition number and reductions",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 0, 1),
		append(matrixSeed(2, 4, rectangular...), 2, 3),
	},
	Run: func(in *harness.Input) error {
		t := in.Tensor()
		a := harness.Dense(t)
		if a == nil {
			return harness.ErrReject
		}
		orders := []float64{1, 2, math.Inf(1), 3}
		ord := orders[in.ReadChoice(len(orders))]

		_ = in.Try("Norm", func() { mat.Norm(a, ord) })
		_ = in.Try("Trace", func() { mat.Trace(a) })
		_ = in.Try("Max", func() { mat.Max(a) })
		_ = in.Try("Min", func() { mat.Min(a) })

		var sum float64
		_ = in.Try("Sum", func() { sum = mat.Sum(a) })
		vals := t.Float64s()
		var want float64
		for _, v := range vals {
			want += v
		}
		if finite(a) {
			in.Compare("Sum", []float64{want}, []float64{sum}, 1e-9, 1e-9*(1+mat.Norm(a, 2)))
		}

		if !finite(a) {
			return nil
		}
		condOrd := orders[in.ReadChoice(len(orders))]
		_ = in.Try("Cond", func() { mat.Cond(a, condOrd) })
		return nil
	},
}

var productHarness = &harness.Harness{
	Name:    "linalg_product",
	Family:  Family,
	Doc:     "Mul, Kronecker, Outer and elementwise matrix arithmetic",
	MinSize: 4,
	Seeds: [][]byte{
		seed(matrixSeed(2, 3, 1, 2, 3, 4, 5, 6), matrixSeed(3, 2, 1, 0, 0, 1, 1, 1), []byte{0}),
		seed(matrixSeed(2, 2, 1, 2, 3, 4), matrixSeed(2, 2, 0, 1, 1, 0), []byte{3}),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		b := harness.Dense(in.Tensor())
		if a == nil || b == nil {
			return harness.ErrReject
		}

		var ab mat.Dense
		if err := in.Try("Mul", func() { ab.Mul(a, b) }); err == nil && finite(a) && finite(b) {
			// (AB)ᵀ = BᵀAᵀ
			var btat mat.Dense
			btat.Mul(b.T(), a.T())
			tol := 1e-12 * (1 + mat.Norm(a, 1)) * (1 + mat.Norm(b, 1))
			in.CompareMatrix("Mul transpose", ab.T(), &btat, 1e-12, tol)
		}

		var out mat.Dense
		switch in.ReadChoice(5) {
		case 0:
			_ = in.Try("Add", func() { out.Add(a, b) })
		case 1:
			_ = in.Try("Sub", func() { out.Sub(a, b) })
		case 2:
			_ = in.Try("MulElem", func() { out.MulElem(a, b) })
		case 3:
			_ = in.Try("DivElem", func() { out.DivElem(a, b) })
		case 4:
			_ = in.Try("Scale", func() { out.Scale(in.Float64Or(2), a) })
		}

		if ar, ac := a.Dims(); ar*ac <= 64 {
			var k mat.Dense
			in.Op("Kronecker")
			k.Kronecker(a, b)
		}

		x := mat.NewVecDense(a.RawMatrix().Cols, nil)
		y := mat.NewVecDense(b.RawMatrix().Cols, nil)
		for i := 0; i < x.Len(); i++ {
			x.SetVec(i, a.At(0, i))
		}
		for i := 0; i < y.Len(); i++ {
			y.SetVec(i, b.At(0, i))
		}
		var o mat.Dense
		in.Op("Outer")
		o.Outer(in.ReadFloatIn(-2, 2), x, y)
		return nil
	},
}

var shapeHarness = &harness.Harness{
	Name:    "linalg_shape",
	Family:  Family,
	Doc:     "Augment, Stack, Slice, Grow and transpose copies",
	MinSize: 4,
	Seeds: [][]byte{
		seed(matrixSeed(2, 3, 1, 2, 3, 4, 5, 6), matrixSeed(2, 2, 7, 8, 9, 10), []byte{0, 1, 0, 2, 1, 1}),
		seed(matrixSeed(2, 2, 1, 2, 3, 4), matrixSeed(3, 2, 5, 6, 7, 8, 9, 10), []byte{1, 0, 3, 0, 2, 0}),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		b := harness.Dense(in.Tensor())
		if a == nil || b == nil {
			return harness.ErrReject
		}

		var aug, stack mat.Dense
		if err := in.Try("Augment", func() { aug.Augment(a, b) }); err == nil {
			ar, ac := a.Dims()
			in.CompareMatrix("Augment left", a, aug.Slice(0, ar, 0, ac), 0, 0)
		}
		if err := in.Try("Stack", func() { stack.Stack(a, b) }); err == nil {
			ar, ac := a.Dims()
			in.CompareMatrix("Stack top", a, stack.Slice(0, ar, 0, ac), 0, 0)
		}

		i, k := in.ReadRange(0, 10), in.ReadRange(0, 10)
		j, l := in.ReadRange(0, 10), in.ReadRange(0, 10)
		var s mat.Matrix
		if err := in.Try("Slice", func() { s = a.Slice(i, k, j, l) }); err == nil {
			var want, got []float64
			for r := i; r < k; r++ {
				for c := j; c < l; c++ {
					want = append(want, a.At(r, c))
					got = append(got, s.At(r-i, c-j))
				}
			}
			in.Compare("Slice", want, got, 0, 0)
		}

		var tt mat.Dense
		in.Op("CloneFrom")
		tt.CloneFrom(a.T())
		var back mat.Dense
		back.CloneFrom(tt.T())
		in.CompareMatrix("double transpose", a, &back, 0, 0)

		g := in.ReadRange(0, 3)
		_ = in.Try("Grow", func() { a.Grow(g, g) })
		return nil
	},
}
