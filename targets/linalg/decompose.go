package linalg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/harness"
)

var svdKinds = []mat.SVDKind{mat.SVDNone, mat.SVDThin, mat.SVDFull, mat.SVDThinU, mat.SVDFullV}

var svdHarness = &harness.Harness{
	Name:    "linalg_svd",
	Family:  Family,
	Doc:     "SVD factorization, rank, condition and reconstruction",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 1, 0),
		append(matrixSeed(2, 4, rectangular...), 1, 128),
		append(matrixSeed(4, 2, rectangular...), 2, 255),
		append(matrixSeed(3, 3, singular...), 0, 10),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		if !finite(a) {
			return nil
		}
		kind := svdKinds[in.ReadChoice(len(svdKinds))]

		var svd mat.SVD
		in.Op("SVD.Factorize")
		if !svd.Factorize(a, kind) {
			return nil
		}
		s := svd.Values(nil)
		rcond := in.ReadFloatIn(1e-15, 1e-3)
		in.Op("SVD.Rank")
		svd.Rank(rcond)
		svd.Cond()

		if kind != mat.SVDThin {
			return nil
		}
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		var us, rec mat.Dense
		us.Mul(&u, mat.NewDiagDense(len(s), s))
		rec.Mul(&us, v.T())
		in.CompareMatrix("SVD reconstruct", a, &rec, 1e-8, 1e-9*(1+s[0]))
		return nil
	},
}

var qrHarness = &harness.Harness{
	Name:    "linalg_qr",
	Family:  Family,
	Doc:     "QR factorization, reconstruction and least squares solve",
	MinSize: 2,
	Seeds: [][]byte{
		matrixSeed(3, 3, wellConditioned...),
		matrixSeed(4, 2, rectangular...),
		matrixSeed(2, 4, rectangular...),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		if !finite(a) {
			return nil
		}
		var qr mat.QR
		if err := in.Try("QR.Factorize", func() { qr.Factorize(a) }); err != nil {
			return nil
		}
		var q, r, rec mat.Dense
		qr.QTo(&q)
		qr.RTo(&r)
		rec.Mul(&q, &r)
		in.CompareMatrix("QR reconstruct", a, &rec, 1e-8, scaleTol(a, 1e-9))

		m, _ := a.Dims()
		b := mat.NewDense(m, 1, nil)
		for i := 0; i < m; i++ {
			b.Set(i, 0, float64(i+1))
		}
		var x mat.Dense
		in.Op("QR.SolveTo")
		_ = qr.SolveTo(&x, false, b)
		return nil
	},
}

var luHarness = &harness.Harness{
	Name:    "linalg_lu",
	Family:  Family,
	Doc:     "LU factorization, determinant, triangular factors and solve",
	MinSize: 2,
	Seeds: [][]byte{
		matrixSeed(3, 3, wellConditioned...),
		matrixSeed(3, 3, singular...),
		matrixSeed(2, 4, rectangular...),
	},
	Run: func(in *harness.Input) error {
		a := harness.Dense(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		var lu mat.LU
		if err := in.Try("LU.Factorize", func() { lu.Factorize(a) }); err != nil {
			return nil
		}
		in.Op("LU.Det")
		in.Compare("LU.Det", []float64{mat.Det(a)}, []float64{lu.Det()}, 1e-12, 0)
		lu.LogDet()
		lu.Cond()
		lu.RowPivots(nil)

		var l, u mat.TriDense
		lu.LTo(&l)
		lu.UTo(&u)

		n, _ := a.Dims()
		b := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			b.Set(i, 0, 1)
		}
		var x, y mat.Dense
		in.Op("LU.SolveTo")
		if err := lu.SolveTo(&x, false, b); err != nil || !finite(a) || lu.Cond() > 1e6 {
			return nil
		}
		// Dense.Solve takes its own LU path.
		if err := y.Solve(a, b); err != nil {
			return nil
		}
		in.CompareMatrix("LU.SolveTo", &y, &x, 1e-9, scaleTol(&y, 1e-12))
		return nil
	},
}

var choleskyHarness = &harness.Harness{
	Name:    "linalg_cholesky",
	Family:  Family,
	Doc:     "Cholesky factorization of a symmetric, optionally positive definite, matrix",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 0),
		append(matrixSeed(3, 3, singular...), 1),
		append(matrixSeed(2, 2, 1, 2, 2, 1), 0),
	},
	Run: func(in *harness.Input) error {
		sym := harness.Symmetric(in.Tensor())
		if sym == nil {
			return harness.ErrReject
		}
		if !finite(sym) {
			return nil
		}
		if in.ReadBool() {
			// S Sᵀ + I is positive definite.
			n := sym.SymmetricDim()
			pd := mat.NewSymDense(n, nil)
			pd.SymOuterK(1, sym)
			for i := 0; i < n; i++ {
				pd.SetSym(i, i, pd.At(i, i)+1)
			}
			sym = pd
		}

		var ch mat.Cholesky
		in.Op("Cholesky.Factorize")
		if !ch.Factorize(sym) {
			return nil
		}
		ch.Det()
		ch.LogDet()

		var inv mat.SymDense
		in.Op("Cholesky.InverseTo")
		_ = ch.InverseTo(&inv)

		if ch.Cond() > 1e6 {
			return nil
		}
		n := sym.SymmetricDim()
		b := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			b.Set(i, 0, float64(n-i))
		}
		var x, y mat.Dense
		in.Op("Cholesky.SolveTo")
		if err := ch.SolveTo(&x, b); err != nil {
			return nil
		}
		if err := y.Solve(sym, b); err != nil {
			return nil
		}
		in.CompareMatrix("Cholesky.SolveTo", &y, &x, 1e-6, scaleTol(&y, 1e-9))
		return nil
	},
}

var eigenKinds = []mat.EigenKind{mat.EigenNone, mat.EigenLeft, mat.EigenRight, mat.EigenBoth}

var eigenHarness = &harness.Harness{
	Name:    "linalg_eigen",
	Family:  Family,
	Doc:     "general eigendecomposition, eigenvalue sum against the trace",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 2),
		append(matrixSeed(2, 2, 0, 1, -1, 0), 3),
		append(matrixSeed(3, 3, singular...), 0),
	},
	Run: func(in *harness.Input) error {
		a := harness.Square(in.Tensor())
		if a == nil {
			return harness.ErrReject
		}
		if !finite(a) {
			return nil
		}
		kind := eigenKinds[in.ReadChoice(len(eigenKinds))]

		var eig mat.Eigen
		in.Op("Eigen.Factorize")
		if !eig.Factorize(a, kind) {
			return nil
		}
		vals := eig.Values(nil)
		var sum float64
		for _, v := range vals {
			sum += real(v)
		}
		in.Compare("Eigen trace", []float64{mat.Trace(a)}, []float64{sum}, 1e-8, scaleTol(a, 1e-8))

		if kind&mat.EigenRight != 0 {
			var vecs mat.CDense
			in.Op("Eigen.VectorsTo")
			eig.VectorsTo(&vecs)
		}
		if kind&mat.EigenLeft != 0 {
			var vecs mat.CDense
			in.Op("Eigen.LeftVectorsTo")
			eig.LeftVectorsTo(&vecs)
		}
		return nil
	},
}

var eigenSymHarness = &harness.Harness{
	Name:    "linalg_eigensym",
	Family:  Family,
	Doc:     "symmetric eigendecomposition and reconstruction",
	MinSize: 3,
	Seeds: [][]byte{
		append(matrixSeed(3, 3, wellConditioned...), 1),
		append(matrixSeed(2, 2, 2, 1, 1, 2), 0),
	},
	Run: func(in *harness.Input) error {
		sym := harness.Symmetric(in.Tensor())
		if sym == nil {
			return harness.ErrReject
		}
		if !finite(sym) {
			return nil
		}
		vectors := in.ReadBool()

		var es mat.EigenSym
		in.Op("EigenSym.Factorize")
		if !es.Factorize(sym, vectors) {
			return nil
		}
		vals := es.Values(nil)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		in.Compare("EigenSym trace", []float64{mat.Trace(sym)}, []float64{sum}, 1e-8, scaleTol(sym, 1e-8))
		if !vectors {
			return nil
		}

		// A = V Λ Vᵀ
		var v, vl, rec mat.Dense
		es.VectorsTo(&v)
		vl.Mul(&v, mat.NewDiagDense(len(vals), vals))
		rec.Mul(&vl, v.T())
		in.CompareMatrix("EigenSym reconstruct", sym, &rec, 1e-8, scaleTol(sym, 1e-9))
		return nil
	},
}
