// Package reduce fuzzes the reductions of gonum/stat: moments, quantiles,
// correlation, covariance matrices, information measures and histograms.
package reduce

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// Family is the registry family of every harness in this package.
const Family = "reduce"

// Harnesses returns the reduction harnesses.
func Harnesses() []*harness.Harness {
	return []*harness.Harness{
		momentsHarness,
		quantileHarness,
		correlationHarness,
		covMatrixHarness,
		entropyHarness,
		histogramHarness,
	}
}

func vectorSeed(vals ...float64) []byte {
	return fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{len(vals)}, vals, nil)
}

func seed(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func allFinite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// weights reads an optional weight vector. A false flag byte means
// unweighted. Weights are made nonnegative and bounded, since negative or
// unbounded weights are outside what the stat package accepts.
func weights(in *harness.Input) []float64 {
	if !in.ReadBool() {
		return nil
	}
	w := in.Tensor().Float64s()
	for i, v := range w {
		v = math.Abs(v)
		if !(v <= maxWeight) {
			v = 1
		}
		w[i] = v
	}
	return w
}

const maxWeight = 1e6

// maxAbs returns the largest magnitude in s, ignoring NaNs.
func maxAbs(s []float64) float64 {
	var m float64
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// varianceTol is the absolute tolerance for comparing two variance
// estimates of x computed along different summation paths.
func varianceTol(x []float64) float64 {
	m := maxAbs(x)
	return 1e-10 * (1 + m*m)
}

var momentsHarness = &harness.Harness{
	Name:    "reduce_moments",
	Family:  Family,
	Doc:     "Mean, Variance, StdDev, Skew, ExKurtosis, Moment and the power means",
	MinSize: 3,
	Seeds: [][]byte{
		seed(vectorSeed(1, 2, 3, 4, 10), []byte{0, 3}),
		seed(vectorSeed(2, 4, 8), []byte{1}, vectorSeed(1, 2, 1), []byte{2}),
		seed(vectorSeed(1, 2), []byte{1}, vectorSeed(1, 1, 1)),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		w := weights(in)

		var mean float64
		if err := in.Try("Mean", func() { mean = stat.Mean(x, w) }); err != nil {
			return nil
		}
		in.Op("Variance")
		variance := stat.Variance(x, w)
		m, v := stat.MeanVariance(x, w)
		in.Compare("MeanVariance", []float64{mean, variance}, []float64{m, v}, 1e-12, 0)

		std := stat.StdDev(x, w)
		if allFinite(x) && variance >= 0 && variance < 1e300 {
			in.Compare("StdDev", []float64{variance}, []float64{std * std}, 1e-9, 1e-300)
		}
		stat.PopMeanVariance(x, w)
		stat.PopStdDev(x, w)
		stat.StdErr(std, float64(len(x)))
		stat.StdScore(x[0], mean, std)

		in.Op("Skew")
		stat.Skew(x, w)
		in.Op("ExKurtosis")
		stat.ExKurtosis(x, w)

		k := float64(in.ReadRange(0, 6))
		in.Op("Moment")
		stat.Moment(k, x, w)
		stat.MomentAbout(k, x, mean, w)

		in.Op("GeometricMean")
		stat.GeometricMean(x, w)
		in.Op("HarmonicMean")
		stat.HarmonicMean(x, w)
		in.Op("CircularMean")
		stat.CircularMean(x, w)
		return nil
	},
}

var cumulantKinds = []stat.CumulantKind{stat.Empirical, stat.LinInterp, 0}

var quantileHarness = &harness.Harness{
	Name:    "reduce_quantile",
	Family:  Family,
	Doc:     "Quantile, its NaN-filtered variant, CDF and weighted sorting",
	MinSize: 4,
	Seeds: [][]byte{
		seed(vectorSeed(5, 1, 4, 2, 3), []byte{0, 128, 0}),
		seed(vectorSeed(5, 1, 4), []byte{1, 64, 1}, vectorSeed(1, 2, 3)),
		seed(vectorSeed(1, 2, 3), []byte{1, 255, 0}),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		kind := cumulantKinds[in.ReadChoice(len(cumulantKinds))]
		p := in.ReadFloatIn(0, 1)
		w := weights(in)

		sorted := slices.Clone(x)
		var sw []float64
		if w != nil {
			sw = slices.Clone(w)
		}
		if err := in.Try("SortWeighted", func() { stat.SortWeighted(sorted, sw) }); err != nil {
			return nil
		}

		var q float64
		if err := in.Try("Quantile", func() { q = stat.Quantile(p, kind, sorted, sw) }); err != nil {
			return nil
		}
		if kind == stat.Empirical {
			in.Op("CDF")
			stat.CDF(q, kind, sorted, sw)
		}

		// Quantiles are monotone in p.
		if w == nil && allFinite(x) {
			in.Op("Quantile")
			if lo := stat.Quantile(p/2, kind, sorted, nil); lo > q {
				in.Compare("Quantile monotone", []float64{q}, []float64{lo}, 1e-12, 1e-300)
			}
		}

		// NaN-filtered variant.
		clean := make([]float64, 0, len(x))
		for _, v := range x {
			if !math.IsNaN(v) {
				clean = append(clean, v)
			}
		}
		if len(clean) == 0 {
			return nil
		}
		sort.Float64s(clean)
		var nq float64
		if err := in.Try("NaNQuantile", func() { nq = stat.Quantile(p, kind, clean, nil) }); err != nil {
			return nil
		}
		if len(clean) == len(x) && w == nil {
			in.Compare("NaNQuantile", []float64{q}, []float64{nq}, 0, 0)
		}
		return nil
	},
}

var correlationHarness = &harness.Harness{
	Name:    "reduce_correlation",
	Family:  Family,
	Doc:     "Correlation, Covariance, Kendall and linear regression of two samples",
	MinSize: 5,
	Seeds: [][]byte{
		seed(vectorSeed(1, 2, 3, 4), vectorSeed(2, 4, 5, 9), []byte{0, 0}),
		seed(vectorSeed(1, 2, 3), vectorSeed(3, 2, 1), []byte{1}, vectorSeed(1, 1, 2), []byte{1}),
		seed(vectorSeed(1, 2), vectorSeed(1, 2, 3), []byte{0}),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		if err := in.Require(2, "y"); err != nil {
			return err
		}
		y := in.Tensor().Float64s()
		w := weights(in)

		// Covariance validates every length the calls below depend on.
		if err := in.Try("Covariance", func() { stat.Covariance(x, y, w) }); err != nil {
			return nil
		}
		in.Op("Correlation")
		stat.Correlation(x, y, w)
		in.Op("Kendall")
		stat.Kendall(x, y, w)
		in.Op("BivariateMoment")
		stat.BivariateMoment(1, 1, x, y, w)

		if w == nil && allFinite(x) && maxAbs(x) < 1e100 {
			in.Op("Covariance")
			in.Compare("Covariance(x, x)", []float64{stat.Variance(x, nil)}, []float64{stat.Covariance(x, x, nil)}, 1e-9, varianceTol(x))
		}

		origin := in.ReadBool()
		in.Op("LinearRegression")
		alpha, beta := stat.LinearRegression(x, y, w, origin)
		in.Op("RSquared")
		stat.RSquared(x, y, w, alpha, beta)
		in.Op("RNoughtSquared")
		stat.RNoughtSquared(x, y, w, beta)

		xs, ys := slices.Clone(x), slices.Clone(y)
		sort.Float64s(xs)
		sort.Float64s(ys)
		in.Op("KolmogorovSmirnov")
		stat.KolmogorovSmirnov(xs, nil, ys, nil)
		if !floats.HasNaN(xs) {
			in.Compare("KolmogorovSmirnov(x, x)", []float64{0}, []float64{stat.KolmogorovSmirnov(xs, w, xs, w)}, 0, 0)
		}
		return nil
	},
}

var covMatrixHarness = &harness.Harness{
	Name:    "reduce_covmatrix",
	Family:  Family,
	Doc:     "CovarianceMatrix and CorrelationMatrix against per-column variances",
	MinSize: 3,
	Seeds: [][]byte{
		seed(fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{4, 2}, []float64{1, 2, 2, 4, 3, 7, 4, 8}, nil), []byte{0}),
		seed(fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{3, 3}, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, nil), []byte{1}, vectorSeed(1, 2, 3)),
	},
	Run: func(in *harness.Input) error {
		x := harness.Dense(in.Tensor())
		if x == nil {
			return harness.ErrReject
		}
		w := weights(in)

		var cov mat.SymDense
		if err := in.Try("CovarianceMatrix", func() { stat.CovarianceMatrix(&cov, x, w) }); err != nil {
			return nil
		}
		var corr mat.SymDense
		in.Op("CorrelationMatrix")
		stat.CorrelationMatrix(&corr, x, w)

		// The weighted forms normalize by sums taken in different orders, so
		// only the unweighted diagonal is compared.
		data := x.RawMatrix().Data
		r, c := x.Dims()
		if w != nil || r < 2 || !allFinite(data) || maxAbs(data) > 1e100 {
			return nil
		}
		want := make([]float64, c)
		got := make([]float64, c)
		for j := 0; j < c; j++ {
			want[j] = stat.Variance(mat.Col(nil, j, x), nil)
			got[j] = cov.At(j, j)
		}
		in.Compare("CovarianceMatrix diagonal", want, got, 1e-9, varianceTol(data))
		return nil
	},
}

var entropyHarness = &harness.Harness{
	Name:    "reduce_entropy",
	Family:  Family,
	Doc:     "Entropy, KullbackLeibler, CrossEntropy and distribution distances",
	MinSize: 4,
	Seeds: [][]byte{
		seed(vectorSeed(1, 1, 2), vectorSeed(1, 2, 1)),
		seed(vectorSeed(0.5, 0.5), vectorSeed(0.9, 0.1)),
		seed(vectorSeed(1, 2), vectorSeed(1)),
	},
	Run: func(in *harness.Input) error {
		p, pok := normalize(in.Tensor().Float64s())
		q, qok := normalize(in.Tensor().Float64s())

		var kl float64
		if err := in.Try("KullbackLeibler", func() { kl = stat.KullbackLeibler(p, q) }); err != nil {
			return nil
		}
		in.Op("Entropy")
		h := stat.Entropy(p)
		in.Op("CrossEntropy")
		ce := stat.CrossEntropy(p, q)
		in.Op("Hellinger")
		stat.Hellinger(p, q)
		in.Op("Bhattacharyya")
		stat.Bhattacharyya(p, q)
		in.Op("JensenShannon")
		stat.JensenShannon(p, q)
		in.Op("ChiSquare")
		stat.ChiSquare(p, q)

		// H(p, q) = H(p) + KL(p || q)
		if pok && qok && allFinite([]float64{h, kl, ce}) {
			in.Compare("CrossEntropy", []float64{h + kl}, []float64{ce}, 1e-9, 1e-9)
		}
		return nil
	},
}

// normalize maps x onto a probability vector by taking absolute values and
// dividing by their sum. When that sum is zero or not finite, x is returned
// unchanged with ok false.
func normalize(x []float64) (p []float64, ok bool) {
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		out[i] = math.Abs(v)
		sum += out[i]
	}
	if sum == 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return x, false
	}
	floats.Scale(1/sum, out)
	return out, true
}

var histogramHarness = &harness.Harness{
	Name:    "reduce_histogram",
	Family:  Family,
	Doc:     "Histogram over fuzzed dividers, and Mode",
	MinSize: 4,
	Seeds: [][]byte{
		seed(vectorSeed(1, 2, 2, 3, 5), vectorSeed(0, 2, 4), []byte{1}),
		seed(vectorSeed(1, 2, 3), vectorSeed(2, 1), []byte{0}),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		dividers := in.Tensor().Float64s()
		cover := in.ReadBool()

		in.Op("Mode")
		if _, n := stat.Mode(x, nil); n < 1 {
			in.Compare("Mode count", []float64{1}, []float64{n}, 0, 0)
		}

		sort.Float64s(x)
		sort.Float64s(dividers)
		if cover && allFinite(x) && allFinite(dividers) {
			// Widen the dividers so every sample lands in a bin.
			if x[0] < dividers[0] {
				dividers = append([]float64{x[0]}, dividers...)
			}
			if top := x[len(x)-1]; top >= dividers[len(dividers)-1] {
				dividers = append(dividers, math.Nextafter(top, math.Inf(1)))
			}
		}

		// Histogram indexes past the last divider when x or dividers hold NaN.
		if floats.HasNaN(x) || floats.HasNaN(dividers) {
			return harness.ErrReject
		}
		var counts []float64
		if err := in.Try("Histogram", func() { counts = stat.Histogram(nil, dividers, x, nil) }); err == nil {
			in.Compare("Histogram total", []float64{float64(len(x))}, []float64{floats.Sum(counts)}, 0, 0)
		}
		return nil
	},
}
