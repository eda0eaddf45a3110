// Package elementwise fuzzes the slice arithmetic of gonum/floats. Most
// harnesses run an in-place routine and its allocating *To counterpart on
// the same operands and require identical results.
package elementwise

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// Family is the registry family of every harness in this package.
const Family = "elementwise"

// Harnesses returns the elementwise harnesses.
func Harnesses() []*harness.Harness {
	return []*harness.Harness{
		binaryHarness,
		scaleHarness,
		cumulativeHarness,
		distanceHarness,
		extremaHarness,
		spanHarness,
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

type binaryOp struct {
	name    string
	inPlace func(dst, s []float64)
	to      func(dst, s, t []float64) []float64
}

var binaryOps = []binaryOp{
	{"Add", floats.Add, floats.AddTo},
	{"Sub", floats.Sub, floats.SubTo},
	{"Mul", floats.Mul, floats.MulTo},
	{"Div", floats.Div, floats.DivTo},
}

var binaryHarness = &harness.Harness{
	Name:    "elementwise_binary",
	Family:  Family,
	Doc:     "floats.Add/Sub/Mul/Div against their *To forms",
	MinSize: 5,
	Seeds: [][]byte{
		seed([]byte{0}, vectorSeed(1, 2, 3), vectorSeed(4, 5, 6)),
		seed([]byte{3}, vectorSeed(1, 0, -1), vectorSeed(0, 0, 2)),
		seed([]byte{1}, vectorSeed(1, 2), vectorSeed(1, 2, 3)),
	},
	Run: func(in *harness.Input) error {
		op := binaryOps[in.ReadChoice(len(binaryOps))]
		x := in.Tensor().Float64s()
		y := in.Tensor().Float64s()

		dst := slices.Clone(x)
		if err := in.Try(op.name, func() { op.inPlace(dst, y) }); err != nil {
			return nil
		}
		to := make([]float64, len(x))
		in.Op(op.name + "To")
		op.to(to, x, y)
		in.Compare(op.name+"To", dst, to, 0, 0)
		return nil
	},
}

var scaleHarness = &harness.Harness{
	Name:    "elementwise_scale",
	Family:  Family,
	Doc:     "floats.AddConst, Scale and AddScaled against their *To forms",
	MinSize: 3,
	Seeds: [][]byte{
		seed(vectorSeed(1, 2, 3), vectorSeed(3, 2, 1), fuzzinput.AppendFloat64(nil, 0.5)),
		seed(vectorSeed(-1, 4), vectorSeed(0, 1), fuzzinput.AppendFloat64(nil, -2)),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		y := in.Tensor().Float64s()
		alpha := in.Float64Or(1)

		shifted := slices.Clone(x)
		in.Op("AddConst")
		floats.AddConst(alpha, shifted)

		scaled := slices.Clone(x)
		in.Op("Scale")
		floats.Scale(alpha, scaled)
		in.Compare("ScaleTo", scaled, floats.ScaleTo(make([]float64, len(x)), alpha, x), 0, 0)

		acc := slices.Clone(x)
		if err := in.Try("AddScaled", func() { floats.AddScaled(acc, alpha, y) }); err != nil {
			return nil
		}
		to := make([]float64, len(x))
		in.Op("AddScaledTo")
		floats.AddScaledTo(to, x, alpha, y)
		in.Compare("AddScaledTo", acc, to, 0, 0)
		return nil
	},
}

var cumulativeHarness = &harness.Harness{
	Name:    "elementwise_cumulative",
	Family:  Family,
	Doc:     "floats.CumSum and CumProd against Sum and Prod",
	MinSize: 3,
	Seeds: [][]byte{
		append(vectorSeed(1, 2, 3, 4), 1),
		append(vectorSeed(0.5, -2, 8), 0),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		n := len(x) + in.ReadRange(-1, 1)

		sum := make([]float64, n)
		if err := in.Try("CumSum", func() { floats.CumSum(sum, x) }); err != nil {
			return nil
		}
		prod := make([]float64, n)
		in.Op("CumProd")
		floats.CumProd(prod, x)

		if !allFinite(x) {
			return nil
		}
		total := floats.Sum(x)
		in.Compare("CumSum", []float64{total}, []float64{sum[n-1]}, 1e-9, 1e-9*(1+floats.Norm(x, 1)))
		in.Compare("CumProd", []float64{floats.Prod(x)}, []float64{prod[n-1]}, 1e-12, 0)
		return nil
	},
}

var norms = []float64{1, 2, math.Inf(1), 3, 0.5}

var distanceHarness = &harness.Harness{
	Name:    "elementwise_distance",
	Family:  Family,
	Doc:     "floats.Dot, Norm and Distance cross-checked",
	MinSize: 5,
	Seeds: [][]byte{
		seed(vectorSeed(3, 4), vectorSeed(0, 0), []byte{1}),
		seed(vectorSeed(1, -1, 2), vectorSeed(2, 2, 2), []byte{2}),
		seed(vectorSeed(1), vectorSeed(1, 2), []byte{0}),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()
		y := in.Tensor().Float64s()
		l := norms[in.ReadChoice(len(norms))]

		var dist float64
		if err := in.Try("Distance", func() { dist = floats.Distance(x, y, l) }); err != nil {
			return nil
		}
		in.Op("Dot")
		floats.Dot(x, y)

		if !allFinite(x) || !allFinite(y) {
			return nil
		}
		diff := floats.SubTo(make([]float64, len(x)), x, y)
		in.Compare("Distance", []float64{floats.Norm(diff, l)}, []float64{dist}, 1e-9, 0)

		if n2 := floats.Norm(x, 2); n2 < 1e150 && n2 > 1e-150 {
			in.Compare("Norm2", []float64{floats.Dot(x, x)}, []float64{n2 * n2}, 1e-9, 0)
		}
		return nil
	},
}

var extremaHarness = &harness.Harness{
	Name:    "elementwise_extrema",
	Family:  Family,
	Doc:     "Max/Min and their indices, LogSumExp, Argsort, Reverse, Find",
	MinSize: 3,
	Seeds: [][]byte{
		append(vectorSeed(3, -1, 4, 1, 5), 2),
		append(vectorSeed(2, 2, 2), 0),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor().Float64s()

		in.Op("MaxIdx")
		if i := floats.MaxIdx(x); !math.IsNaN(x[i]) {
			in.Compare("Max", []float64{x[i]}, []float64{floats.Max(x)}, 0, 0)
		}
		in.Op("MinIdx")
		if i := floats.MinIdx(x); !math.IsNaN(x[i]) {
			in.Compare("Min", []float64{x[i]}, []float64{floats.Min(x)}, 0, 0)
		}
		in.Op("LogSumExp")
		floats.LogSumExp(x)

		sorted := slices.Clone(x)
		inds := make([]int, len(x))
		in.Op("ArgsortStable")
		floats.ArgsortStable(sorted, inds)
		if !floats.HasNaN(x) {
			want := slices.Clone(x)
			sort.Float64s(want)
			in.Compare("Argsort order", want, sorted, 0, 0)
			permuted := make([]float64, len(x))
			for i, j := range inds {
				permuted[i] = x[j]
			}
			in.Compare("Argsort indices", sorted, permuted, 0, 0)
		}

		rev := slices.Clone(x)
		floats.Reverse(rev)
		floats.Reverse(rev)
		in.Compare("Reverse", x, rev, 0, 0)

		k := in.ReadRange(-1, len(x)+1)
		positive := func(v float64) bool { return v > 0 }
		in.Op("Find")
		found, err := floats.Find(nil, positive, x, k)
		if err == nil && k > 0 && len(found) != k {
			in.Compare("Find", []float64{float64(k)}, []float64{float64(len(found))}, 0, 0)
		}
		if c := floats.Count(positive, x); k < 0 && len(found) != c {
			in.Compare("Find all", []float64{float64(c)}, []float64{float64(len(found))}, 0, 0)
		}
		return nil
	},
}

var spanHarness = &harness.Harness{
	Name:    "elementwise_span",
	Family:  Family,
	Doc:     "floats.Span, LogSpan, Within and nearest index lookups",
	MinSize: 2,
	Seeds: [][]byte{
		seed([]byte{5}, fuzzinput.AppendFloat64(nil, 0), fuzzinput.AppendFloat64(nil, 10), fuzzinput.AppendFloat64(nil, 3.3)),
		seed([]byte{1}, fuzzinput.AppendFloat64(nil, 1), fuzzinput.AppendFloat64(nil, 2)),
	},
	Run: func(in *harness.Input) error {
		n := in.ReadRange(0, 16)
		lo := in.Float64Or(0)
		hi := in.Float64Or(1)
		v := in.Float64Or(0.5)

		span := make([]float64, n)
		if err := in.Try("Span", func() { floats.Span(span, lo, hi) }); err != nil {
			return nil
		}
		if lo > 0 && hi > 0 && !math.IsInf(lo, 0) && !math.IsInf(hi, 0) {
			in.Op("LogSpan")
			floats.LogSpan(make([]float64, n), lo, hi)
		}

		_ = in.Try("Within", func() { floats.Within(span, v) })
		in.Op("NearestIdx")
		floats.NearestIdx(span, v)
		_ = in.Try("NearestIdxForSpan", func() { floats.NearestIdxForSpan(n, lo, hi, v) })
		return nil
	},
}
