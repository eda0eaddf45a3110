// Package spectral fuzzes gonum/dsp: the real and complex FFTs, the
// radix-2/4 transforms, the trigonometric transforms, window functions and
// the Hilbert transform.
//
// Every transform is checked by a round trip through its inverse and, where
// gonum offers two routes to the same spectrum, by comparing the routes.
package spectral

import (
	"math"
	"math/bits"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/transform"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// Family is the registry family of every harness in this package.
const Family = "spectral"

// Harnesses returns the spectral harnesses.
func Harnesses() []*harness.Harness {
	return []*harness.Harness{
		fftHarness,
		cmplxFFTHarness,
		trigHarness,
		windowHarness,
		hilbertHarness,
	}
}

func vectorSeed(vals ...float64) []byte {
	return fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{len(vals)}, vals, fuzzinput.FloatingTypes)
}

func complexSeed(vals ...float64) []byte {
	return fuzzinput.AppendTensor(nil, fuzzinput.Complex128, fuzzinput.Shape{len(vals)}, vals, fuzzinput.ComplexTypes)
}

// radix4Seed is a 16 point signal, laid out as 4x4 because a single
// dimension cannot exceed the default decode bound.
var radix4Seed = fuzzinput.AppendTensor(nil, fuzzinput.Complex128, fuzzinput.Shape{4, 4},
	[]float64{2, 4, 6, 8, 1, 3, 5, 7, 0, 0, 1, 1, 2, 2, 3, 3}, fuzzinput.ComplexTypes)

func seed(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// tolerance returns the absolute tolerance for comparing transforms of x,
// and false when x is too large or not finite for a meaningful comparison.
func tolerance(x []float64) (float64, bool) {
	var l1 float64
	for _, v := range x {
		l1 += math.Abs(v)
	}
	if math.IsNaN(l1) || l1 > 1e150 {
		return 0, false
	}
	return 1e-9 * (1 + l1), true
}

// pairs flattens z into interleaved real and imaginary parts.
func pairs(z []complex128) []float64 {
	out := make([]float64, 0, 2*len(z))
	for _, v := range z {
		out = append(out, real(v), imag(v))
	}
	return out
}

func cmplxTolerance(z []complex128) (float64, bool) {
	return tolerance(pairs(z))
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

func isPow4(n int) bool { return isPow2(n) && bits.TrailingZeros(uint(n))%2 == 0 }

var fftHarness = &harness.Harness{
	Name:    "spectral_fft",
	Family:  Family,
	Doc:     "real FFT round trip, agreement with the complex FFT, and Freq",
	MinSize: 3,
	Seeds: [][]byte{
		seed(vectorSeed(1, 2, 3, 4), []byte{0, 2}),
		seed(vectorSeed(1, -1, 0.5, 2, 7), []byte{0, 6}),
		seed(vectorSeed(3), []byte{1, 0}),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor(fuzzinput.FloatingTypes...).Float64s()
		wrongDst := in.ReadBool()
		n := len(x)

		in.Op("NewFFT")
		fft := fourier.NewFFT(n)
		if wrongDst {
			// One coefficient too many.
			_ = in.Try("Coefficients", func() { fft.Coefficients(make([]complex128, n/2+2), x) })
		}
		in.Op("Coefficients")
		coeff := fft.Coefficients(nil, x)
		in.Op("Sequence")
		back := fft.Sequence(nil, slices.Clone(coeff))
		floats.Scale(1/float64(n), back)

		i := in.ReadRange(-1, n)
		var freq float64
		if err := in.Try("Freq", func() { freq = fft.Freq(i) }); err == nil {
			in.Compare("Freq", []float64{float64(i) / float64(n)}, []float64{freq}, 1e-12, 0)
		}

		tol, ok := tolerance(x)
		if !ok {
			return nil
		}
		in.Compare("Sequence(Coefficients)", x, back, 1e-9, tol)

		z := make([]complex128, n)
		for j, v := range x {
			z[j] = complex(v, 0)
		}
		in.Op("CmplxFFT")
		full := fourier.NewCmplxFFT(n).Coefficients(nil, z)
		in.Compare("CmplxFFT", pairs(full[:len(coeff)]), pairs(coeff), 1e-9, tol)
		return nil
	},
}

var cmplxFFTHarness = &harness.Harness{
	Name:    "spectral_cmplx_fft",
	Family:  Family,
	Doc:     "complex FFT round trip, index shifting and the radix-2/4 transforms",
	MinSize: 3,
	Seeds: [][]byte{
		complexSeed(1, 2, 3, 4),
		complexSeed(1, 0, -1, 2, 5, 3, 1, 1),
		complexSeed(1, 2, 3),
		radix4Seed,
	},
	Run: func(in *harness.Input) error {
		z := in.Tensor(fuzzinput.ComplexTypes...).Complex128s()
		n := len(z)

		in.Op("NewCmplxFFT")
		fft := fourier.NewCmplxFFT(n)
		coeff := fft.Coefficients(nil, z)
		in.Op("Sequence")
		back := fft.Sequence(nil, slices.Clone(coeff))
		for i := range back {
			back[i] /= complex(float64(n), 0)
		}

		want := make([]float64, n)
		got := make([]float64, n)
		for i := range want {
			want[i] = float64(i)
			in.Op("ShiftIdx")
			s := fft.ShiftIdx(i)
			in.Op("UnshiftIdx")
			got[i] = float64(fft.UnshiftIdx(s))
			in.Op("Freq")
			fft.Freq(i)
		}
		in.Compare("UnshiftIdx(ShiftIdx)", want, got, 0, 0)

		in.Op("PadRadix2")
		padded := fourier.PadRadix2(slices.Clone(z))
		in.Compare("PadRadix2 length", []float64{float64(int(1) << bits.Len(uint(n-1)))}, []float64{float64(len(padded))}, 0, 0)
		in.Op("TrimRadix2")
		even, rest := fourier.TrimRadix2(z)
		in.Compare("TrimRadix2 length", []float64{float64(n)}, []float64{float64(len(even) + len(rest))}, 0, 0)

		tol, ok := cmplxTolerance(z)
		if !ok {
			return nil
		}
		in.Compare("Sequence(Coefficients)", pairs(z), pairs(back), 1e-9, tol)

		if isPow2(n) {
			in.Op("CoefficientsRadix2")
			r2 := fourier.CoefficientsRadix2(slices.Clone(z))
			in.Compare("CoefficientsRadix2", pairs(coeff), pairs(r2), 1e-9, tol)
			in.Op("SequenceRadix2")
			inv := fourier.SequenceRadix2(r2)
			for i := range inv {
				inv[i] /= complex(float64(n), 0)
			}
			in.Compare("SequenceRadix2", pairs(z), pairs(inv), 1e-9, tol)
		}
		if isPow4(n) {
			in.Op("CoefficientsRadix4")
			r4 := fourier.CoefficientsRadix4(slices.Clone(z))
			in.Compare("CoefficientsRadix4", pairs(coeff), pairs(r4), 1e-9, tol)
		}
		return nil
	},
}

var trigHarness = &harness.Harness{
	Name:    "spectral_trig",
	Family:  Family,
	Doc:     "DCT, DST and quarter wave transforms applied twice",
	MinSize: 3,
	Seeds: [][]byte{
		vectorSeed(1, 2, 3, 4),
		vectorSeed(0.5, -1, 4),
		vectorSeed(7),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor(fuzzinput.FloatingTypes...).Float64s()
		n := len(x)
		tol, ok := tolerance(x)

		in.Op("DST")
		dst := fourier.NewDST(n)
		twice := dst.Transform(nil, dst.Transform(nil, x))
		floats.Scale(1/float64(2*(n+1)), twice)
		if ok {
			in.Compare("DST twice", x, twice, 1e-9, tol)
		}

		in.Op("QuarterWaveFFT")
		qw := fourier.NewQuarterWaveFFT(n)
		cos := qw.CosSequence(nil, qw.CosCoefficients(nil, x))
		floats.Scale(1/float64(4*n), cos)
		sin := qw.SinSequence(nil, qw.SinCoefficients(nil, x))
		floats.Scale(1/float64(4*n), sin)
		if ok {
			in.Compare("CosSequence(CosCoefficients)", x, cos, 1e-9, tol)
			in.Compare("SinSequence(SinCoefficients)", x, sin, 1e-9, tol)
		}

		var dct *fourier.DCT
		if err := in.Try("NewDCT", func() { dct = fourier.NewDCT(n) }); err != nil {
			return nil
		}
		in.Op("DCT")
		twice = dct.Transform(nil, dct.Transform(nil, x))
		floats.Scale(1/float64(2*(n-1)), twice)
		if ok {
			in.Compare("DCT twice", x, twice, 1e-9, tol)
		}
		return nil
	},
}

type windowFunc struct {
	name  string
	real  func([]float64) []float64
	cmplx func([]complex128) []complex128
}

var windows = []windowFunc{
	{"Rectangular", window.Rectangular, window.RectangularComplex},
	{"Sine", window.Sine, window.SineComplex},
	{"Lanczos", window.Lanczos, window.LanczosComplex},
	{"Triangular", window.Triangular, window.TriangularComplex},
	{"Hann", window.Hann, window.HannComplex},
	{"BartlettHann", window.BartlettHann, window.BartlettHannComplex},
	{"Hamming", window.Hamming, window.HammingComplex},
	{"Blackman", window.Blackman, window.BlackmanComplex},
	{"BlackmanHarris", window.BlackmanHarris, window.BlackmanHarrisComplex},
	{"Nuttall", window.Nuttall, window.NuttallComplex},
	{"BlackmanNuttall", window.BlackmanNuttall, window.BlackmanNuttallComplex},
	{"FlatTop", window.FlatTop, window.FlatTopComplex},
}

// readWindow picks a fixed window or one of the parametric windows with a
// parameter in [0, 1].
func readWindow(in *harness.Input) windowFunc {
	i := in.ReadChoice(len(windows) + 2)
	switch i - len(windows) {
	case 0:
		g := window.Gaussian{Sigma: in.ReadFloatIn(0.1, 1)}
		return windowFunc{"Gaussian", g.Transform, g.TransformComplex}
	case 1:
		t := window.Tukey{Alpha: in.ReadFloatIn(0, 1)}
		return windowFunc{"Tukey", t.Transform, t.TransformComplex}
	}
	return windows[i]
}

var windowHarness = &harness.Harness{
	Name:    "spectral_window",
	Family:  Family,
	Doc:     "window functions against their complex forms and precomputed Values",
	MinSize: 3,
	Seeds: [][]byte{
		seed([]byte{4}, vectorSeed(1, 2, 3, 4, 5)),
		seed([]byte{12, 128}, vectorSeed(1, 1, 2, 3)),
		seed([]byte{13, 0}, vectorSeed(2, -2, 1)),
		seed([]byte{2}, vectorSeed(3, 1, 4, 1, 5, 9)),
	},
	Run: func(in *harness.Input) error {
		w := readWindow(in)
		x := in.Tensor(fuzzinput.FloatingTypes...).Float64s()
		n := len(x)

		in.Op(w.name)
		weighted := w.real(slices.Clone(x))

		z := make([]complex128, n)
		for i, v := range x {
			z[i] = complex(v, 0)
		}
		in.Op(w.name + "Complex")
		wz := w.cmplx(z)
		re := make([]float64, n)
		for i, v := range wz {
			re[i] = real(v)
		}
		in.Compare(w.name+"Complex", weighted, re, 1e-12, 0)

		in.Op("NewValues")
		vals := window.NewValues(w.real, n)
		in.Compare("Values.Transform", weighted, vals.Transform(slices.Clone(x)), 0, 0)
		to := make([]float64, n)
		vals.TransformTo(to, x)
		in.Compare("Values.TransformTo", weighted, to, 0, 0)

		// A window of a different length must be refused.
		short := window.NewValues(window.Rectangular, n+1)
		if err := in.Try("Values.Transform", func() { short.Transform(slices.Clone(x)) }); err == nil {
			in.Compare("Values length check", []float64{float64(n + 1)}, []float64{float64(n)}, 0, 0)
		}
		return nil
	},
}

var hilbertHarness = &harness.Harness{
	Name:    "spectral_hilbert",
	Family:  Family,
	Doc:     "the real part of the analytic signal reproduces the signal",
	MinSize: 3,
	Seeds: [][]byte{
		vectorSeed(1, 0, -1, 0),
		vectorSeed(2, 3, 5, 7, 11),
		vectorSeed(4),
	},
	Run: func(in *harness.Input) error {
		x := in.Tensor(fuzzinput.FloatingTypes...).Float64s()
		n := len(x)

		in.Op("NewHilbert")
		h := transform.NewHilbert(n)
		if err := in.Try("AnalyticSignal", func() { h.AnalyticSignal(make([]complex128, n+1), x) }); err == nil {
			in.Compare("AnalyticSignal length check", []float64{float64(n + 1)}, []float64{float64(n)}, 0, 0)
		}
		in.Op("AnalyticSignal")
		a := h.AnalyticSignal(nil, x)

		tol, ok := tolerance(x)
		if !ok {
			return nil
		}
		re := make([]float64, n)
		env := make([]float64, n)
		for i, v := range a {
			re[i] = real(v)
			env[i] = cmplx.Abs(v)
		}
		in.Compare("real(AnalyticSignal)", x, re, 1e-9, tol)
		for i, v := range x {
			// The envelope bounds the signal.
			if math.Abs(v) > env[i]+tol {
				in.Compare("envelope", []float64{math.Abs(v)}, []float64{env[i]}, 0, tol)
				break
			}
		}
		return nil
	},
}
