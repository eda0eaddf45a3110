package harness

import (
	"errors"
	"math"
	"runtime/debug"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
)

// Input is the decoding state of one invocation. It embeds the Cursor, so
// every fuzzinput read is available directly.
type Input struct {
	*fuzzinput.Cursor

	// Limits bound the tensors returned by Tensor.
	Limits fuzzinput.Limits

	data    []byte
	harness *Harness
	runner  *Runner
	log     *zap.Logger
	op      string
	tensors []*fuzzinput.Tensor
	diffs   int
}

func newInput(r *Runner, h *Harness, data []byte) *Input {
	return &Input{
		Cursor:  fuzzinput.NewCursor(data),
		Limits:  r.Limits,
		data:    data,
		harness: h,
		runner:  r,
		log:     r.logger().With(zap.String("harness", h.Name)),
	}
}

// Data returns the whole input.
func (in *Input) Data() []byte { return in.data }

// Logger returns a logger scoped to the harness.
func (in *Input) Logger() *zap.Logger { return in.log }

// Op names the operation about to run; faults are reported against it.
func (in *Input) Op(name string) { in.op = name }

// Tensor decodes a tensor under in.Limits. Its storage is released when the
// invocation ends.
func (in *Input) Tensor(supported ...fuzzinput.DType) *fuzzinput.Tensor {
	return in.TensorWithin(in.Limits.MaxRank, in.Limits.MaxDimSize, supported...)
}

// TensorWithin is Tensor with explicit bounds. The bounds are clamped to
// in.Limits.
func (in *Input) TensorWithin(maxRank, maxDimSize int, supported ...fuzzinput.DType) *fuzzinput.Tensor {
	maxRank = min(maxRank, in.Limits.MaxRank)
	maxDimSize = min(maxDimSize, in.Limits.MaxDimSize)
	t := in.ReadTensor(maxRank, maxDimSize, supported)
	in.tensors = append(in.tensors, t)
	if ce := in.log.Check(zap.DebugLevel, "decoded tensor"); ce != nil {
		ce.Write(zap.Stringer("tensor", t), zap.Int("offset", in.Offset()))
	}
	return t
}

// Require rejects the input when fewer than n bytes are left for the
// argument named what. The returned error matches both ErrReject and
// fuzzinput.ErrShortBytes.
func (in *Input) Require(n int, what string) error {
	err := in.Cursor.Require(n)
	if err == nil {
		return nil
	}
	err = fuzzinput.WrapError(err, what)
	if ce := in.log.Check(zap.DebugLevel, "input too short"); ce != nil {
		ce.Write(zap.Error(err), zap.Bool("resumable", fuzzinput.Resumable(err)))
	}
	return errors.Join(ErrReject, err)
}

func (in *Input) release() {
	for _, t := range in.tensors {
		t.Release()
	}
	in.tensors = nil
}

// Try runs fn as operation op and recovers the argument validation panics
// of the library, returning them as an error. Any other panic continues to
// the top-level guard with its original stack.
func (in *Input) Try(op string, fn func()) (err error) {
	in.op = op
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if classify(v) == KindPanic {
			if _, ok := v.(*crash); ok {
				panic(v)
			}
			panic(&crash{value: v, stack: debug.Stack()})
		}
		err = rejection(op, v)
		in.log.Debug("library rejected arguments", zap.String("op", op), zap.Error(err))
	}()
	fn()
	return nil
}

// Compare reports whether got matches want elementwise within
// |want-got| <= atol + rtol*|got|. NaNs compare equal to NaNs. A mismatch
// is logged and the input saved as a diff artifact.
func (in *Input) Compare(op string, want, got []float64, rtol, atol float64) bool {
	if len(want) != len(got) {
		in.log.Warn("result length mismatch", zap.String("op", op),
			zap.Int("want", len(want)), zap.Int("got", len(got)))
		in.runner.saveDiff(in, op, math.Inf(1))
		return false
	}
	var maxDiff float64
	ok := true
	for i := range want {
		a, b := want[i], got[i]
		if a == b || (math.IsNaN(a) && math.IsNaN(b)) {
			continue
		}
		d := math.Abs(a - b)
		if !(d <= atol+rtol*math.Abs(b)) {
			ok = false
		}
		if math.IsNaN(d) || d > maxDiff {
			maxDiff = d
		}
	}
	if !ok {
		in.log.Warn("results differ", zap.String("op", op),
			zap.Float64("max_diff", maxDiff), zap.Float64("rtol", rtol), zap.Float64("atol", atol))
		in.runner.saveDiff(in, op, maxDiff)
	}
	return ok
}

// CompareMatrix is Compare over two matrices of equal shape.
func (in *Input) CompareMatrix(op string, want, got mat.Matrix, rtol, atol float64) bool {
	wr, wc := want.Dims()
	gr, gc := got.Dims()
	if wr != gr || wc != gc {
		in.log.Warn("result shape mismatch", zap.String("op", op),
			zap.Ints("want", []int{wr, wc}), zap.Ints("got", []int{gr, gc}))
		in.runner.saveDiff(in, op, math.Inf(1))
		return false
	}
	return in.Compare(op, flatten(want), flatten(got), rtol, atol)
}
