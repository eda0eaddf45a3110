package harness

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
)

// DefaultProgressEvery is the default progress logging interval.
const DefaultProgressEvery = 10000

// Sink persists inputs that failed or produced diverging results.
// Implementations must be safe for concurrent use.
type Sink interface {
	SaveFault(data []byte, f *Fault) error
	SaveDiff(data []byte, harness, op string, maxDiff float64) error
}

// Runner executes harnesses. A Runner is safe for concurrent use.
type Runner struct {
	Limits fuzzinput.Limits
	// Logger defaults to the package Logger.
	Logger *zap.Logger
	// Sink, when set, receives error and diff inputs.
	Sink Sink
	// ProgressEvery logs the iteration count every that many invocations.
	// Zero disables progress logging.
	ProgressEvery uint64

	iterations atomic.Uint64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLimits sets the decoding limits.
func WithLimits(l fuzzinput.Limits) Option { return func(r *Runner) { r.Limits = l } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.Logger = l } }

// WithSink sets the artifact sink.
func WithSink(s Sink) Option { return func(r *Runner) { r.Sink = s } }

// WithProgressEvery sets the progress logging interval.
func WithProgressEvery(n uint64) Option { return func(r *Runner) { r.ProgressEvery = n } }

// NewRunner returns a Runner with default limits and progress interval.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Limits:        fuzzinput.DefaultLimits(),
		ProgressEvery: DefaultProgressEvery,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var (
	defaultRunner     *Runner
	defaultRunnerOnce sync.Once
)

// Default returns the runner used by TestOneInput.
func Default() *Runner {
	defaultRunnerOnce.Do(func() {
		defaultRunner = NewRunner()
	})
	return defaultRunner
}

// Iterations returns the number of invocations so far.
func (r *Runner) Iterations() uint64 { return r.iterations.Load() }

func (r *Runner) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return Logger()
}

// Execute runs data through h and reports the outcome.
func (r *Runner) Execute(h *Harness, data []byte) (res Result) {
	n := r.iterations.Add(1)
	if r.ProgressEvery > 0 && n%r.ProgressEvery == 0 {
		r.logger().Info("progress", zap.Uint64("iterations", n))
	}
	if len(data) < h.MinSize {
		return Result{Code: Keep, Skipped: true}
	}

	in := newInput(r, h, data)
	defer in.release()
	defer func() {
		if v := recover(); v != nil {
			res = r.fail(in, recovered(h.Name, in.op, v))
		}
	}()

	err := h.Run(in)
	switch {
	case err == nil:
		return Result{Code: Keep, Consumed: in.Offset(), Diffs: in.diffs}
	case errors.Is(err, ErrReject):
		return Result{Code: Discard, Consumed: in.Offset(), Diffs: in.diffs}
	}
	return r.fail(in, &Fault{Kind: KindError, Harness: h.Name, Op: in.op, Cause: err})
}

func (r *Runner) fail(in *Input, f *Fault) Result {
	res := Result{Code: Discard, Fault: f, Consumed: in.Offset(), Diffs: in.diffs}
	switch f.Kind {
	case KindRejected:
		in.log.Debug("library rejected input", zap.String("op", f.Op), zap.Any("value", f.Value))
		return res
	case KindError:
		in.log.Info("harness error", zap.String("op", f.Op), zap.Error(f.Cause))
	case KindPanic:
		in.log.Error("unexpected panic", zap.String("op", f.Op), zap.Any("value", f.Value),
			zap.String("stack", f.Stack), zap.Int("input_len", len(in.data)))
	}
	if r.Sink != nil {
		if err := r.Sink.SaveFault(in.data, f); err != nil {
			in.log.Warn("failed to save input", zap.Error(err))
		}
	}
	return res
}

func (r *Runner) saveDiff(in *Input, op string, maxDiff float64) {
	in.diffs++
	if r.Sink == nil {
		return
	}
	if err := r.Sink.SaveDiff(in.data, in.harness.Name, op, maxDiff); err != nil {
		in.log.Warn("failed to save diff input", zap.Error(err))
	}
}
