package harness

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrReject is returned by Run to discard an input quietly, for example when
// the decoded values fall outside what the operation accepts.
var ErrReject = errors.New("harness: input rejected")

// libraryPrefixes are the message prefixes gonum uses for argument
// validation panics.
var libraryPrefixes = []string{
	"mat:",
	"floats:",
	"stat:",
	"fourier:",
	"blas:",
	"lapack:",
	"dsp:",
	"window:",
	"transform:",
	"histogram:",
	"cholesky:",
}

// libraryMessages are validation panics gonum raises without a package
// prefix.
var libraryMessages = map[string]bool{
	"x data are not sorted": true,
	"y data are not sorted": true,
}

// crash carries an unexpected panic value from Try to the top-level guard
// together with the stack at the original panic site.
type crash struct {
	value any
	stack []byte
}

// classify reports the Kind of a recovered panic value.
func classify(v any) Kind {
	switch v := v.(type) {
	case *crash:
		return KindPanic
	case runtime.Error:
		return KindPanic
	case mat.Error:
		return KindRejected
	case error:
		if hasLibraryPrefix(v.Error()) {
			return KindRejected
		}
	case string:
		if hasLibraryPrefix(v) {
			return KindRejected
		}
	}
	return KindPanic
}

func hasLibraryPrefix(msg string) bool {
	if libraryMessages[msg] {
		return true
	}
	for _, p := range libraryPrefixes {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}
	return false
}

// recovered turns a recovered value into a Fault.
func recovered(name, op string, v any) *Fault {
	f := &Fault{Harness: name, Op: op, Kind: classify(v)}
	if c, ok := v.(*crash); ok {
		f.Value = c.value
		f.Stack = string(c.stack)
	} else {
		f.Value = v
		if f.Kind == KindPanic {
			f.Stack = string(debug.Stack())
		}
	}
	if err, ok := f.Value.(error); ok {
		f.Cause = err
	}
	return f
}

// rejection wraps a recovered library panic as an error for Try callers.
func rejection(op string, v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v", op, v)
}
