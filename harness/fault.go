package harness

import (
	"fmt"
	"strings"
)

// Kind classifies how an invocation failed.
type Kind string

const (
	KindRejected Kind = "rejected" // library validation panic escaped the harness
	KindError    Kind = "error"    // Run returned an error
	KindPanic    Kind = "panic"    // unexpected panic
)

// Fault is the structured failure of one invocation.
type Fault struct {
	Value   any
	Cause   error
	Kind    Kind
	Harness string
	Op      string
	Stack   string
}

// Sentinels for errors.Is.
var (
	ErrRejected = &Fault{Kind: KindRejected}
	ErrFailed   = &Fault{Kind: KindError}
	ErrPanicked = &Fault{Kind: KindPanic}
)

// Error implements the error interface
func (f *Fault) Error() string {
	var b strings.Builder

	if f.Harness != "" {
		b.WriteByte('[')
		b.WriteString(f.Harness)
		b.WriteString("] ")
	}
	b.WriteString(string(f.Kind))

	if f.Op != "" {
		b.WriteString(" in ")
		b.WriteString(f.Op)
	}

	switch {
	case f.Cause != nil:
		b.WriteString(": ")
		b.WriteString(f.Cause.Error())
	case f.Value != nil:
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(f.Value))
	}
	return b.String()
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is reports whether target is a Fault of the same kind
func (f *Fault) Is(target error) bool {
	if t, ok := target.(*Fault); ok {
		return f.Kind == t.Kind
	}
	return false
}
