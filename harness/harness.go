// Package harness runs fuzz harnesses: it decodes nothing itself, but gives
// each harness an Input over the fuzz data, contains the faults raised while
// the target library runs, and maps every outcome onto the keep/discard
// status a fuzzing engine expects.
package harness

import (
	"errors"
	"fmt"
	"strings"
)

// Status codes returned by TestOneInput.
const (
	Keep    = 0
	Discard = -1
)

// Harness targets one operation family of the library under test.
type Harness struct {
	// Name identifies the harness in the registry, logs and artifacts.
	Name string
	// Family groups related harnesses, for example "linalg".
	Family string
	// Doc is a one-line description.
	Doc string
	// MinSize is the smallest input Run is invoked on. Shorter inputs are
	// kept without running anything.
	MinSize int
	// Seeds are inputs known to reach the operation.
	Seeds [][]byte
	// Run decodes its arguments from in and calls the library.
	Run func(in *Input) error
}

var errInvalidHarness = errors.New("harness: invalid harness")

func (h *Harness) validate() error {
	switch {
	case h == nil:
		return errInvalidHarness
	case h.Name == "":
		return errors.Join(errInvalidHarness, errors.New("empty name"))
	case !ValidName(h.Name):
		return errors.Join(errInvalidHarness, fmt.Errorf("%q is not usable as a directory name", h.Name))
	case h.Run == nil:
		return errors.Join(errInvalidHarness, errors.New(h.Name+": nil Run"))
	case h.MinSize < 0:
		return errors.Join(errInvalidHarness, errors.New(h.Name+": negative MinSize"))
	}
	return nil
}

// ValidName reports whether name can be used as a single path component
// for seed and artifact directories: non-empty, no path separators and no
// leading dot.
func ValidName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}

// TestOneInput runs data through h on the default runner and returns Keep or
// Discard. It is the libFuzzer-style entry point.
func (h *Harness) TestOneInput(data []byte) int {
	return Default().Execute(h, data).Code
}

// Result is the outcome of one invocation.
type Result struct {
	// Code is Keep or Discard.
	Code int
	// Fault is set when the invocation failed.
	Fault *Fault
	// Skipped reports that the input was shorter than MinSize.
	Skipped bool
	// Consumed is the number of input bytes the harness decoded.
	Consumed int
	// Diffs counts failed result comparisons.
	Diffs int
}
