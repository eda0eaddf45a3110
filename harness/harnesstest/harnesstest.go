// Package harnesstest connects harnesses to the go test fuzzing engine.
package harnesstest

import (
	"testing"

	"github.com/synadia-labs/tensorfuzz/harness"
)

// Fuzz adds the seeds of h to f and fuzzes it. Only unexpected panics fail
// the test; errors and rejections are ordinary discards.
func Fuzz(f *testing.F, h *harness.Harness) {
	for _, s := range h.Seeds {
		f.Add(s)
	}
	r := harness.NewRunner(harness.WithProgressEvery(0))
	f.Fuzz(func(t *testing.T, data []byte) {
		res := r.Execute(h, data)
		if res.Fault != nil && res.Fault.Kind == harness.KindPanic {
			t.Fatalf("%v\n%s", res.Fault, res.Fault.Stack)
		}
	})
}

// RunSeeds runs every seed of each harness as a subtest and fails on any
// panic or returned error.
func RunSeeds(t *testing.T, hs []*harness.Harness) {
	t.Helper()
	r := harness.NewRunner(harness.WithProgressEvery(0))
	for _, h := range hs {
		t.Run(h.Name, func(t *testing.T) {
			if len(h.Seeds) == 0 {
				t.Fatal("no seeds")
			}
			for i, s := range h.Seeds {
				res := r.Execute(h, s)
				if res.Fault != nil && res.Fault.Kind != harness.KindRejected {
					t.Fatalf("seed %d: %v\n%s", i, res.Fault, res.Fault.Stack)
				}
				if res.Skipped {
					t.Fatalf("seed %d shorter than MinSize %d", i, h.MinSize)
				}
			}
		})
	}
}
