// Package targets collects every harness family into one registry.
package targets

import (
	"sync"

	"github.com/synadia-labs/tensorfuzz/harness"
	"github.com/synadia-labs/tensorfuzz/targets/elementwise"
	"github.com/synadia-labs/tensorfuzz/targets/linalg"
	"github.com/synadia-labs/tensorfuzz/targets/reduce"
	"github.com/synadia-labs/tensorfuzz/targets/spectral"
)

// Families lists the family constructors in registration order.
var Families = []func() []*harness.Harness{
	linalg.Harnesses,
	elementwise.Harnesses,
	reduce.Harnesses,
	spectral.Harnesses,
}

// Register adds every harness of every family to r.
func Register(r *harness.Registry) error {
	for _, family := range Families {
		if err := r.Register(family()...); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *harness.Registry
)

// Registry returns a process-wide registry holding every harness.
func Registry() *harness.Registry {
	defaultOnce.Do(func() {
		defaultRegistry = harness.NewRegistry()
		if err := Register(defaultRegistry); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}

// All returns every harness sorted by name.
func All() []*harness.Harness {
	return Registry().All()
}
