package harness

import (
	"errors"
	"testing"
)

func noop(*Input) error { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	err := r.Register(
		&Harness{Name: "det", Family: "linalg", Run: noop},
		&Harness{Name: "inverse", Family: "linalg", Run: noop},
		&Harness{Name: "mean", Family: "reduce", Run: noop},
	)
	if err != nil {
		t.Fatal(err)
	}
	if names := r.Names(); len(names) != 3 || names[0] != "det" || names[2] != "mean" {
		t.Fatalf("Names = %v", names)
	}
	if h, ok := r.Lookup("inverse"); !ok || h.Family != "linalg" {
		t.Fatalf("Lookup = %v, %v", h, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("found missing harness")
	}

	matches := map[string]int{"": 3, "all": 3, "linalg/*": 2, "d*": 1, "*/mean": 1, "nothing": 0}
	for pattern, want := range matches {
		hs, err := r.Match(pattern)
		if err != nil || len(hs) != want {
			t.Fatalf("Match(%q) = %d, %v; want %d", pattern, len(hs), err, want)
		}
	}
	if _, err := r.Match("["); err == nil {
		t.Fatal("bad pattern accepted")
	}
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Harness{Name: "a", Run: noop})

	if err := r.Register(&Harness{Name: "a", Run: noop}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate: %v", err)
	}
	err := r.Register(&Harness{Name: "b", Run: noop}, &Harness{Name: "b", Run: noop})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate in batch: %v", err)
	}
	if _, ok := r.Lookup("b"); ok {
		t.Fatal("failed batch partially registered")
	}
	if err := r.Register(&Harness{Name: "c"}); !errors.Is(err, errInvalidHarness) {
		t.Fatalf("nil Run: %v", err)
	}
	if err := r.Register(&Harness{Run: noop}); !errors.Is(err, errInvalidHarness) {
		t.Fatalf("empty name: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustRegister did not panic")
		}
	}()
	r.MustRegister(&Harness{Name: "a", Run: noop})
}
