package targets

import (
	"errors"
	"strings"
	"testing"

	"github.com/synadia-labs/tensorfuzz/harness"
)

func TestRegistry(t *testing.T) {
	all := All()
	var want int
	for _, family := range Families {
		want += len(family())
	}
	if len(all) != want {
		t.Fatalf("registered %d harnesses, want %d", len(all), want)
	}
	for _, h := range all {
		if !strings.HasPrefix(h.Name, h.Family+"_") {
			t.Errorf("%s: name does not start with family %q", h.Name, h.Family)
		}
		if h.Doc == "" {
			t.Errorf("%s: no doc", h.Name)
		}
		if len(h.Seeds) == 0 {
			t.Errorf("%s: no seeds", h.Name)
		}
	}
}

func TestRegisterTwice(t *testing.T) {
	r := harness.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatal(err)
	}
	if err := Register(r); !errors.Is(err, harness.ErrDuplicate) {
		t.Fatalf("err = %v", err)
	}
}

func TestMatchFamily(t *testing.T) {
	hs, err := Registry().Match("spectral/*")
	if err != nil {
		t.Fatal(err)
	}
	if len(hs) == 0 {
		t.Fatal("no spectral harnesses")
	}
	for _, h := range hs {
		if h.Family != "spectral" {
			t.Fatalf("%s matched spectral/*", h.Name)
		}
	}
}
