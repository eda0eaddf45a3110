package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// testConfig writes a configuration whose directories live under dir.
func testConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tensorfuzz.toml")
	body := `
[run]
workers = 2
progress_every = 0

[log]
level = "error"

[artifacts]
dir = "artifacts"

[corpus]
cache_dir = "cache"
stats = "stats.msgp"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI parses args and runs the selected command in-process. reg, when
// set, replaces the harness registry.
func runCLI(t *testing.T, reg *harness.Registry, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("tensorfuzz"), kong.Exit(func(code int) {
		t.Fatalf("exit %d", code)
	}))
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	a, err := newApp(&cli, &out)
	if err != nil {
		return "", err
	}
	if reg != nil {
		a.reg = reg
	}
	err = kctx.Run(a)
	return out.String(), err
}

func TestList(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	out, err := runCLI(t, nil, "--config", cfg, "--color", "off", "list", "spectral/*")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "spectral_fft") || !strings.Contains(out, "5 harnesses") {
		t.Fatalf("output:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("colored output with --color off")
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	in := filepath.Join(dir, "input")
	data := fuzzinput.AppendTensor(nil, fuzzinput.Float64, fuzzinput.Shape{2}, []float64{1, 2}, nil)
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, nil, "--config", cfg, "--color", "off", "describe", in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "@0 float64[2] {1, 2}") || !strings.Contains(out, "consumed 19 of 19 bytes") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestSeedsReplayStats(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	seeds := filepath.Join(dir, "seeds")

	out, err := runCLI(t, nil, "--config", cfg, "seeds", "reduce_moments", "--out", seeds)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "for 1 harnesses") {
		t.Fatalf("output:\n%s", out)
	}
	files, err := os.ReadDir(filepath.Join(seeds, "reduce_moments"))
	if err != nil || len(files) == 0 {
		t.Fatalf("seed files = %v, %v", files, err)
	}

	for range 2 {
		out, err = runCLI(t, nil, "--config", cfg, "--color", "off", "replay", "reduce_moments", seeds)
		if err != nil {
			t.Fatalf("replay: %v\n%s", err, out)
		}
	}
	if !strings.Contains(out, "reduce_moments") {
		t.Fatalf("output:\n%s", out)
	}
	results := filepath.Join(dir, "cache", "results")
	if _, err := os.Stat(results); err != nil {
		t.Fatalf("cache not populated: %v", err)
	}
	if _, err := runCLI(t, nil, "--config", cfg, "replay", "--clear-cache", "--no-cache", "reduce_moments", seeds); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(results); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("cache not cleared: %v", err)
	}

	out, err = runCLI(t, nil, "--config", cfg, "--color", "off", "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "replay of") || !strings.Contains(out, "reduce_moments") {
		t.Fatalf("output:\n%s", out)
	}

	out, err = runCLI(t, nil, "--config", cfg, "triage")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no artifacts") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestReplayPanicExitStatus(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	reg := harness.NewRegistry()
	reg.MustRegister(&harness.Harness{
		Name:   "boom",
		Family: "test",
		Run: func(in *harness.Input) error {
			var xs []float64
			_ = xs[in.Uint8Or(0)]
			return nil
		},
	})
	in := filepath.Join(dir, "corpus", "x")
	if err := os.MkdirAll(filepath.Dir(in), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(in, []byte{3}, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, reg, "--config", cfg, "--color", "off", "replay", "all", filepath.Dir(in))
	if !errors.Is(err, errPanicked) {
		t.Fatalf("err = %v\n%s", err, out)
	}
	if !strings.Contains(out, "panic boom") {
		t.Fatalf("output:\n%s", out)
	}

	out, err = runCLI(t, reg, "--config", cfg, "--color", "off", "triage", "--kind", "panic")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "boom") || !strings.Contains(out, "panic") {
		t.Fatalf("output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "artifacts", "records.cbor")); err != nil {
		t.Fatal(err)
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	if useColor("auto", &buf) {
		t.Fatal("color for a buffer")
	}
	if !useColor("on", &buf) || useColor("off", os.Stdout) {
		t.Fatal("explicit mode ignored")
	}
}
