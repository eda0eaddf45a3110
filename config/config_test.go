package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Fatalf("Path = %q", cfg.Path)
	}
	if cfg.Decode != fuzzinput.DefaultLimits() || cfg.Run.Workers < 1 || cfg.Log.Format != "console" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestFindUpwards(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "")
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(sub)
	if err != nil || !ok || got != path {
		t.Fatalf("Find = %q, %v, %v", got, ok, err)
	}
}

func TestOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[decode]
max_rank = 2
max_dim_size = 16

[run]
workers = 3
progress_every = 0

[log]
level = "debug"
format = "json"

[artifacts]
dir = "out/crashes"

[corpus]
cache_dir = "/tmp/tf-cache"
`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Decode.MaxRank != 2 || cfg.Decode.MaxDimSize != 16 {
		t.Fatalf("decode = %+v", cfg.Decode)
	}
	if cfg.Run.Workers != 3 || cfg.Run.ProgressEvery != 0 {
		t.Fatalf("run = %+v", cfg.Run)
	}
	if cfg.Artifacts.Dir != filepath.Join(root, "out", "crashes") {
		t.Fatalf("artifacts dir = %q", cfg.Artifacts.Dir)
	}
	if cfg.Corpus.CacheDir != "/tmp/tf-cache" {
		t.Fatalf("cache dir = %q", cfg.Corpus.CacheDir)
	}
	if cfg.Corpus.Stats != filepath.Join(root, ".tensorfuzz", "stats.msgp") {
		t.Fatalf("stats = %q", cfg.Corpus.Stats)
	}
	l, err := cfg.Log.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug level not enabled")
	}
}

func TestUnknownKey(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[run]\nworkerz = 3\n")
	_, err := Load(root)
	if err == nil || !strings.Contains(err.Error(), "run.workerz") {
		t.Fatalf("err = %v", err)
	}
}

func TestInvalid(t *testing.T) {
	for _, tt := range []struct {
		name, body string
		is         error
	}{
		{"rank", "[decode]\nmax_rank = 300\n", fuzzinput.ErrLimits},
		{"dim", "[decode]\nmax_dim_size = 0\n", fuzzinput.ErrLimits},
		{"workers", "[run]\nworkers = 0\n", nil},
		{"level", "[log]\nlevel = \"loud\"\n", nil},
		{"format", "[log]\nformat = \"xml\"\n", nil},
		{"syntax", "[run\n", nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, tt.body)
			_, err := Load(root)
			if err == nil {
				t.Fatal("no error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
		})
	}
}
