// Package config loads tensorfuzz.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// FileName is the configuration file looked up from the working directory
// upwards.
const FileName = "tensorfuzz.toml"

// Config is the decoded configuration file.
type Config struct {
	Decode    fuzzinput.Limits `toml:"decode"`
	Run       Run              `toml:"run"`
	Log       Log              `toml:"log"`
	Artifacts Artifacts        `toml:"artifacts"`
	Corpus    Corpus           `toml:"corpus"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type Run struct {
	Workers       int    `toml:"workers"`
	ProgressEvery uint64 `toml:"progress_every"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

type Artifacts struct {
	Dir string `toml:"dir"`
}

type Corpus struct {
	CacheDir string `toml:"cache_dir"`
	// Stats is the replay statistics file.
	Stats string `toml:"stats"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Decode: fuzzinput.DefaultLimits(),
		Run: Run{
			Workers:       runtime.GOMAXPROCS(0),
			ProgressEvery: harness.DefaultProgressEvery,
		},
		Log:       Log{Level: "info", Format: "console"},
		Artifacts: Artifacts{Dir: "artifacts"},
		Corpus:    Corpus{CacheDir: ".tensorfuzz/cache", Stats: ".tensorfuzz/stats.msgp"},
	}
}

// Find returns the nearest tensorfuzz.toml at or above startDir.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads the configuration found from startDir, or the defaults when
// there is none.
func Load(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile decodes path over the defaults. Relative directories in the file
// are resolved against the file's directory.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if und := meta.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	root := filepath.Dir(path)
	cfg.Artifacts.Dir = resolve(root, cfg.Artifacts.Dir)
	cfg.Corpus.CacheDir = resolve(root, cfg.Corpus.CacheDir)
	cfg.Corpus.Stats = resolve(root, cfg.Corpus.Stats)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := c.Decode.Validate(); err != nil {
		return err
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("config: [run].workers must be positive, got %d", c.Run.Workers)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: [log].level: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: [log].format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// NewLogger builds the logger described by the [log] section. Console
// output uses the development encoder, json the production one.
func (l Log) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: [log].level: %w", err)
	}
	var zc zap.Config
	switch l.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("config: [log].format must be console or json, got %q", l.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
