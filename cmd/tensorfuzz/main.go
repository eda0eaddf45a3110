package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/synadia-labs/tensorfuzz/config"
	"github.com/synadia-labs/tensorfuzz/harness"
	"github.com/synadia-labs/tensorfuzz/targets"
)

// CLI defines the tensorfuzz command-line interface.
type CLI struct {
	Config   string `help:"Configuration file (default: nearest tensorfuzz.toml)" type:"existingfile"`
	Color    string `help:"Colorize output" enum:"auto,on,off" default:"auto"`
	LogLevel string `help:"Override [log].level" name:"log-level"`

	List     listCmd     `cmd:"" help:"List registered harnesses."`
	Describe describeCmd `cmd:"" help:"Decode a file as tensors and describe them."`
	Replay   replayCmd   `cmd:"" help:"Run corpus files through matching harnesses."`
	Seeds    seedsCmd    `cmd:"" help:"Write harness seed inputs to a directory."`
	Triage   triageCmd   `cmd:"" help:"Summarize saved artifacts."`
	Stats    statsCmd    `cmd:"" help:"Print the statistics of the last replay."`
}

// app is the state shared by all commands.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	out   io.Writer
	reg   *harness.Registry
	color bool
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tensorfuzz"),
		kong.Description("Replay, triage and seed the gonum fuzz harnesses."),
		kong.UsageOnError(),
	)

	a, err := newApp(&cli, os.Stdout)
	ctx.FatalIfErrorf(err)
	defer a.log.Sync() //nolint:errcheck
	ctx.FatalIfErrorf(ctx.Run(a))
}

func newApp(cli *CLI, out io.Writer) (*app, error) {
	var (
		cfg config.Config
		err error
	)
	if cli.Config != "" {
		cfg, err = config.LoadFile(cli.Config)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	harness.SetLogger(log)
	if cfg.Path != "" {
		log.Debug("loaded configuration", zap.String("path", cfg.Path))
	}
	return &app{
		cfg:   cfg,
		log:   log,
		out:   out,
		reg:   targets.Registry(),
		color: useColor(cli.Color, out),
	}, nil
}

func useColor(mode string, out io.Writer) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint returns a color that is disabled when output is not colorized.
func (a *app) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if a.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
