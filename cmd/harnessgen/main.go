package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/synadia-labs/tensorfuzz/cmd/harnessgen/core"
)

// CLI defines the harnessgen command-line interface.
//
// Each line of the input names one API, as pkg.Func or pkg.Type.Method.
// Every API gets a "<pkg>_<name>_gen.go" skeleton in the output directory
// and harnesses_gen.go lists them all.
type CLI struct {
	Input     string `short:"i" help:"API list, one name per line" default:"apis.txt" type:"existingfile"`
	Output    string `short:"o" help:"Output directory" default:"."`
	Package   string `short:"p" help:"Package name and harness family of the generated files" required:""`
	Overwrite bool   `help:"Replace existing skeletons"`
	Verbose   bool   `short:"v" help:"Enable verbose diagnostics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("harnessgen"),
		kong.Description("Generate fuzz harness skeletons from a list of gonum APIs."),
	)

	if err := run(&cli); err != nil {
		ctx.FatalIfErrorf(err)
	}
}

func run(cli *CLI) error {
	out := strings.TrimSpace(cli.Output)
	if out == "" {
		out = "."
	}
	if err := core.Run(cli.Input, out, core.Options{
		Package:   strings.TrimSpace(cli.Package),
		Overwrite: cli.Overwrite,
		Verbose:   cli.Verbose,
		Log:       os.Stderr,
	}); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
