package core

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	tmplfs "github.com/synadia-labs/tensorfuzz/cmd/harnessgen/templates"
)

// IndexFile is the generated file listing every harness of a run.
const IndexFile = "harnesses_gen.go"

// Options configures how generation runs.
type Options struct {
	// Package is the Go package name of the generated files. It is also the
	// harness family.
	Package string
	// Overwrite replaces existing skeletons. Without it they are kept.
	Overwrite bool
	Verbose   bool
	// Log receives progress lines when Verbose is set.
	Log io.Writer
}

// API is one parsed line of the API list, for example "mat.Dense.Mul" or
// "stat.Mean".
type API struct {
	Full     string
	Pkg      string
	Receiver string
	Method   string
}

type harnessSpec struct {
	Source   string
	Package  string
	Family   string
	API      string
	Name     string
	Var      string
	Op       string
	Receiver string
	Method   string
	Decoder  string
	MinSize  int
	File     string
}

var (
	harnessTemplate = template.Must(template.New("harness.go.tpl").ParseFS(tmplfs.FS, "harness.go.tpl"))
	indexTemplate   = template.Must(template.New("index.go.tpl").ParseFS(tmplfs.FS, "index.go.tpl"))
)

// decoders maps receiver types onto the harness helper producing them.
var decoders = map[string]string{
	"Dense":    "Dense",
	"SymDense": "Symmetric",
	"VecDense": "Vector",
}

// ParseAPI splits a dotted API name.
func ParseAPI(line string) (API, error) {
	parts := strings.Split(line, ".")
	for _, p := range parts {
		if !token.IsIdentifier(p) {
			return API{}, fmt.Errorf("invalid API name %q", line)
		}
	}
	switch len(parts) {
	case 2:
		return API{Full: line, Pkg: parts[0], Method: parts[1]}, nil
	case 3:
		return API{Full: line, Pkg: parts[0], Receiver: parts[1], Method: parts[2]}, nil
	}
	return API{}, fmt.Errorf("invalid API name %q: want pkg.Func or pkg.Type.Method", line)
}

// ReadAPIs reads one API per line. Blank lines and lines starting with #
// are skipped.
func ReadAPIs(r io.Reader) ([]API, error) {
	var apis []API
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		api, err := ParseAPI(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if seen[line] {
			return nil, fmt.Errorf("line %d: duplicate API %q", n, line)
		}
		seen[line] = true
		apis = append(apis, api)
	}
	return apis, sc.Err()
}

// snake converts an identifier to lower snake case: "SymDense" -> "sym_dense".
func snake(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lowerCamel joins parts into a lowerCamelCase identifier.
func lowerCamel(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			rs := []rune(p)
			rs[0] = unicode.ToLower(rs[0])
			b.WriteString(string(rs))
			continue
		}
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}

func newSpec(api API, source string, opts Options) harnessSpec {
	base := snake(api.Method)
	if api.Receiver != "" {
		base = snake(api.Receiver) + "_" + base
	}
	s := harnessSpec{
		Source:   source,
		Package:  opts.Package,
		Family:   opts.Package,
		API:      api.Full,
		Name:     opts.Package + "_" + api.Pkg + "_" + base,
		Var:      lowerCamel(api.Pkg, api.Receiver, api.Method, "Harness"),
		Receiver: api.Receiver,
		Method:   api.Method,
		MinSize:  2,
		File:     api.Pkg + "_" + base + "_gen.go",
	}
	s.Op = api.Method
	if api.Receiver != "" {
		s.Op = api.Receiver + "." + api.Method
		s.Decoder = decoders[api.Receiver]
		if s.Decoder == "" {
			s.Decoder = "Dense"
		}
	}
	return s
}

// Run reads the API list at inputPath and writes one harness skeleton per
// API plus an index file into outDir.
func Run(inputPath, outDir string, opts Options) error {
	if !token.IsIdentifier(opts.Package) {
		return fmt.Errorf("invalid package name %q", opts.Package)
	}
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	apis, err := ReadAPIs(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	if len(apis) == 0 {
		return errors.New(inputPath + ": no APIs listed")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	source := filepath.Base(inputPath)
	specs := make([]harnessSpec, 0, len(apis))
	files := map[string]string{}
	for _, api := range apis {
		s := newSpec(api, source, opts)
		if prev, ok := files[s.File]; ok {
			return fmt.Errorf("%s and %s both map to %s", prev, api.Full, s.File)
		}
		files[s.File] = api.Full
		specs = append(specs, s)
	}

	for _, s := range specs {
		path := filepath.Join(outDir, s.File)
		if !opts.Overwrite {
			if _, err := os.Stat(path); err == nil {
				opts.logf("[SKIP] %s exists\n", path)
				continue
			}
		}
		if err := render(harnessTemplate, path, s); err != nil {
			return fmt.Errorf("%s: %w", s.API, err)
		}
		opts.logf("[OK] %s\n", path)
	}

	index := struct {
		Source    string
		Package   string
		Harnesses []harnessSpec
	}{source, opts.Package, specs}
	return render(indexTemplate, filepath.Join(outDir, IndexFile), index)
}

func (o Options) logf(format string, args ...any) {
	if o.Verbose && o.Log != nil {
		fmt.Fprintf(o.Log, format, args...)
	}
}

func render(t *template.Template, outputPath string, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	src, err := imports.Process(outputPath, buf.Bytes(), nil)
	if err != nil {
		// Fall back to go/format if goimports fails.
		if formatted, ferr := format.Source(buf.Bytes()); ferr == nil {
			src = formatted
		} else {
			return fmt.Errorf("generated code does not parse: %w", ferr)
		}
	}
	return os.WriteFile(outputPath, src, 0o644)
}
