package core

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAPI(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    API
		wantErr bool
	}{
		{in: "stat.Mean", want: API{Full: "stat.Mean", Pkg: "stat", Method: "Mean"}},
		{in: "mat.Dense.Mul", want: API{Full: "mat.Dense.Mul", Pkg: "mat", Receiver: "Dense", Method: "Mul"}},
		{in: "Mean", wantErr: true},
		{in: "a.b.c.d", wantErr: true},
		{in: "mat.Dense.", wantErr: true},
		{in: "mat.1x", wantErr: true},
	} {
		got, err := ParseAPI(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseAPI(%q) err = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseAPI(%q) = %+v", tt.in, got)
		}
	}
}

func TestReadAPIs(t *testing.T) {
	apis, err := ReadAPIs(strings.NewReader("# comment\n\nstat.Mean\n  mat.Dense.Mul  \n"))
	if err != nil || len(apis) != 2 || apis[1].Method != "Mul" {
		t.Fatalf("ReadAPIs = %+v, %v", apis, err)
	}
	if _, err := ReadAPIs(strings.NewReader("stat.Mean\nstat.Mean\n")); err == nil {
		t.Fatal("duplicate accepted")
	}
	if _, err := ReadAPIs(strings.NewReader("ok.Name\nnot valid\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v", err)
	}
}

func TestNames(t *testing.T) {
	for in, want := range map[string]string{
		"SymDense": "sym_dense",
		"MulVec":   "mul_vec",
		"QR":       "qr",
		"SVD":      "svd",
		"Mean":     "mean",
		"EigenSym": "eigen_sym",
	} {
		if got := snake(in); got != want {
			t.Errorf("snake(%q) = %q, want %q", in, got, want)
		}
	}
	if got := lowerCamel("mat", "Dense", "Mul", "Harness"); got != "matDenseMulHarness" {
		t.Fatalf("lowerCamel = %q", got)
	}
	if got := lowerCamel("stat", "", "Mean", "Harness"); got != "statMeanHarness" {
		t.Fatalf("lowerCamel = %q", got)
	}
}

func writeAPIs(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "apis.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunGeneratesValidGo(t *testing.T) {
	dir := t.TempDir()
	in := writeAPIs(t, dir, "stat.Mean\nmat.SymDense.SymOuterK\nmat.Dense.Mul\n")
	out := filepath.Join(dir, "gen")
	var log bytes.Buffer
	if err := Run(in, out, Options{Package: "extra", Verbose: true, Log: &log}); err != nil {
		t.Fatal(err)
	}

	fset := token.NewFileSet()
	vars := map[string]bool{}
	for _, name := range []string{"stat_mean_gen.go", "mat_sym_dense_sym_outer_k_gen.go", "mat_dense_mul_gen.go"} {
		f, err := parser.ParseFile(fset, filepath.Join(out, name), nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if f.Name.Name != "extra" {
			t.Fatalf("%s: package %s", name, f.Name.Name)
		}
		if !ast.IsGenerated(f) {
			t.Fatalf("%s: missing generated header", name)
		}
		for _, d := range f.Decls {
			if g, ok := d.(*ast.GenDecl); ok && g.Tok == token.VAR {
				vars[g.Specs[0].(*ast.ValueSpec).Names[0].Name] = true
			}
		}
	}
	for _, v := range []string{"statMeanHarness", "matSymDenseSymOuterKHarness", "matDenseMulHarness"} {
		if !vars[v] {
			t.Fatalf("missing var %s in %v", v, vars)
		}
	}

	b, err := os.ReadFile(filepath.Join(out, "mat_sym_dense_sym_outer_k_gen.go"))
	if err != nil {
		t.Fatal(err)
	}
	src := string(b)
	for _, want := range []string{`"extra_mat_sym_dense_sym_outer_k"`, "harness.Symmetric(", `in.Try("SymDense.SymOuterK"`} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated source lacks %s:\n%s", want, src)
		}
	}

	idx, err := parser.ParseFile(fset, filepath.Join(out, IndexFile), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Scope.Lookup("Generated") == nil {
		t.Fatal("index lacks Generated")
	}
	if strings.Count(log.String(), "[OK]") != 3 {
		t.Fatalf("log:\n%s", log.String())
	}
}

func TestRunKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	in := writeAPIs(t, dir, "stat.Mean\n")
	path := filepath.Join(dir, "stat_mean_gen.go")
	if err := os.WriteFile(path, []byte("package x\n// edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Run(in, dir, Options{Package: "x"}); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(path); !strings.Contains(string(b), "edited") {
		t.Fatal("existing skeleton overwritten")
	}
	if err := Run(in, dir, Options{Package: "x", Overwrite: true}); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(path); strings.Contains(string(b), "edited") {
		t.Fatal("skeleton not overwritten")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	if err := Run(writeAPIs(t, dir, "stat.Mean\n"), dir, Options{Package: "not-a-name"}); err == nil {
		t.Fatal("bad package accepted")
	}
	if err := Run(writeAPIs(t, dir, "# nothing\n"), dir, Options{Package: "x"}); err == nil {
		t.Fatal("empty list accepted")
	}
	// Both map to stat_mean_gen.go.
	if err := Run(writeAPIs(t, dir, "stat.Mean\nstat.mean\n"), dir, Options{Package: "x"}); err == nil {
		t.Fatal("file collision accepted")
	}
}
