package codegen

import (
	"bytes"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
)

func funcs(t *testing.T, src []byte) (string, map[string]bool) {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	out := map[string]bool{}
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			out[fd.Name.Name] = true
		}
	}
	return file.Name.Name, out
}

func TestGenerate(t *testing.T) {
	entries := []Entry{
		{Name: "ends_ab", Pattern: "ab", DFA: regexlib.MustCompile("ab").DFA()},
		{Name: "nothing", Pattern: "", DFA: automata.NewDFA()},
	}
	var buf bytes.Buffer
	if err := Generate(&buf, "matchers", entries); err != nil {
		t.Fatal(err)
	}
	pkg, fs := funcs(t, buf.Bytes())
	if pkg != "matchers" || !fs["MatchEndsAb"] || !fs["MatchNothing"] || !fs["symbol"] {
		t.Fatalf("package %s funcs %v", pkg, fs)
	}
	src := buf.String()
	for _, want := range []string{"DO NOT EDIT", "endsAbTable", "[3][128]int", "'a': 2", "'b': 3", "endsAbAccept"} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in\n%s", want, src)
		}
	}
}

func TestGenerateFromDetector(t *testing.T) {
	det := detect.MustNew(detect.DefaultPatterns(), detect.Options{})
	entries := Entries(det.Patterns(), false)
	if len(entries) != len(detect.DefaultPatterns()) || !entries[0].Search || entries[0].FoldCase {
		t.Fatalf("entries %+v", entries)
	}
	var buf bytes.Buffer
	if err := Generate(&buf, "detectors", entries); err != nil {
		t.Fatal(err)
	}
	_, fs := funcs(t, buf.Bytes())
	for _, name := range []string{"MatchExecutable", "MatchBatchFile", "MatchDeceptivePassword"} {
		if !fs[name] {
			t.Errorf("missing %s", name)
		}
	}
	if !strings.Contains(buf.String(), "occurs in s") {
		t.Error("search matchers not documented as such")
	}
	if fs["foldSymbol"] {
		t.Error("fold step emitted without FoldCase")
	}
}

func TestGenerateFoldCase(t *testing.T) {
	det := detect.MustNew(detect.DefaultPatterns(), detect.Options{FoldCase: true})
	entries := Entries(det.Patterns(), true)
	for _, e := range entries {
		if !e.FoldCase {
			t.Fatalf("entry %s not folded", e.Name)
		}
	}
	var buf bytes.Buffer
	if err := Generate(&buf, "detectors", entries); err != nil {
		t.Fatal(err)
	}
	_, fs := funcs(t, buf.Bytes())
	if !fs["foldSymbol"] || !fs["symbol"] {
		t.Fatalf("funcs %v", fs)
	}
	src := buf.String()
	for _, want := range []string{"c += 'a' - 'A'", "foldSymbol(s[i])", "either case"} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in\n%s", want, src)
		}
	}
	if strings.Count(src, "func foldSymbol") != 1 {
		t.Error("foldSymbol emitted more than once")
	}
}

func TestGenerateErrors(t *testing.T) {
	d := regexlib.MustCompile("a").DFA()
	for name, entries := range map[string][]Entry{
		"duplicate": {{Name: "x", DFA: d}, {Name: "X", DFA: d}},
		"bad ident": {{Name: "1abc", DFA: d}},
		"empty":     {{Name: "", DFA: d}},
		"nil dfa":   {{Name: "y"}},
	} {
		if err := Generate(&bytes.Buffer{}, "p", entries); !errors.Is(err, ErrBadEntry) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestExported(t *testing.T) {
	for in, want := range map[string]string{"batch_file": "BatchFile", "exe": "Exe", "custom-10": "Custom10"} {
		if got := Exported(in); got != want {
			t.Errorf("Exported(%q) = %q, want %q", in, got, want)
		}
	}
}
