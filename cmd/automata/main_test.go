package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/config"
)

func testApp() (*app, *bytes.Buffer) {
	var buf bytes.Buffer
	return &app{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:    &buf,
	}, &buf
}

func TestScanNames(t *testing.T) {
	a, out := testApp()
	if err := runScan(a, []string{"payload.exe", "readme.md", "windows_update.iso"}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"payload.exe", "executable", "readme.md", "clean", "mimic_legitimate"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestScanDataset(t *testing.T) {
	a, out := testApp()
	if err := runScan(a, []string{"-data", "../../internal/dataset/testdata/filenames.jsonl", "-workers", "2"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "accuracy") {
		t.Errorf("no metrics in\n%s", out)
	}
}

func TestValidate(t *testing.T) {
	a, out := testApp()
	if err := runValidate(a, []string{"-trace", "SYN -> SYN-ACK -> ACK"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ACCEPTED") {
		t.Errorf("got\n%s", out)
	}

	a, out = testApp()
	if err := runValidate(a, []string{"SYN", "RST"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "REJECTED") || !strings.Contains(out.String(), "RST received") {
		t.Errorf("got\n%s", out)
	}

	a, out = testApp()
	if err := runValidate(a, []string{"-data", "../../internal/dataset/testdata/traces.csv"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "correctly accepted") {
		t.Errorf("got\n%s", out)
	}

	a, _ = testApp()
	if err := runValidate(a, nil); err == nil {
		t.Error("empty trace accepted")
	}
}

func TestInspect(t *testing.T) {
	a, out := testApp()
	if err := runInspect(a, []string{"-re", "ab", "-format", "json"}); err != nil {
		t.Fatal(err)
	}
	var g struct {
		Type  string `json:"type"`
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(out.Bytes(), &g); err != nil || g.Type != "DFA" || len(g.Nodes) != 3 {
		t.Fatalf("got %+v %v", g, err)
	}

	a, out = testApp()
	if err := runInspect(a, []string{"-re", "a(b|c)", "-format", "regex"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Error("no expression printed")
	}

	a, out = testApp()
	if err := runInspect(a, []string{"-pda", "-format", "dot"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `digraph "PDA"`) {
		t.Errorf("got\n%s", out)
	}

	a, out = testApp()
	if err := runInspect(a, []string{"-re", "a*", "-stage", "nfa", "-format", "stats"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "nfa states") {
		t.Errorf("got\n%s", out)
	}

	for _, args := range [][]string{
		{"-re", "a(", "-format", "dot"},
		{"-re", "a", "-stage", "weird"},
		{"-re", "a", "-stage", "nfa", "-format", "regex"},
		{"-format", "dot"},
	} {
		a, _ = testApp()
		if err := runInspect(a, args); err == nil {
			t.Errorf("%v accepted", args)
		}
	}
}

func TestGen(t *testing.T) {
	a, _ := testApp()
	path := filepath.Join(t.TempDir(), "matchers.go")
	if err := runGen(a, []string{"-pkg", "scan", "-o", path}); err != nil {
		t.Fatal(err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(src, []byte("package scan")) || !bytes.Contains(src, []byte("func MatchExecutable(s string) bool")) {
		t.Errorf("generated:\n%s", src)
	}
	if !bytes.Contains(src, []byte("foldSymbol(s[i])")) {
		t.Error("default config folds case but matchers do not")
	}

	a, out := testApp()
	if err := runGen(a, []string{"-fold=false"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "foldSymbol") {
		t.Error("fold step emitted with -fold=false")
	}
}

func TestRulesFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.rules")
	rules := "pattern macro = \"docm\" severity high;\n"
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}
	a, out := testApp()
	if err := runScan(a, []string{"-rules", path, "-heuristics=false", "report.docm", "payload.exe"}); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "macro") || strings.Contains(s, "executable") {
		t.Errorf("got\n%s", s)
	}
}
