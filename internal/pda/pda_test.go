package pda

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// ------------------------------------------------------------------- helpers

func seq(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func checkRun(t *testing.T, r *Run, tokens []string) {
	t.Helper()
	r.Reset()
	if err := r.Verify(); err != nil {
		t.Fatalf("after reset: %v", err)
	}
	for _, tok := range tokens {
		r.Step(tok)
		if err := r.Verify(); err != nil {
			t.Fatalf("after %q in %v: %v", tok, tokens, err)
		}
		if r.Depth() < 0 || r.Depth() > MaxDepth {
			t.Fatalf("depth %d out of range", r.Depth())
		}
	}
}

// ------------------------------------------------------------------- Validate

func TestValidate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"SYN SYN-ACK ACK", true},
		{"SYN SYN-ACK ACK DATA DATA FIN", true},
		{"SYN SYN-ACK ACK ACK FIN", true},
		{"SYN SYN-ACK ACK SYN SYN-ACK ACK", true},
		{"SYN SYN-ACK ACK DATA SYN SYN-ACK ACK FIN", true},
		{"", false},
		{"SYN", false},
		{"SYN SYN-ACK", false},
		{"SYN ACK", false},
		{"SYN-ACK SYN ACK", false},
		{"ACK SYN SYN-ACK", false},
		{"SYN SYN SYN-ACK ACK", false},
		{"DATA", false},
		{"SYN SYN-ACK ACK SYN", false},
		{"SYN SYN-ACK ACK DATA SYN SYN-ACK", false},
		{"SYN SYN-ACK ACK FOO", false},
		{"syn SYN-ACK ACK", false},
	}
	m := New()
	for _, c := range cases {
		if got := m.Validate(seq(c.in)); got != c.want {
			t.Errorf("Validate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRSTAlwaysRejected(t *testing.T) {
	m := New()
	prefixes := []string{"", "SYN", "SYN SYN-ACK", "SYN SYN-ACK ACK", "SYN SYN-ACK ACK DATA"}
	suffixes := []string{"", "SYN SYN-ACK ACK", "DATA FIN"}
	for _, p := range prefixes {
		for _, s := range suffixes {
			in := append(append(seq(p), "RST"), seq(s)...)
			if m.Validate(in) {
				t.Errorf("accepted %v", in)
			}
		}
	}
}

func TestErrorIsAbsorbing(t *testing.T) {
	r := New().NewRun()
	r.Step("ACK")
	if r.State() != Error {
		t.Fatalf("state %v, want ERROR", r.State())
	}
	for _, tok := range seq("SYN SYN-ACK ACK DATA FIN RST") {
		st := r.Step(tok)
		if st.After != Error {
			t.Fatalf("left ERROR on %q", tok)
		}
	}
	if r.Accepting() {
		t.Fatal("ERROR run reports accepting")
	}
}

func TestRunReuse(t *testing.T) {
	r := New().NewRun()
	if r.Validate(seq("SYN SYN-ACK")) {
		t.Fatal("partial handshake accepted")
	}
	if !r.Validate(seq("SYN SYN-ACK ACK")) {
		t.Fatal("stale state leaked into second validation")
	}
	if r.Validate(seq("RST")) {
		t.Fatal("RST accepted")
	}
	if !r.Validate(seq("SYN SYN-ACK ACK DATA")) {
		t.Fatal("ERROR leaked into next validation")
	}
}

func TestConcurrentValidate(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in, want := seq("SYN SYN-ACK ACK"), true
			if i%2 == 1 {
				in, want = seq("SYN ACK"), false
			}
			for j := 0; j < 100; j++ {
				if m.Validate(in) != want {
					t.Errorf("goroutine %d: wrong verdict", i)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

// ------------------------------------------------------------------- Stack

func TestStackInvariants(t *testing.T) {
	r := New().NewRun()
	alphabet := []string{"SYN", "SYN-ACK", "ACK", "DATA", "FIN", "RST", "X"}
	// every sequence of length <= 4 over the alphabet
	var walk func(prefix []string)
	walk = func(prefix []string) {
		checkRun(t, r, prefix)
		if len(prefix) == 4 {
			return
		}
		for _, tok := range alphabet {
			walk(append(append([]string(nil), prefix...), tok))
		}
	}
	walk(nil)
}

func TestStackDepth(t *testing.T) {
	r := New().NewRun()
	want := []int{1, 2, 0, 0, 1}
	for i, tok := range seq("SYN SYN-ACK ACK DATA SYN") {
		if st := r.Step(tok); st.Depth != want[i] {
			t.Fatalf("step %d depth %d, want %d", i, st.Depth, want[i])
		}
	}
	if r.MaxDepthSeen() != 2 {
		t.Fatalf("max depth %d", r.MaxDepthSeen())
	}
	if r.Stack()[0] != Bottom {
		t.Fatal("BOTTOM missing")
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	r := New().NewRun()
	r.Step("SYN")
	r.stack = append(r.stack, SymSYN, SymSYN)
	if err := r.Verify(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("Verify = %v, want ErrInvariant", err)
	}
	r.Reset()
	r.stack = r.stack[:0]
	if err := r.Verify(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("empty stack: Verify = %v", err)
	}
}

// ------------------------------------------------------------------- Trace

func TestTrace(t *testing.T) {
	m := New()
	steps := m.Trace(seq("SYN SYN-ACK ACK DATA"))
	if len(steps) != 4 {
		t.Fatalf("got %d steps", len(steps))
	}
	wantOps := []string{
		"PUSH(SYN) -> SYN_RECEIVED",
		"PUSH(SYN-ACK) -> SYNACK_RECEIVED",
		"POP(SYN-ACK), POP(SYN) -> ACCEPT",
		"ACCEPT DATA -> ACCEPT",
	}
	for i, st := range steps {
		if st.Op != wantOps[i] {
			t.Errorf("step %d op %q, want %q", i, st.Op, wantOps[i])
		}
	}
	if steps[0].Before != Start || steps[2].After != Accept {
		t.Fatalf("unexpected states: %v", steps)
	}
}

func TestTraceStopsAtError(t *testing.T) {
	steps := New().Trace(seq("SYN RST SYN-ACK ACK"))
	if len(steps) != 2 {
		t.Fatalf("got %d steps", len(steps))
	}
	if steps[1].Op != "ERROR: RST received" {
		t.Fatalf("op %q", steps[1].Op)
	}
}

func TestTraceAgreesWithValidate(t *testing.T) {
	m := New()
	for _, in := range []string{"SYN SYN-ACK ACK", "SYN ACK", "SYN SYN-ACK ACK FIN", "RST", ""} {
		steps := m.Trace(seq(in))
		traced := len(steps) == len(seq(in)) && len(steps) > 0 && steps[len(steps)-1].After == Accept &&
			steps[len(steps)-1].Depth == 0
		if traced != m.Validate(seq(in)) {
			t.Errorf("%q: trace %v, validate %v", in, traced, !traced)
		}
	}
}

func TestEvaluate(t *testing.T) {
	res := New().Evaluate(seq("SYN SYN-ACK ACK DATA FIN"))
	if !res.Accepted || res.Final != Accept || res.MaxDepth != 2 || res.Consumed != 5 || res.Depth != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	res = New().Evaluate(seq("SYN DATA SYN"))
	if res.Accepted || res.Final != Error || res.Consumed != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

// ------------------------------------------------------------------- Tokens

func TestParseToken(t *testing.T) {
	for _, tok := range Tokens() {
		if got := ParseToken(tok.String()); got != tok {
			t.Errorf("ParseToken(%q) = %v", tok.String(), got)
		}
	}
	for _, s := range []string{"", "syn", "SYNACK", "UNKNOWN", " SYN"} {
		if ParseToken(s) != Unknown {
			t.Errorf("ParseToken(%q) should be Unknown", s)
		}
	}
}

func TestGrammar(t *testing.T) {
	g := Grammar()
	if g[0].Head != "S" {
		t.Fatalf("start symbol %q", g[0].Head)
	}
	heads := map[string]bool{}
	for _, p := range g {
		heads[p.Head] = true
	}
	for _, p := range g {
		for _, sym := range p.Body {
			if !heads[sym] && ParseToken(sym) == Unknown {
				t.Errorf("%v: undefined symbol %q", p, sym)
			}
		}
	}
}
