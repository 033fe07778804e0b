package automata

import (
	"strings"
	"testing"
)

// ------------------------------------------------------------------- helpers

// words returns every string over alpha up to maxLen symbols.
func words(alpha string, maxLen int) []string {
	out := []string{""}
	frontier := []string{""}
	for n := 0; n < maxLen; n++ {
		var next []string
		for _, w := range frontier {
			for i := 0; i < len(alpha); i++ {
				next = append(next, w+alpha[i:i+1])
			}
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

// endsWithAB is the NFA for (a|b)*ab.
func endsWithAB() *NFA {
	n := NewNFA()
	for i := 0; i < 3; i++ {
		n.AddState(State{ID: StateID(i), Accepting: i == 2})
	}
	n.Start = 0
	n.AddTransition(0, 0, 'a', false)
	n.AddTransition(0, 0, 'b', false)
	n.AddTransition(0, 1, 'a', false)
	n.AddTransition(1, 2, 'b', false)
	return n
}

// dfaFrom builds a DFA from an edge list "from sym to".
func dfaFrom(t *testing.T, n int, start StateID, accepting []StateID, edges []Transition) *DFA {
	t.Helper()
	d := NewDFA()
	acc := map[StateID]bool{}
	for _, a := range accepting {
		acc[a] = true
	}
	for i := 0; i < n; i++ {
		d.AddState(State{ID: StateID(i), Accepting: acc[StateID(i)]})
	}
	d.Start = start
	for _, e := range edges {
		if err := d.AddTransition(e.From, e.Symbol, e.To); err != nil {
			t.Fatalf("edge %v: %v", e, err)
		}
	}
	return d
}

func sameLanguage(t *testing.T, a, b *DFA, alpha string, maxLen int) {
	t.Helper()
	for _, w := range words(alpha, maxLen) {
		if Matches(a, w) != Matches(b, w) {
			t.Fatalf("automata disagree on %q: %v vs %v", w, Matches(a, w), Matches(b, w))
		}
	}
}

func checkDeterministic(t *testing.T, d *DFA) {
	t.Helper()
	seen := map[transKey]bool{}
	for _, tr := range d.Transitions() {
		if tr.Epsilon {
			t.Fatalf("epsilon edge in DFA: %v", tr)
		}
		k := transKey{tr.From, tr.Symbol}
		if seen[k] {
			t.Fatalf("two edges for (%d,%q)", tr.From, tr.Symbol)
		}
		seen[k] = true
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
}

// ------------------------------------------------------------------- model

func TestIDAllocator(t *testing.T) {
	ids := NewIDAllocator()
	for i := 0; i < 5; i++ {
		if got := ids.Next(); got != StateID(i) {
			t.Fatalf("id %d, want %d", got, i)
		}
	}
	if ids.Issued() != 5 {
		t.Fatalf("issued %d", ids.Issued())
	}
	if NewIDAllocator().Next() != 0 {
		t.Fatal("allocators share state")
	}
}

func TestDFARejectsConflictingEdge(t *testing.T) {
	d := NewDFA()
	d.AddState(State{ID: 0})
	d.AddState(State{ID: 1})
	if err := d.AddTransition(0, 'a', 1); err != nil {
		t.Fatal(err)
	}
	if err := d.AddTransition(0, 'a', 1); err != nil {
		t.Fatalf("same edge twice: %v", err)
	}
	if err := d.AddTransition(0, 'a', 0); err == nil {
		t.Fatal("nondeterministic edge accepted")
	}
}

func TestNFAValidate(t *testing.T) {
	n := endsWithAB()
	if err := n.Validate(); err != nil {
		t.Fatal(err)
	}
	n.AddTransition(2, 9, 'x', false)
	if err := n.Validate(); err == nil {
		t.Fatal("dangling edge not reported")
	}
}

func TestProject(t *testing.T) {
	cases := []struct {
		in   byte
		want rune
	}{
		{'a', 'a'}, {' ', ' '}, {'~', '~'}, {0x1F, Sentinel}, {0x7F, Sentinel}, {0xC3, Sentinel}, {0, Sentinel},
	}
	for _, c := range cases {
		if got := Project(c.in); got != c.want {
			t.Errorf("Project(%#x) = %#x, want %#x", c.in, got, c.want)
		}
	}
	if got := ProjectString("é"); len(got) != 2 || got[0] != Sentinel || got[1] != Sentinel {
		t.Fatalf("ProjectString: %v", got)
	}
	if n := len(ProjectedAlphabet()); n != 96 {
		t.Fatalf("alphabet size %d", n)
	}
}

func TestFoldASCII(t *testing.T) {
	for in, want := range map[string]string{
		"":                  "",
		"app.exe":           "app.exe",
		"APP.Exe":           "app.exe",
		"INVOICE\u212A.PDF": "invoice\u212A.pdf",
		"\u00C9T\u00C9.TXT": "\u00C9t\u00C9.txt",
	} {
		if got := FoldASCII(in); got != want {
			t.Errorf("FoldASCII(%q) = %q, want %q", in, got, want)
		}
	}
}

// ------------------------------------------------------------------- subset construction

func TestEpsilonClosure(t *testing.T) {
	n := NewNFA()
	for i := 0; i < 4; i++ {
		n.AddState(State{ID: StateID(i)})
	}
	n.Start = 0
	n.AddTransition(0, 1, 0, true)
	n.AddTransition(1, 2, 0, true)
	n.AddTransition(2, 0, 0, true)
	n.AddTransition(2, 3, 'x', false)
	got := EpsilonClosure(n, []StateID{0})
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("closure %v", got)
	}
	if mv := Move(n, got, 'x'); len(mv) != 1 || mv[0] != 3 {
		t.Fatalf("move %v", mv)
	}
}

func TestToDFAEquivalent(t *testing.T) {
	n := endsWithAB()
	d := ToDFA(n)
	checkDeterministic(t, d)
	for _, w := range words("ab", 7) {
		if got, want := d.Accepts([]rune(w)), n.Accepts([]rune(w)); got != want {
			t.Fatalf("%q: dfa %v nfa %v", w, got, want)
		}
	}
	if d.StateCount() != 3 {
		t.Fatalf("got %d states", d.StateCount())
	}
	if st, _ := d.State(d.Start); st.Label != "{0}" {
		t.Fatalf("start label %q", st.Label)
	}
}

func TestToDFAEmpty(t *testing.T) {
	if d := ToDFA(NewNFA()); d.StateCount() != 0 || d.Start != NoState {
		t.Fatalf("got %d states, start %d", d.StateCount(), d.Start)
	}
}

// ------------------------------------------------------------------- minimization

// redundant accepts (a|b)*b with five states where two would do.
func redundant(t *testing.T) *DFA {
	return dfaFrom(t, 5, 0, []StateID{1, 3}, []Transition{
		{From: 0, Symbol: 'a', To: 2}, {From: 0, Symbol: 'b', To: 1},
		{From: 1, Symbol: 'a', To: 2}, {From: 1, Symbol: 'b', To: 3},
		{From: 2, Symbol: 'a', To: 0}, {From: 2, Symbol: 'b', To: 3},
		{From: 3, Symbol: 'a', To: 0}, {From: 3, Symbol: 'b', To: 1},
		{From: 4, Symbol: 'a', To: 4}, // unreachable
	})
}

func TestMinimize(t *testing.T) {
	d := redundant(t)
	res := Minimize(d)
	if res.DFA.StateCount() != 2 {
		t.Fatalf("got %d states, want 2", res.DFA.StateCount())
	}
	checkDeterministic(t, res.DFA)
	sameLanguage(t, d, res.DFA, "ab", 8)
	if _, ok := res.StateMap[4]; ok {
		t.Fatal("unreachable state kept in StateMap")
	}
	if res.StateMap[1] != res.StateMap[3] || res.StateMap[0] != res.StateMap[2] {
		t.Fatalf("state map %v", res.StateMap)
	}
	if res.Rounds == 0 {
		t.Fatal("no refinement rounds recorded")
	}
	if res.DFA.Start != 0 {
		t.Fatal("start block not numbered first")
	}
}

func TestMinimizeIdempotent(t *testing.T) {
	once := Minimize(redundant(t)).DFA
	twice := Minimize(once)
	if twice.DFA.StateCount() != once.StateCount() || twice.Splits != 0 {
		t.Fatalf("second pass changed the automaton: %d -> %d states, %d splits",
			once.StateCount(), twice.DFA.StateCount(), twice.Splits)
	}
	sameLanguage(t, once, twice.DFA, "ab", 6)
}

func TestMinimizeDropsDeadStates(t *testing.T) {
	// 0 -a-> 1 (accept), 0 -b-> 2 where 2 loops forever
	d := dfaFrom(t, 3, 0, []StateID{1}, []Transition{
		{From: 0, Symbol: 'a', To: 1}, {From: 0, Symbol: 'b', To: 2}, {From: 2, Symbol: 'b', To: 2},
	})
	res := Minimize(d)
	if res.DFA.StateCount() != 2 || res.DFA.TransitionCount() != 1 {
		t.Fatalf("got %d states %d edges", res.DFA.StateCount(), res.DFA.TransitionCount())
	}
	sameLanguage(t, d, res.DFA, "ab", 5)
}

func TestMinimizeEmptyInputs(t *testing.T) {
	empty := NewDFA()
	if res := Minimize(empty); res.DFA != empty {
		t.Fatal("empty DFA not returned unchanged")
	}
	noAlpha := NewDFA()
	noAlpha.AddState(State{ID: 0, Accepting: true})
	noAlpha.Start = 0
	if res := Minimize(noAlpha); res.DFA != noAlpha || len(res.Partition) != 1 {
		t.Fatal("alphabet-free DFA not returned unchanged")
	}
	// accepts nothing
	rejectAll := dfaFrom(t, 2, 0, nil, []Transition{{From: 0, Symbol: 'a', To: 1}})
	res := Minimize(rejectAll)
	if res.DFA.StateCount() != 1 || res.DFA.IsAccepting(0) {
		t.Fatalf("empty language: %d states", res.DFA.StateCount())
	}
}

// ------------------------------------------------------------------- matching

func TestMatchesAndSearch(t *testing.T) {
	// search DFA for "ab": start loops on everything
	d := Minimize(ToDFA(func() *NFA {
		n := endsWithAB()
		for _, r := range ProjectedAlphabet() {
			if r != 'a' && r != 'b' {
				n.AddTransition(0, 0, r, false)
			}
		}
		return n
	}())).DFA

	cases := []struct {
		in            string
		match, search bool
		end           int
	}{
		{"ab", true, true, 2},
		{"xxab", true, true, 4},
		{"abxx", false, true, 2},
		{"a\x00b", false, false, 0},
		{"", false, false, 0},
		{"ba", false, false, 0},
	}
	for _, c := range cases {
		if got := Matches(d, c.in); got != c.match {
			t.Errorf("Matches(%q) = %v", c.in, got)
		}
		end, ok := SearchEnd(d, c.in)
		if ok != c.search || end != c.end {
			t.Errorf("SearchEnd(%q) = %d,%v", c.in, end, ok)
		}
	}
	if Matches(nil, "ab") || Search(NewDFA(), "ab") {
		t.Fatal("empty automaton matched")
	}
}

func TestMatchUndefinedSymbol(t *testing.T) {
	d := dfaFrom(t, 2, 0, []StateID{1}, []Transition{{From: 0, Symbol: Sentinel, To: 1}})
	if !Matches(d, "\xff") {
		t.Fatal("non-printable byte not projected to sentinel")
	}
	if Matches(d, "z") {
		t.Fatal("undefined symbol accepted")
	}
}

// ------------------------------------------------------------------- set operations

func TestSetOperations(t *testing.T) {
	endsB := Minimize(redundant(t)).DFA
	startsA := dfaFrom(t, 2, 0, []StateID{1}, []Transition{
		{From: 0, Symbol: 'a', To: 1}, {From: 1, Symbol: 'a', To: 1}, {From: 1, Symbol: 'b', To: 1},
	})
	inter := Intersect(endsB, startsA)
	union := Union(endsB, startsA)
	comp := Complement(endsB, []rune("ab"))
	rev := Reverse(startsA)
	all := UnionAll(endsB, startsA)
	for _, w := range words("ab", 6) {
		x, y := Matches(endsB, w), Matches(startsA, w)
		if Matches(inter, w) != (x && y) {
			t.Fatalf("intersect %q", w)
		}
		if Matches(union, w) != (x || y) || Matches(all, w) != (x || y) {
			t.Fatalf("union %q", w)
		}
		if Matches(comp, w) == x {
			t.Fatalf("complement %q", w)
		}
		reversed := []rune(w)
		for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
			reversed[i], reversed[j] = reversed[j], reversed[i]
		}
		if Matches(rev, w) != startsA.Accepts(reversed) {
			t.Fatalf("reverse %q", w)
		}
	}
	checkDeterministic(t, inter)
	checkDeterministic(t, Complete(startsA, []rune("ab")))
}

func TestCompleteAddsSinkOnlyWhenNeeded(t *testing.T) {
	total := Minimize(redundant(t)).DFA
	if c := Complete(total, nil); c.StateCount() != total.StateCount() {
		t.Fatal("sink added to total DFA")
	}
	partial := dfaFrom(t, 2, 0, []StateID{1}, []Transition{{From: 0, Symbol: 'a', To: 1}})
	c := Complete(partial, []rune("ab"))
	if c.StateCount() != 3 || c.TransitionCount() != 6 {
		t.Fatalf("got %d states %d edges", c.StateCount(), c.TransitionCount())
	}
}

// ------------------------------------------------------------------- regexp

func TestToRegexp(t *testing.T) {
	d := dfaFrom(t, 3, 0, []StateID{2}, []Transition{
		{From: 0, Symbol: 'a', To: 1}, {From: 1, Symbol: 'b', To: 2},
	})
	got, ok := ToRegexp(d)
	if !ok || got != "ab" {
		t.Fatalf("ToRegexp = %q,%v", got, ok)
	}
	if _, ok := ToRegexp(dfaFrom(t, 1, 0, nil, nil)); ok {
		t.Fatal("empty language produced an expression")
	}
	eps := dfaFrom(t, 1, 0, []StateID{0}, nil)
	if got, ok := ToRegexp(eps); !ok || got != "" {
		t.Fatalf("epsilon language: %q,%v", got, ok)
	}
	star := dfaFrom(t, 1, 0, []StateID{0}, []Transition{{From: 0, Symbol: '*', To: 0}})
	if got, ok := ToRegexp(star); !ok || !strings.Contains(got, `\*`) {
		t.Fatalf("star symbol not escaped: %q", got)
	}
}
