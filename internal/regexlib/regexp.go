package regexlib

import (
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
)

/* ----------- Compilation ----------- */

// Compile builds a Thompson NFA for pattern with a private id allocator.
func Compile(pattern string) (*automata.NFA, error) {
	return CompileWith(automata.NewIDAllocator(), pattern)
}

// CompileWith builds a Thompson NFA drawing state ids from ids. The empty
// pattern yields a single accepting state (matches only "").
func CompileWith(ids *automata.IDAllocator, pattern string) (*automata.NFA, error) {
	b := &builder{ids: ids}
	fr, empty, err := b.parse(pattern)
	if err != nil {
		return nil, err
	}
	if empty {
		s := b.newState()
		return b.finish(s, []automata.StateID{s}), nil
	}
	return b.finish(fr.start, fr.accepts), nil
}

// CompileSearch builds an unanchored NFA: a start state looping on every
// projected symbol precedes the pattern, so the automaton reaches an
// accepting state as soon as the pattern has occurred anywhere in the input.
func CompileSearch(pattern string) (*automata.NFA, error) {
	b := &builder{ids: automata.NewIDAllocator()}
	fr, empty, err := b.parse(pattern)
	if err != nil {
		return nil, err
	}
	if empty {
		fr = b.empty()
	}
	loop := b.newState()
	for _, r := range automata.ProjectedAlphabet() {
		b.edge(loop, loop, r)
	}
	b.epsilon(loop, fr.start)
	return b.finish(loop, fr.accepts), nil
}

func (b *builder) parse(pattern string) (nfaFrag, bool, error) {
	toks, err := newLexer(pattern).tokens()
	if err != nil {
		return nfaFrag{}, false, err
	}
	if len(toks) == 0 {
		return nfaFrag{}, true, nil
	}
	if err := checkGroups(pattern, toks); err != nil {
		return nfaFrag{}, false, err
	}
	postfix, err := toPostfix(pattern, insertConcat(toks))
	if err != nil {
		return nfaFrag{}, false, err
	}
	fr, err := b.evalPostfix(pattern, postfix)
	if err != nil {
		return nfaFrag{}, false, err
	}
	return fr, false, nil
}

/* ----------- Full pipeline ----------- */

// Regex keeps every stage of one compiled pattern.
type Regex struct {
	pattern string
	search  bool
	nfa     *automata.NFA
	rawDFA  *automata.DFA
	min     automata.MinimizeResult
}

// Stats summarizes automaton sizes along the pipeline.
type Stats struct {
	NFAStates      int
	NFATransitions int
	DFAStates      int
	MinStates      int
	MinTransitions int
	Rounds         int
	Splits         int
	AlphabetSize   int
}

// New compiles pattern with full-match semantics: regex -> NFA -> DFA ->
// minimized DFA.
func New(pattern string) (*Regex, error) {
	nfa, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return build(pattern, false, nfa), nil
}

// NewSearch compiles pattern with substring semantics.
func NewSearch(pattern string) (*Regex, error) {
	nfa, err := CompileSearch(pattern)
	if err != nil {
		return nil, err
	}
	return build(pattern, true, nfa), nil
}

// MustCompile is New that panics on error.
func MustCompile(pattern string) *Regex {
	r, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

func build(pattern string, search bool, nfa *automata.NFA) *Regex {
	raw := automata.ToDFA(nfa)
	return &Regex{
		pattern: pattern,
		search:  search,
		nfa:     nfa,
		rawDFA:  raw,
		min:     automata.Minimize(raw),
	}
}

// Match runs the minimized DFA: whole-input for New, anywhere for NewSearch.
func (r *Regex) Match(s string) bool {
	if r.search {
		return automata.Search(r.min.DFA, s)
	}
	return automata.Matches(r.min.DFA, s)
}

/* ----------- Accessors ----------- */

func (r *Regex) Pattern() string { return r.pattern }
func (r *Regex) IsSearch() bool { return r.search }
func (r *Regex) NFA() *automata.NFA { return r.nfa }
func (r *Regex) RawDFA() *automata.DFA { return r.rawDFA }
func (r *Regex) DFA() *automata.DFA { return r.min.DFA }
func (r *Regex) Minimized() automata.MinimizeResult { return r.min }

// Stats reports sizes at every stage.
func (r *Regex) Stats() Stats {
	return Stats{
		NFAStates:      r.nfa.StateCount(),
		NFATransitions: len(r.nfa.Transitions),
		DFAStates:      r.rawDFA.StateCount(),
		MinStates:      r.min.DFA.StateCount(),
		MinTransitions: r.min.DFA.TransitionCount(),
		Rounds:         r.min.Rounds,
		Splits:         r.min.Splits,
		AlphabetSize:   len(r.rawDFA.Alphabet),
	}
}
