package detect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
)

// ErrDuplicateID is returned when two patterns share an id.
var ErrDuplicateID = errors.New("duplicate pattern id")

// Source says which stage produced a verdict.
type Source int

const (
	SourceNone Source = iota
	SourceDFA
	SourceHeuristic
)

func (s Source) String() string {
	switch s {
	case SourceDFA:
		return "dfa"
	case SourceHeuristic:
		return "heuristic"
	}
	return "none"
}

// Checker is a post-processing stage consulted only when no automaton
// matched. It returns the name of the rule that fired.
type Checker interface {
	Check(filename string) (rule string, ok bool)
}

// Options configures a Detector.
type Options struct {
	// FoldCase lower-cases the ASCII letters of inputs before matching.
	FoldCase bool
	// Heuristics is optional; nil disables the heuristic stage.
	Heuristics Checker
	Logger     *slog.Logger
}

// Verdict is the outcome for one filename.
type Verdict struct {
	Filename   string
	Suspicious bool
	Pattern    PatternID
	Name       string
	Severity   Severity
	Source     Source
	// Rule names the heuristic that fired when Source is SourceHeuristic.
	Rule string
}

// Compiled is a pattern together with its automata.
type Compiled struct {
	Pattern
	Regex *regexlib.Regex
}

// GroupStats compares the separate automata with the grouped one.
type GroupStats struct {
	Patterns     int
	StatesBefore int
	StatesAfter  int
}

// Detector holds immutable minimized automata and may be shared by
// concurrent callers.
type Detector struct {
	compiled []Compiled
	grouped  *automata.DFA
	stats    GroupStats
	opts     Options
	logger   *slog.Logger
}

// New compiles every pattern with substring semantics. A pattern that fails
// to compile is skipped; New then returns a usable detector together with
// the joined errors of every skipped pattern.
func New(patterns []Pattern, opts Options) (*Detector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{opts: opts, logger: logger}

	var errs []error
	seen := make(map[PatternID]bool, len(patterns))
	var dfas []*automata.DFA
	for _, p := range patterns {
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("pattern %s: %w", p.Name, ErrDuplicateID))
			continue
		}
		seen[p.ID] = true
		re, err := regexlib.NewSearch(p.Expr)
		if err != nil {
			logger.Warn("pattern skipped", "pattern", p.Name, "error", err)
			errs = append(errs, fmt.Errorf("pattern %s: %w", p.Name, err))
			continue
		}
		d.compiled = append(d.compiled, Compiled{Pattern: p, Regex: re})
		dfas = append(dfas, re.DFA())
		d.stats.StatesBefore += re.DFA().StateCount()
	}
	d.stats.Patterns = len(d.compiled)
	if len(dfas) > 0 {
		d.grouped = automata.UnionAll(dfas...)
		d.stats.StatesAfter = d.grouped.StateCount()
	}
	logger.Info("detector built",
		"patterns", d.stats.Patterns,
		"states_before", d.stats.StatesBefore,
		"states_grouped", d.stats.StatesAfter,
		"heuristics", opts.Heuristics != nil,
	)
	return d, errors.Join(errs...)
}

// MustNew is New that panics on any pattern error.
func MustNew(patterns []Pattern, opts Options) *Detector {
	d, err := New(patterns, opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Patterns returns the compiled patterns in detection order.
func (d *Detector) Patterns() []Compiled { return append([]Compiled(nil), d.compiled...) }

// Grouped returns the minimized union of every pattern automaton.
func (d *Detector) Grouped() *automata.DFA { return d.grouped }

// Stats reports automaton sizes before and after grouping.
func (d *Detector) Stats() GroupStats { return d.stats }

// Match tries the pattern automata in order and returns the first match.
// The grouped automaton screens the input first, so clean names cost one
// pass.
func (d *Detector) Match(filename string) (Compiled, bool) {
	in := d.normalize(filename)
	if d.grouped == nil || !automata.Search(d.grouped, in) {
		return Compiled{}, false
	}
	for _, c := range d.compiled {
		if automata.Search(c.Regex.DFA(), in) {
			return c, true
		}
	}
	return Compiled{}, false
}

// Detect classifies one filename: automata first, then heuristics.
func (d *Detector) Detect(filename string) Verdict {
	v := Verdict{Filename: filename}
	if c, ok := d.Match(filename); ok {
		v.Suspicious = true
		v.Pattern = c.ID
		v.Name = c.Name
		v.Severity = c.Severity
		v.Source = SourceDFA
		return v
	}
	if d.opts.Heuristics != nil {
		if rule, ok := d.opts.Heuristics.Check(d.normalize(filename)); ok {
			v.Suspicious = true
			v.Name = rule
			v.Rule = rule
			v.Severity = Low
			v.Source = SourceHeuristic
		}
	}
	return v
}

// Scan runs Detect over names.
func (d *Detector) Scan(names []string) []Verdict {
	out := make([]Verdict, len(names))
	for i, n := range names {
		out[i] = d.Detect(n)
	}
	d.logger.Debug("scan finished", "files", len(names))
	return out
}

func (d *Detector) normalize(s string) string {
	if d.opts.FoldCase {
		return automata.FoldASCII(s)
	}
	return s
}
