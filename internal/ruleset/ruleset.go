// Package ruleset reads rule files that declare the named patterns and the
// heuristics of a detector:
//
//	// comment
//	pattern executable = "exe" severity high;
//	heuristic double_extension dots 2;
//	heuristic mimic keyword "update" "setup" requires ".exe" ".msi";
//
// Patterns keep their declaration order, which is the detection order.
package ruleset

import (
	"errors"
	"fmt"
	"os"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/heuristic"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/regexlib"
)

var (
	ErrSyntax           = errors.New("rule file syntax error")
	ErrDuplicatePattern = errors.New("duplicate pattern name")
	ErrDuplicateRule    = errors.New("duplicate heuristic name")
	ErrInvalidRule      = errors.New("invalid rule")
)

// Ruleset is a validated rule file.
type Ruleset struct {
	Name       string
	Patterns   []detect.Pattern
	Heuristics []heuristic.Rule
}

// Default is the built-in catalog with the default heuristics.
func Default() *Ruleset {
	return &Ruleset{Name: "builtin", Patterns: detect.DefaultPatterns(), Heuristics: heuristic.Defaults()}
}

// Load reads and parses the rule file at path.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(data))
}

// Parse parses and validates src. Every pattern is compiled so that a
// malformed expression is reported with its declaration.
func Parse(name, src string) (*Ruleset, error) {
	f, err := parse(name, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	rs := &Ruleset{Name: name}
	var errs []error
	patterns := map[string]bool{}
	rules := map[string]bool{}
	next := detect.FirstCustom
	for _, e := range f.Entries {
		switch {
		case e.Pattern != nil:
			p, err := toPattern(e.Pattern, &next)
			if err == nil && patterns[p.Name] {
				err = fmt.Errorf("%s: %w: %s", e.Pattern.Pos, ErrDuplicatePattern, p.Name)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			patterns[p.Name] = true
			rs.Patterns = append(rs.Patterns, p)
		case e.Heuristic != nil:
			r, err := toRule(e.Heuristic)
			if err == nil && rules[r.Name] {
				err = fmt.Errorf("%s: %w: %s", e.Heuristic.Pos, ErrDuplicateRule, r.Name)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			rules[r.Name] = true
			rs.Heuristics = append(rs.Heuristics, r)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rs, nil
}

func toPattern(d *PatternDecl, next *detect.PatternID) (detect.Pattern, error) {
	p := detect.Pattern{Name: d.Name, Expr: d.Expr, Severity: detect.Low}
	if d.Severity != nil {
		sev, err := detect.ParseSeverity(*d.Severity)
		if err != nil {
			return p, fmt.Errorf("%s: %w: %v", d.Pos, ErrInvalidRule, err)
		}
		p.Severity = sev
	}
	if _, err := regexlib.Compile(d.Expr); err != nil {
		return p, fmt.Errorf("%s: pattern %s: %w", d.Pos, d.Name, err)
	}
	if id, ok := detect.Builtin(d.Name); ok {
		p.ID = id
	} else {
		p.ID = *next
		*next++
	}
	return p, nil
}

func toRule(d *HeuristicDecl) (heuristic.Rule, error) {
	kind, err := heuristic.ParseKind(d.Kind)
	if err != nil {
		return heuristic.Rule{}, fmt.Errorf("%s: %w: %s: %v", d.Pos, ErrInvalidRule, d.Name, err)
	}
	r := heuristic.Rule{Name: d.Name, Kind: kind, Words: d.Words, Requires: d.Requires}
	if d.N != nil {
		r.N = *d.N
	}
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%s: %w: %s: %s", d.Pos, ErrInvalidRule, d.Name, fmt.Sprintf(format, args...))
	}
	switch kind {
	case heuristic.Extension, heuristic.Keyword:
		if d.N != nil {
			return r, bad("%s takes no count", kind)
		}
		if len(d.Words) == 0 {
			return r, bad("%s needs at least one string", kind)
		}
	case heuristic.Dots, heuristic.Spaces:
		if d.N == nil || *d.N < 1 {
			return r, bad("%s needs a positive count", kind)
		}
		if len(d.Words) > 0 {
			return r, bad("%s takes no strings", kind)
		}
	case heuristic.NonASCII:
		if d.N != nil || len(d.Words) > 0 {
			return r, bad("nonascii takes no arguments")
		}
	}
	if len(d.Requires) > 0 && kind != heuristic.Keyword {
		return r, bad("requires only applies to keyword rules")
	}
	return r, nil
}

// HeuristicSet compiles the heuristics; nil when the file declares none.
func (r *Ruleset) HeuristicSet() (*heuristic.Set, error) {
	if len(r.Heuristics) == 0 {
		return nil, nil
	}
	return heuristic.New(r.Heuristics)
}

// Detector builds a detector from the patterns and heuristics. Heuristics
// in opts are replaced by the ruleset's own.
func (r *Ruleset) Detector(opts detect.Options) (*detect.Detector, error) {
	set, err := r.HeuristicSet()
	if err != nil {
		return nil, err
	}
	opts.Heuristics = nil
	if set != nil {
		opts.Heuristics = set
	}
	return detect.New(r.Patterns, opts)
}
