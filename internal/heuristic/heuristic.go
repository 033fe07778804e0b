// Package heuristic holds the filename checks that the pattern automata
// cannot express: extension lists, non-ASCII bytes, dot and space counts,
// and keywords gated on an extension. They run after the automata and are
// always reported under their own rule name.
package heuristic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
)

// ErrInvalidRule is wrapped by every rule validation failure.
var ErrInvalidRule = errors.New("invalid heuristic rule")

// Kind selects what a rule checks.
type Kind int

const (
	Extension Kind = iota
	NonASCII
	Dots
	Spaces
	Keyword
)

var kindNames = [...]string{"extension", "nonascii", "dots", "spaces", "keyword"}

func (k Kind) String() string {
	if k < Extension || k > Keyword {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a rule-file keyword to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, s)
}

// Rule is one heuristic.
type Rule struct {
	Name string
	Kind Kind
	// Words are the extensions for Extension and the keywords for Keyword.
	Words []string
	// Requires gates a Keyword rule on the name ending in one of these.
	Requires []string
	// N is the threshold for Dots and Spaces.
	N int
}

// end marks the end of a name so that extension lists only match suffixes.
const end = "\x00"

type compiled struct {
	Rule
	words    *ahocorasick.Automaton
	requires *ahocorasick.Automaton
	run      string
}

// Set evaluates rules in order; the first that fires wins. A Set is
// immutable and safe for concurrent use.
type Set struct {
	rules []compiled
}

// New validates and compiles rules.
func New(rules []Rule) (*Set, error) {
	s := &Set{}
	for _, r := range rules {
		c, err := compile(r)
		if err != nil {
			return nil, err
		}
		s.rules = append(s.rules, c)
	}
	return s, nil
}

func compile(r Rule) (compiled, error) {
	c := compiled{Rule: r}
	if r.Name == "" {
		return c, fmt.Errorf("%w: rule without name", ErrInvalidRule)
	}
	var err error
	switch r.Kind {
	case Extension:
		if len(r.Words) == 0 {
			return c, fmt.Errorf("%w: %s: no extensions", ErrInvalidRule, r.Name)
		}
		c.words, err = build(r.Words, end)
	case Keyword:
		if len(r.Words) == 0 {
			return c, fmt.Errorf("%w: %s: no keywords", ErrInvalidRule, r.Name)
		}
		c.words, err = build(r.Words, "")
		if err == nil && len(r.Requires) > 0 {
			c.requires, err = build(r.Requires, end)
		}
	case Dots, Spaces:
		if r.N < 1 {
			return c, fmt.Errorf("%w: %s: threshold must be positive", ErrInvalidRule, r.Name)
		}
		c.run = strings.Repeat(" ", r.N)
	case NonASCII:
	default:
		return c, fmt.Errorf("%w: %s: unknown kind %d", ErrInvalidRule, r.Name, r.Kind)
	}
	if err != nil {
		return c, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Name, err)
	}
	return c, nil
}

func build(words []string, suffix string) (*ahocorasick.Automaton, error) {
	b := ahocorasick.NewBuilder()
	for _, w := range words {
		if w == "" {
			return nil, errors.New("empty word")
		}
		b.AddPattern([]byte(automata.FoldASCII(w) + suffix))
	}
	return b.Build()
}

// Rules returns the rules in evaluation order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, c := range s.rules {
		out[i] = c.Rule
	}
	return out
}

// Check returns the name of the first rule that fires on filename. Only
// ASCII letters are folded, so non-ASCII bytes reach every rule unchanged.
func (s *Set) Check(filename string) (string, bool) {
	name := automata.FoldASCII(filename)
	terminated := []byte(name + end)
	for _, c := range s.rules {
		if c.fires(name, terminated) {
			return c.Name, true
		}
	}
	return "", false
}

func (c *compiled) fires(name string, terminated []byte) bool {
	switch c.Kind {
	case Extension:
		return c.words.IsMatch(terminated)
	case NonASCII:
		for i := 0; i < len(name); i++ {
			if name[i] > 0x7F {
				return true
			}
		}
		return false
	case Dots:
		return strings.Count(name, ".") >= c.N
	case Spaces:
		return strings.Contains(name, c.run)
	case Keyword:
		if !c.words.IsMatch([]byte(name)) {
			return false
		}
		return c.requires == nil || c.requires.IsMatch(terminated)
	}
	return false
}

// Defaults is the heuristic set applied when no rule file is given.
func Defaults() []Rule {
	return []Rule{
		{Name: "suspicious_extension", Kind: Extension, Words: []string{
			".exe", ".scr", ".bat", ".com", ".vbs", ".vbe", ".js", ".jse", ".pif", ".lnk", ".hta", ".iso",
			".img", ".msi", ".ps1", ".jar", ".dll", ".cpl", ".inf", ".reg", ".url", ".cmd", ".wsf", ".wsh",
		}},
		{Name: "unicode_trick", Kind: NonASCII},
		{Name: "double_extension", Kind: Dots, N: 2},
		{Name: "whitespace_padding", Kind: Spaces, N: 2},
		{Name: "mimic_legitimate", Kind: Keyword,
			Words:    []string{"update", "patch", "installer", "setup", "install", "crack", "keygen", "activator", "loader"},
			Requires: []string{".iso", ".img", ".msi", ".exe"},
		},
	}
}
