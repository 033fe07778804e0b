// Package codegen emits standalone Go matchers from minimized DFAs: one
// transition table and one Match function per automaton.
package codegen

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
)

// ErrBadEntry is returned for unusable or clashing entry names.
var ErrBadEntry = errors.New("codegen: bad entry")

// Entry is one automaton to emit.
type Entry struct {
	Name    string // turned into MatchName
	Pattern string // documentation only
	DFA     *automata.DFA
	// Search makes the matcher succeed as soon as an accepting state is
	// entered, like automata.Search. Otherwise the whole input must match.
	Search bool
	// FoldCase lowercases ASCII letters before each step, matching a
	// detector built with FoldCase.
	FoldCase bool
}

// Entries turns detector patterns into entries. foldCase must match the
// detector's option, since its automata only know lowercase letters.
func Entries(patterns []detect.Compiled, foldCase bool) []Entry {
	out := make([]Entry, 0, len(patterns))
	for _, c := range patterns {
		out = append(out, Entry{
			Name:     c.Name,
			Pattern:  c.Expr,
			DFA:      c.Regex.DFA(),
			Search:   c.Regex.IsSearch(),
			FoldCase: foldCase,
		})
	}
	return out
}

// Exported turns "batch_file" into "BatchFile".
func Exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// Generate writes a Go source file for package pkg to w.
func Generate(w io.Writer, pkg string, entries []Entry) error {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by automata gen. DO NOT EDIT.")

	f.Comment("symbol maps bytes outside printable ASCII to the 0x1A sentinel.")
	f.Func().Id("symbol").Params(jen.Id("c").Byte()).Byte().Block(
		jen.If(jen.Id("c").Op("<").Lit(int(automata.FirstPrintable)).Op("||").Id("c").Op(">").Lit(int(automata.LastPrintable))).Block(
			jen.Return(jen.Lit(int(automata.Sentinel))),
		),
		jen.Return(jen.Id("c")),
	)

	for _, e := range entries {
		if e.FoldCase {
			f.Comment("foldSymbol lowercases ASCII letters, then maps like symbol.")
			f.Func().Id("foldSymbol").Params(jen.Id("c").Byte()).Byte().Block(
				jen.If(jen.Id("c").Op(">=").LitRune('A').Op("&&").Id("c").Op("<=").LitRune('Z')).Block(
					jen.Id("c").Op("+=").LitRune('a').Op("-").LitRune('A'),
				),
				jen.Return(jen.Id("symbol").Call(jen.Id("c"))),
			)
			break
		}
	}

	seen := map[string]bool{}
	for _, e := range entries {
		name := Exported(e.Name)
		if !validIdent(name) {
			return fmt.Errorf("%w: %q is not a Go identifier", ErrBadEntry, e.Name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate name %q", ErrBadEntry, name)
		}
		seen[name] = true
		if e.DFA == nil {
			return fmt.Errorf("%w: %q has no automaton", ErrBadEntry, e.Name)
		}
		emit(f, name, e)
	}
	return f.Render(w)
}

func emit(f *jen.File, name string, e Entry) {
	d := e.DFA
	fn := "Match" + name
	doc := fmt.Sprintf("%s reports whether s is accepted by %q.", fn, e.Pattern)
	if e.Search {
		doc = fmt.Sprintf("%s reports whether %q occurs in s.", fn, e.Pattern)
	}
	symbol := "symbol"
	if e.FoldCase {
		symbol = "foldSymbol"
		doc += " ASCII letters match in either case."
	}

	if len(d.States) == 0 || d.Start == automata.NoState {
		f.Comment(doc)
		f.Func().Id(fn).Params(jen.String()).Bool().Block(jen.Return(jen.False()))
		return
	}

	index := make(map[automata.StateID]int, len(d.States))
	for i, s := range d.States {
		index[s.ID] = i
	}
	alpha := d.SortedAlphabet()

	table := strings.ToLower(name[:1]) + name[1:] + "Table"
	accept := strings.ToLower(name[:1]) + name[1:] + "Accept"

	rows := make([]jen.Code, len(d.States))
	finals := jen.Dict{}
	for i, s := range d.States {
		row := jen.Dict{}
		for _, c := range alpha {
			if to, ok := d.Next(s.ID, c); ok {
				row[jen.LitRune(c)] = jen.Lit(index[to] + 1)
			}
		}
		rows[i] = jen.Values(row)
		if d.Accepting[s.ID] {
			finals[jen.Lit(i)] = jen.True()
		}
	}

	f.Comment(table + " holds the next state plus one; 0 means no move.")
	f.Var().Id(table).Op("=").Index(jen.Lit(len(d.States))).Index(jen.Lit(128)).Int().Values(rows...)
	f.Var().Id(accept).Op("=").Index(jen.Lit(len(d.States))).Bool().Values(finals)

	step := []jen.Code{
		jen.Id("next").Op(":=").Id(table).Index(jen.Id("state")).Index(jen.Id(symbol).Call(jen.Id("s").Index(jen.Id("i")))),
		jen.If(jen.Id("next").Op("==").Lit(0)).Block(jen.Return(jen.False())),
		jen.Id("state").Op("=").Id("next").Op("-").Lit(1),
	}
	body := []jen.Code{jen.Id("state").Op(":=").Lit(index[d.Start])}
	if e.Search {
		step = append(step, jen.If(jen.Id(accept).Index(jen.Id("state"))).Block(jen.Return(jen.True())))
		body = append(body, jen.If(jen.Id(accept).Index(jen.Id("state"))).Block(jen.Return(jen.True())))
	}
	body = append(body,
		jen.For(jen.Id("i").Op(":=").Lit(0), jen.Id("i").Op("<").Len(jen.Id("s")), jen.Id("i").Op("++")).Block(step...),
	)
	if e.Search {
		body = append(body, jen.Return(jen.False()))
	} else {
		body = append(body, jen.Return(jen.Id(accept).Index(jen.Id("state"))))
	}

	f.Comment(doc)
	f.Func().Id(fn).Params(jen.Id("s").String()).Bool().Block(body...)
}
