package automata

import "strings"

// ToRegexp turns d into an equivalent expression of the pattern dialect by
// state elimination (McNaughton-Yamada). It returns false when d accepts
// nothing. The empty string "" denotes the language {ε}.
func ToRegexp(d *DFA) (string, bool) {
	if d == nil || len(d.States) == 0 || d.Start == NoState {
		return "", false
	}
	n := len(d.States)
	pos := make(map[StateID]int, n)
	for i, s := range d.States {
		pos[s.ID] = i
	}

	// 1. direct edges, with ε on the diagonal
	r := make([][]rx, n)
	for i := range r {
		r[i] = make([]rx, n)
		r[i][i] = epsilon
	}
	for _, t := range d.Transitions() {
		i, j := pos[t.From], pos[t.To]
		r[i][j] = alt(r[i][j], literal(t.Symbol))
	}

	// 2. eliminate intermediate states one at a time
	for k := 0; k < n; k++ {
		loop := star(r[k][k])
		next := make([][]rx, n)
		for i := 0; i < n; i++ {
			next[i] = make([]rx, n)
			for j := 0; j < n; j++ {
				next[i][j] = alt(r[i][j], concat(concat(r[i][k], loop), r[k][j]))
			}
		}
		r = next
	}

	// 3. union of paths from the start to every final state
	res := none
	s := pos[d.Start]
	for _, st := range d.States {
		if st.Accepting {
			res = alt(res, r[s][pos[st.ID]])
		}
	}
	if !res.ok {
		return "", false
	}
	return res.s, true
}

// rx is a regular expression under construction. ok=false is the empty
// language; s=="" with ok is {ε}.
type rx struct {
	ok       bool
	s        string
	nullable bool
}

var (
	none    = rx{}
	epsilon = rx{ok: true, nullable: true}
)

func literal(r rune) rx { return rx{ok: true, s: escapeRune(r)} }

func alt(a, b rx) rx {
	switch {
	case !a.ok:
		return b
	case !b.ok:
		return a
	case a.s == b.s:
		return rx{ok: true, s: a.s, nullable: a.nullable || b.nullable}
	case a.s == "":
		return opt(b)
	case b.s == "":
		return opt(a)
	}
	return rx{ok: true, s: a.s + "|" + b.s, nullable: a.nullable || b.nullable}
}

func opt(a rx) rx {
	if a.nullable {
		return a
	}
	return rx{ok: true, s: group(a.s) + "?", nullable: true}
}

func concat(a, b rx) rx {
	if !a.ok || !b.ok {
		return none
	}
	return rx{ok: true, s: factor(a.s) + factor(b.s), nullable: a.nullable && b.nullable}
}

func star(a rx) rx {
	if !a.ok || a.s == "" {
		return epsilon
	}
	return rx{ok: true, s: group(a.s) + "*", nullable: true}
}

// factor parenthesizes s when a top-level alternation would bind wrongly.
func factor(s string) string {
	if hasTopLevelAlt(s) {
		return "(" + s + ")"
	}
	return s
}

// group makes s a single operand for a postfix operator.
func group(s string) string {
	if len(s) == 1 || (len(s) == 2 && s[0] == '\\') {
		return s
	}
	return "(" + s + ")"
}

func hasTopLevelAlt(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func escapeRune(r rune) string {
	if strings.ContainsRune(`*+?|()\$`, r) || r == Sentinel {
		return "\\" + string(r)
	}
	return string(r)
}
