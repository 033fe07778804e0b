package regexlib

import (
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
)

type tokenType int

const (
	tEOF    tokenType = iota
	tChar             // literal
	tLParen           // (
	tRParen           // )
	tStar             // *
	tPlus             // +
	tQMark            // ?
	tUnion            // |
	tConcat           // inserted between adjacent operands
)

func (t tokenType) String() string {
	switch t {
	case tEOF:
		return "end of pattern"
	case tChar:
		return "literal"
	case tLParen:
		return "("
	case tRParen:
		return ")"
	case tStar:
		return "*"
	case tPlus:
		return "+"
	case tQMark:
		return "?"
	case tUnion:
		return "|"
	case tConcat:
		return "concatenation"
	}
	return "unknown"
}

type token struct {
	typ tokenType
	ch  rune // for tChar
	pos int
}

type lexer struct {
	input string
	pos   int
}

func newLexer(s string) *lexer { return &lexer{input: s} }

// next returns the following token. `$` is accepted and dropped; `\x`
// makes x literal. Unescaped bytes outside printable ASCII are rejected.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && l.input[l.pos] == '$' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{typ: tEOF, pos: l.pos}, nil
	}
	start := l.pos
	b := l.input[l.pos]
	l.pos++
	switch b {
	case '(':
		return token{typ: tLParen, pos: start}, nil
	case ')':
		return token{typ: tRParen, pos: start}, nil
	case '*':
		return token{typ: tStar, pos: start}, nil
	case '+':
		return token{typ: tPlus, pos: start}, nil
	case '?':
		return token{typ: tQMark, pos: start}, nil
	case '|':
		return token{typ: tUnion, pos: start}, nil
	case '\\':
		if l.pos >= len(l.input) {
			// trailing backslash is a literal
			return token{typ: tChar, ch: '\\', pos: start}, nil
		}
		e := l.input[l.pos]
		l.pos++
		return token{typ: tChar, ch: automata.Project(e), pos: start}, nil
	}
	if !automata.IsPrintable(rune(b)) {
		return token{}, syntaxErr(l.input, start, "byte 0x%02x is not printable ASCII", b)
	}
	return token{typ: tChar, ch: rune(b), pos: start}, nil
}

// tokens lexes the whole pattern, EOF excluded.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.typ == tEOF {
			return out, nil
		}
		out = append(out, tok)
	}
}
