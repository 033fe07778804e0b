// Package tracelex turns textual packet traces such as "SYN -> SYN-ACK -> ACK"
// or "syn,synack,ack" into the token sequences the handshake validator reads.
package tracelex

import (
	"fmt"
	"strings"
	"sync"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Kind classifies a lexed token.
type Kind int

const (
	Packet  Kind = iota // a known packet name, canonicalized
	Word                // any other word, kept verbatim; hyphens split words
	Invalid             // bytes no rule accepts
)

func (k Kind) String() string {
	switch k {
	case Packet:
		return "packet"
	case Word:
		return "word"
	}
	return "invalid"
}

// InvalidText replaces unlexable input in token sequences.
const InvalidText = "?"

// Token is one lexed item with its position.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// Tokenizer wraps a compiled lexer. It is safe for concurrent use: every
// Scan gets its own scanner.
type Tokenizer struct {
	lexer *lexmachine.Lexer
}

var packets = map[string]string{
	"syn":     "SYN",
	"syn-ack": "SYN-ACK",
	"ack":     "ACK",
	"data":    "DATA",
	"fin":     "FIN",
	"rst":     "RST",
}

// New compiles the trace lexer.
func New() (*Tokenizer, error) {
	l := lexmachine.NewLexer()
	l.Add([]byte(`[ \t\n\r]+`), skip)
	l.Add([]byte(`//[^\n]*`), skip)
	l.Add([]byte(`#[^\n]*`), skip)
	l.Add([]byte(`->|=>|-|,|;|[|]|"|'|[\[]|[]]`), skip)
	l.Add([]byte(`[Ss][Yy][Nn](-|_)?[Aa][Cc][Kk]`), packet("SYN-ACK"))
	for name, canon := range packets {
		if name == "syn-ack" {
			continue
		}
		l.Add([]byte(caseless(name)), packet(canon))
	}
	l.Add([]byte(`[A-Za-z0-9_]+`), word)
	if err := l.Compile(); err != nil {
		return nil, err
	}
	return &Tokenizer{lexer: l}, nil
}

// caseless builds a regex matching s in any letter case.
func caseless(s string) string {
	var b strings.Builder
	for _, r := range s {
		lo, up := strings.ToLower(string(r)), strings.ToUpper(string(r))
		if lo == up {
			b.WriteRune(r)
			continue
		}
		b.WriteString("[" + lo + up + "]")
	}
	return b.String()
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func packet(canon string) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return Token{Kind: Packet, Text: canon, Line: m.StartLine, Column: m.StartColumn}, nil
	}
}

func word(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return Token{Kind: Word, Text: string(m.Bytes), Line: m.StartLine, Column: m.StartColumn}, nil
}

// Scan lexes text. Unlexable bytes become Invalid tokens rather than
// errors, so a bad trace is rejected by the validator instead of dropped.
func (t *Tokenizer) Scan(text string) ([]Token, error) {
	input := []byte(text)
	scanner, err := t.lexer.Scanner(input)
	if err != nil {
		return nil, err
	}
	var out []Token
	for tok, err, eof := scanner.Next(); !eof; tok, err, eof = scanner.Next() {
		if ui, ok := err.(*machines.UnconsumedInput); ok {
			end := ui.FailTC
			if end <= ui.StartTC {
				end = ui.StartTC + 1
			}
			out = append(out, Token{Kind: Invalid, Text: string(input[ui.StartTC:end]), Line: ui.StartLine, Column: ui.StartColumn})
			scanner.TC = end
			continue
		} else if err != nil {
			return nil, fmt.Errorf("tracelex: %w", err)
		}
		out = append(out, tok.(Token))
	}
	return out, nil
}

// Tokenize returns the token texts of text, with Invalid tokens replaced by
// InvalidText.
func (t *Tokenizer) Tokenize(text string) ([]string, error) {
	toks, err := t.Scan(text)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(toks))
	for i, tok := range toks {
		if tok.Kind == Invalid {
			out[i] = InvalidText
			continue
		}
		out[i] = tok.Text
	}
	return out, nil
}

var defaultTokenizer = sync.OnceValues(New)

// Tokenize uses a shared default Tokenizer.
func Tokenize(text string) ([]string, error) {
	t, err := defaultTokenizer()
	if err != nil {
		return nil, err
	}
	return t.Tokenize(text)
}
