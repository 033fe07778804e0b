// Package pda validates TCP handshake packet sequences with a pushdown
// automaton. The Machine is the fixed topology and may be shared; every
// validation runs on its own Run, which holds the current state and stack.
package pda

import (
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
)

// State is a PDA control state.
type State int

const (
	Start State = iota
	SynReceived
	SynAckReceived
	Accept
	Error
)

var stateNames = [...]string{"START", "SYN_RECEIVED", "SYNACK_RECEIVED", "ACCEPT", "ERROR"}

func (s State) String() string {
	if s < Start || s > Error {
		return "INVALID"
	}
	return stateNames[s]
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool { return s >= Start && s <= Error }

// Symbol is a stack symbol.
type Symbol int

const (
	Bottom Symbol = iota
	SymSYN
	SymSYNACK
	// Any matches every stack top in a rule.
	Any Symbol = -1
)

func (s Symbol) String() string {
	switch s {
	case Bottom:
		return "BOTTOM"
	case SymSYN:
		return "SYN"
	case SymSYNACK:
		return "SYN-ACK"
	case Any:
		return "*"
	}
	return "?"
}

// Token is an input packet type.
type Token int

const (
	Unknown Token = iota
	SYN
	SYNACK
	ACK
	DATA
	FIN
	RST
)

var tokenNames = [...]string{"UNKNOWN", "SYN", "SYN-ACK", "ACK", "DATA", "FIN", "RST"}

func (t Token) String() string {
	if t < Unknown || t > RST {
		return "UNKNOWN"
	}
	return tokenNames[t]
}

// ParseToken maps a packet name to its Token; anything else is Unknown.
func ParseToken(s string) Token {
	for i, name := range tokenNames[1:] {
		if s == name {
			return Token(i + 1)
		}
	}
	return Unknown
}

// Tokens lists every recognized token.
func Tokens() []Token { return []Token{SYN, SYNACK, ACK, DATA, FIN, RST} }

// Rule is one row of the transition table.
type Rule struct {
	From  State
	Token Token
	Top   Symbol // Any when the stack top does not matter
	Pop   []Symbol
	Push  []Symbol
	To    State
	Op    string
}

// rules is the handshake table. A (state, token, top) combination with no
// row, and RST in any state, leads to Error.
var rules = []Rule{
	{From: Start, Token: SYN, Top: Any, Push: []Symbol{SymSYN}, To: SynReceived, Op: "PUSH(SYN)"},
	{From: SynReceived, Token: SYNACK, Top: SymSYN, Push: []Symbol{SymSYNACK}, To: SynAckReceived, Op: "PUSH(SYN-ACK)"},
	{From: SynAckReceived, Token: ACK, Top: SymSYNACK, Pop: []Symbol{SymSYNACK, SymSYN}, To: Accept, Op: "POP(SYN-ACK), POP(SYN)"},
	{From: Accept, Token: DATA, Top: Any, To: Accept, Op: "ACCEPT DATA"},
	{From: Accept, Token: ACK, Top: Any, To: Accept, Op: "ACCEPT ACK"},
	{From: Accept, Token: FIN, Top: Any, To: Accept, Op: "ACCEPT FIN"},
	{From: Accept, Token: SYN, Top: Any, Push: []Symbol{SymSYN}, To: SynReceived, Op: "NEW HANDSHAKE: PUSH(SYN)"},
}

// Machine is the immutable PDA topology.
type Machine struct {
	states    []automata.State
	start     State
	accepting map[State]bool
	rules     []Rule
}

// New builds the handshake PDA.
func New() *Machine {
	return &Machine{
		states: []automata.State{
			{ID: automata.StateID(Start), Label: "q0_start"},
			{ID: automata.StateID(SynReceived), Label: "q1_syn_recv"},
			{ID: automata.StateID(SynAckReceived), Label: "q2_synack_recv"},
			{ID: automata.StateID(Accept), Accepting: true, Label: "q3_accept"},
			{ID: automata.StateID(Error), Label: "q_error"},
		},
		start:     Start,
		accepting: map[State]bool{Accept: true},
		rules:     rules,
	}
}

// States returns the declared states.
func (m *Machine) States() []automata.State { return append([]automata.State(nil), m.states...) }

// Rules returns the transition table.
func (m *Machine) Rules() []Rule { return append([]Rule(nil), m.rules...) }

// StartState returns the initial control state.
func (m *Machine) StartState() State { return m.start }

// IsAccepting reports whether s is accepting.
func (m *Machine) IsAccepting(s State) bool { return m.accepting[s] }

func (m *Machine) lookup(from State, tok Token, top Symbol) (Rule, bool) {
	for _, r := range m.rules {
		if r.From == from && r.Token == tok && (r.Top == Any || r.Top == top) {
			return r, true
		}
	}
	return Rule{}, false
}

// NewRun returns a run positioned at the start state with an empty stack.
func (m *Machine) NewRun() *Run {
	r := &Run{m: m}
	r.Reset()
	return r
}

// Validate reports whether tokens form an accepted sequence. It uses a
// private run, so a Machine may serve concurrent callers.
func (m *Machine) Validate(tokens []string) bool {
	return m.NewRun().Validate(tokens)
}

// Result is the outcome of one validation.
type Result struct {
	Accepted bool
	Final    State
	Depth    int // stack depth at the end, BOTTOM excluded
	MaxDepth int
	Consumed int // tokens processed before stopping
}

// Evaluate validates tokens and reports details for metrics.
func (m *Machine) Evaluate(tokens []string) Result {
	r := m.NewRun()
	r.Validate(tokens)
	return r.Result()
}

// Trace records every step of a validation. Tracing never changes the
// outcome of Validate for the same input.
func (m *Machine) Trace(tokens []string) []Step {
	r := m.NewRun()
	steps := make([]Step, 0, len(tokens))
	for _, tok := range tokens {
		st := r.Step(tok)
		steps = append(steps, st)
		if st.After == Error {
			break
		}
	}
	return steps
}
