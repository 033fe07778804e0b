package pda

import (
	"errors"
	"fmt"
)

// MaxDepth is the deepest the stack gets during one handshake, BOTTOM excluded.
const MaxDepth = 2

// ErrInvariant is wrapped by every Verify failure.
var ErrInvariant = errors.New("pda invariant violated")

// Step is one traced transition.
type Step struct {
	Index  int
	Token  string
	Before State
	After  State
	Depth  int // stack depth after the step, BOTTOM excluded
	Op     string
}

func (s Step) String() string {
	return fmt.Sprintf("%d: %s  %s -> %s  depth=%d  %s", s.Index, s.Token, s.Before, s.After, s.Depth, s.Op)
}

// Run is the mutable state of one validation. A Run is not safe for
// concurrent use; create one per goroutine with Machine.NewRun.
type Run struct {
	m        *Machine
	current  State
	stack    []Symbol
	maxDepth int
	consumed int
}

// Reset returns the run to the start state with only BOTTOM on the stack.
func (r *Run) Reset() {
	r.current = r.m.start
	r.stack = append(r.stack[:0], Bottom)
	r.maxDepth = 0
	r.consumed = 0
}

// State returns the current control state.
func (r *Run) State() State { return r.current }

// Depth returns the number of symbols above BOTTOM.
func (r *Run) Depth() int { return len(r.stack) - 1 }

// MaxDepthSeen returns the deepest stack since the last Reset.
func (r *Run) MaxDepthSeen() int { return r.maxDepth }

// Top returns the stack top.
func (r *Run) Top() Symbol { return r.stack[len(r.stack)-1] }

// Stack returns a copy of the stack, bottom first.
func (r *Run) Stack() []Symbol { return append([]Symbol(nil), r.stack...) }

// Accepting reports whether the run currently accepts: the control state is
// accepting and no handshake is left open on the stack.
func (r *Run) Accepting() bool {
	return r.m.accepting[r.current] && len(r.stack) == 1 && r.stack[0] == Bottom
}

func (r *Run) push(s Symbol) {
	r.stack = append(r.stack, s)
	if d := r.Depth(); d > r.maxDepth {
		r.maxDepth = d
	}
}

// pop removes want from the top. BOTTOM is never removed.
func (r *Run) pop(want Symbol) bool {
	if len(r.stack) <= 1 || r.Top() != want {
		return false
	}
	r.stack = r.stack[:len(r.stack)-1]
	return true
}

// Step consumes one token. ERROR is absorbing: once entered, every further
// token leaves the run there.
func (r *Run) Step(tok string) Step {
	st := Step{Index: r.consumed, Token: tok, Before: r.current}
	r.consumed++
	st.Op = r.apply(ParseToken(tok))
	st.After = r.current
	st.Depth = r.Depth()
	return st
}

func (r *Run) apply(t Token) string {
	if r.current == Error {
		return "ERROR: absorbed"
	}
	switch t {
	case Unknown:
		r.current = Error
		return "ERROR: unknown token"
	case RST:
		r.current = Error
		return "ERROR: RST received"
	}
	rule, ok := r.m.lookup(r.current, t, r.Top())
	if !ok {
		r.current = Error
		return "ERROR: invalid transition"
	}
	for _, s := range rule.Pop {
		if !r.pop(s) {
			r.current = Error
			return "ERROR: stack mismatch"
		}
	}
	for _, s := range rule.Push {
		r.push(s)
	}
	r.current = rule.To
	return rule.Op + " -> " + rule.To.String()
}

// Validate resets the run, consumes tokens and reports acceptance. It
// stops at the first token that leads to ERROR.
func (r *Run) Validate(tokens []string) bool {
	r.Reset()
	for _, tok := range tokens {
		r.Step(tok)
		if r.current == Error {
			return false
		}
	}
	return r.Accepting()
}

// Result summarizes the run so far.
func (r *Run) Result() Result {
	return Result{
		Accepted: r.Accepting(),
		Final:    r.current,
		Depth:    r.Depth(),
		MaxDepth: r.maxDepth,
		Consumed: r.consumed,
	}
}

// Verify checks the structural invariants of the run: BOTTOM sits at the
// base and only there, the depth stays within MaxDepth, and the stack
// content agrees with the control state.
func (r *Run) Verify() error {
	if !r.current.Valid() {
		return fmt.Errorf("%w: undeclared state %d", ErrInvariant, r.current)
	}
	if len(r.stack) == 0 || r.stack[0] != Bottom {
		return fmt.Errorf("%w: BOTTOM missing from stack base", ErrInvariant)
	}
	for i, s := range r.stack[1:] {
		if s == Bottom {
			return fmt.Errorf("%w: BOTTOM above base at %d", ErrInvariant, i+1)
		}
	}
	if d := r.Depth(); d > MaxDepth {
		return fmt.Errorf("%w: depth %d exceeds %d", ErrInvariant, d, MaxDepth)
	}
	var want []Symbol
	switch r.current {
	case Start, Accept:
		want = []Symbol{Bottom}
	case SynReceived:
		want = []Symbol{Bottom, SymSYN}
	case SynAckReceived:
		want = []Symbol{Bottom, SymSYN, SymSYNACK}
	default:
		return nil
	}
	if len(want) != len(r.stack) {
		return fmt.Errorf("%w: %s with stack %v", ErrInvariant, r.current, r.stack)
	}
	for i := range want {
		if want[i] != r.stack[i] {
			return fmt.Errorf("%w: %s with stack %v", ErrInvariant, r.current, r.stack)
		}
	}
	return nil
}
