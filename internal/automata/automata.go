package automata

import (
	"fmt"
	"sort"
)

// StateID identifies a state inside one automaton.
type StateID int

// NoState is returned when a transition is undefined.
const NoState StateID = -1

// State is a node of an NFA or DFA.
type State struct {
	ID        StateID
	Accepting bool
	Label     string
}

// Transition is an edge. Symbol is meaningless when Epsilon is set.
type Transition struct {
	From    StateID
	To      StateID
	Symbol  rune
	Epsilon bool
}

// IDAllocator hands out monotonically increasing state ids. Each automaton
// build owns one, so independent builds never share or race on a counter.
type IDAllocator struct {
	next StateID
}

// NewIDAllocator returns an allocator whose first id is 0.
func NewIDAllocator() *IDAllocator { return &IDAllocator{} }

// Next returns a fresh id.
func (a *IDAllocator) Next() StateID {
	id := a.next
	a.next++
	return id
}

// Issued reports how many ids have been handed out.
func (a *IDAllocator) Issued() int { return int(a.next) }

/* ----------------------------- NFA ----------------------------- */

// NFA is a nondeterministic automaton with epsilon moves.
type NFA struct {
	States      []State
	Transitions []Transition
	Start       StateID
	Accepting   map[StateID]bool
	Alphabet    map[rune]bool
}

// NewNFA returns an empty NFA.
func NewNFA() *NFA {
	return &NFA{
		Start:     NoState,
		Accepting: make(map[StateID]bool),
		Alphabet:  make(map[rune]bool),
	}
}

// AddState registers s; accepting states are also recorded in Accepting.
func (n *NFA) AddState(s State) {
	n.States = append(n.States, s)
	if s.Accepting {
		n.Accepting[s.ID] = true
	}
}

// AddTransition adds an edge. Non-epsilon symbols extend the alphabet.
func (n *NFA) AddTransition(from, to StateID, sym rune, epsilon bool) {
	n.Transitions = append(n.Transitions, Transition{From: from, To: to, Symbol: sym, Epsilon: epsilon})
	if !epsilon {
		n.Alphabet[sym] = true
	}
}

// IsAccepting reports whether id is in the accepting set.
func (n *NFA) IsAccepting(id StateID) bool { return n.Accepting[id] }

// StateCount returns the number of states.
func (n *NFA) StateCount() int { return len(n.States) }

// SortedAlphabet returns the alphabet in ascending order.
func (n *NFA) SortedAlphabet() []rune { return sortedRunes(n.Alphabet) }

// Validate checks that the start state and every transition endpoint exist.
func (n *NFA) Validate() error {
	known := make(map[StateID]bool, len(n.States))
	for _, s := range n.States {
		if known[s.ID] {
			return fmt.Errorf("nfa: duplicate state %d", s.ID)
		}
		known[s.ID] = true
	}
	if !known[n.Start] {
		return fmt.Errorf("nfa: start state %d not declared", n.Start)
	}
	for _, t := range n.Transitions {
		if !known[t.From] || !known[t.To] {
			return fmt.Errorf("nfa: transition %d->%d references unknown state", t.From, t.To)
		}
	}
	for id := range n.Accepting {
		if !known[id] {
			return fmt.Errorf("nfa: accepting state %d not declared", id)
		}
	}
	return nil
}

// outgoing indexes transitions by source state.
func (n *NFA) outgoing() map[StateID][]Transition {
	out := make(map[StateID][]Transition, len(n.States))
	for _, t := range n.Transitions {
		out[t.From] = append(out[t.From], t)
	}
	return out
}

/* ----------------------------- DFA ----------------------------- */

type transKey struct {
	from StateID
	sym  rune
}

// DFA is a deterministic automaton with a partial transition function;
// a missing entry means "no move" and rejects.
type DFA struct {
	States    []State
	Start     StateID
	Accepting map[StateID]bool
	Alphabet  map[rune]bool

	trans map[transKey]StateID
	index map[StateID]int
}

// NewDFA returns an empty DFA.
func NewDFA() *DFA {
	return &DFA{
		Start:     NoState,
		Accepting: make(map[StateID]bool),
		Alphabet:  make(map[rune]bool),
		trans:     make(map[transKey]StateID),
		index:     make(map[StateID]int),
	}
}

// AddState registers s.
func (d *DFA) AddState(s State) {
	d.index[s.ID] = len(d.States)
	d.States = append(d.States, s)
	if s.Accepting {
		d.Accepting[s.ID] = true
	}
}

// AddTransition sets (from, sym) -> to. A second, different target for the
// same key is an error: the function stays deterministic.
func (d *DFA) AddTransition(from StateID, sym rune, to StateID) error {
	k := transKey{from, sym}
	if prev, ok := d.trans[k]; ok && prev != to {
		return fmt.Errorf("dfa: nondeterministic transition (%d,%q): %d and %d", from, sym, prev, to)
	}
	d.trans[k] = to
	d.Alphabet[sym] = true
	return nil
}

// Next returns the target of (from, sym), or NoState and false.
func (d *DFA) Next(from StateID, sym rune) (StateID, bool) {
	to, ok := d.trans[transKey{from, sym}]
	if !ok {
		return NoState, false
	}
	return to, true
}

// State looks up a state by id.
func (d *DFA) State(id StateID) (State, bool) {
	i, ok := d.index[id]
	if !ok {
		return State{}, false
	}
	return d.States[i], true
}

// IsAccepting reports whether id is accepting.
func (d *DFA) IsAccepting(id StateID) bool { return d.Accepting[id] }

// StateCount returns the number of states.
func (d *DFA) StateCount() int { return len(d.States) }

// TransitionCount returns the number of defined transitions.
func (d *DFA) TransitionCount() int { return len(d.trans) }

// SortedAlphabet returns the alphabet in ascending order.
func (d *DFA) SortedAlphabet() []rune { return sortedRunes(d.Alphabet) }

// Transitions lists every edge ordered by source state then symbol.
func (d *DFA) Transitions() []Transition {
	out := make([]Transition, 0, len(d.trans))
	for k, to := range d.trans {
		out = append(out, Transition{From: k.from, To: to, Symbol: k.sym})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Validate checks that every referenced state is declared.
func (d *DFA) Validate() error {
	if len(d.States) == 0 {
		return nil
	}
	if _, ok := d.index[d.Start]; !ok {
		return fmt.Errorf("dfa: start state %d not declared", d.Start)
	}
	for k, to := range d.trans {
		if _, ok := d.index[k.from]; !ok {
			return fmt.Errorf("dfa: transition from unknown state %d", k.from)
		}
		if _, ok := d.index[to]; !ok {
			return fmt.Errorf("dfa: transition to unknown state %d", to)
		}
	}
	return nil
}

func sortedRunes(set map[rune]bool) []rune {
	out := make([]rune, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
