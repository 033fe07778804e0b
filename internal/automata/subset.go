package automata

import (
	"sort"
	"strconv"
	"strings"
)

// stateSet is a set of NFA states.
type stateSet map[StateID]struct{}

func (s stateSet) sorted() []StateID {
	ids := make([]StateID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// key is the canonical form of the set: sorted ids.
func (s stateSet) key() string {
	ids := s.sorted()
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(id)))
	}
	b.WriteByte('}')
	return b.String()
}

// EpsilonClosure returns every state reachable from set by epsilon moves
// alone, set included.
func EpsilonClosure(n *NFA, set []StateID) []StateID {
	return epsilonClosure(n.outgoing(), toSet(set)).sorted()
}

// Move returns the states reachable from set on sym (no closure applied).
func Move(n *NFA, set []StateID, sym rune) []StateID {
	return move(n.outgoing(), toSet(set), sym).sorted()
}

func toSet(ids []StateID) stateSet {
	s := make(stateSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func epsilonClosure(out map[StateID][]Transition, set stateSet) stateSet {
	closure := make(stateSet, len(set))
	stack := make([]StateID, 0, len(set))
	for id := range set {
		closure[id] = struct{}{}
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range out[id] {
			if !t.Epsilon {
				continue
			}
			if _, seen := closure[t.To]; !seen {
				closure[t.To] = struct{}{}
				stack = append(stack, t.To)
			}
		}
	}
	return closure
}

func move(out map[StateID][]Transition, set stateSet, sym rune) stateSet {
	res := make(stateSet)
	for id := range set {
		for _, t := range out[id] {
			if !t.Epsilon && t.Symbol == sym {
				res[t.To] = struct{}{}
			}
		}
	}
	return res
}

func (n *NFA) anyAccepting(set stateSet) bool {
	for id := range set {
		if n.Accepting[id] {
			return true
		}
	}
	return false
}

// ToDFA converts n with the powerset construction. Only subsets reachable
// from the start closure become DFA states; each is labeled with its subset.
func ToDFA(n *NFA) *DFA {
	d := NewDFA()
	if n == nil || n.Start == NoState {
		return d
	}
	for r := range n.Alphabet {
		d.Alphabet[r] = true
	}
	out := n.outgoing()
	alpha := n.SortedAlphabet()
	ids := NewIDAllocator()

	initial := epsilonClosure(out, stateSet{n.Start: {}})
	seen := map[string]StateID{}
	add := func(set stateSet) StateID {
		k := set.key()
		id := ids.Next()
		seen[k] = id
		d.AddState(State{ID: id, Accepting: n.anyAccepting(set), Label: k})
		return id
	}
	d.Start = add(initial)

	type item struct {
		id  StateID
		set stateSet
	}
	queue := []item{{d.Start, initial}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sym := range alpha {
			next := move(out, cur.set, sym)
			if len(next) == 0 {
				continue
			}
			clo := epsilonClosure(out, next)
			to, ok := seen[clo.key()]
			if !ok {
				to = add(clo)
				queue = append(queue, item{to, clo})
			}
			// each (state, symbol) pair is visited exactly once
			_ = d.AddTransition(cur.id, sym, to)
		}
	}
	return d
}
