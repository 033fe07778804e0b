package automata

// Matches runs d over the projected input and reports whether the whole
// input is accepted. An undefined transition rejects immediately.
func Matches(d *DFA, input string) bool {
	if d == nil || d.Start == NoState {
		return false
	}
	cur := d.Start
	for i := 0; i < len(input); i++ {
		next, ok := d.Next(cur, Project(input[i]))
		if !ok {
			return false
		}
		cur = next
	}
	return d.Accepting[cur]
}

// Search reports whether d enters an accepting state at any point while
// consuming the projected input. Used with automata whose start carries a
// self-loop over the whole alphabet, this is substring detection in one pass.
func Search(d *DFA, input string) bool {
	_, ok := SearchEnd(d, input)
	return ok
}

// SearchEnd is Search that also returns the number of bytes consumed when
// the first accepting state was entered.
func SearchEnd(d *DFA, input string) (int, bool) {
	if d == nil || d.Start == NoState {
		return 0, false
	}
	cur := d.Start
	if d.Accepting[cur] {
		return 0, true
	}
	for i := 0; i < len(input); i++ {
		next, ok := d.Next(cur, Project(input[i]))
		if !ok {
			return 0, false
		}
		cur = next
		if d.Accepting[cur] {
			return i + 1, true
		}
	}
	return 0, false
}

// Accepts runs d over already-projected symbols.
func (d *DFA) Accepts(symbols []rune) bool {
	if d.Start == NoState {
		return false
	}
	cur := d.Start
	for _, r := range symbols {
		next, ok := d.Next(cur, r)
		if !ok {
			return false
		}
		cur = next
	}
	return d.Accepting[cur]
}

// Accepts simulates n directly over already-projected symbols.
func (n *NFA) Accepts(symbols []rune) bool {
	if n.Start == NoState {
		return false
	}
	out := n.outgoing()
	cur := epsilonClosure(out, stateSet{n.Start: {}})
	for _, r := range symbols {
		next := move(out, cur, r)
		if len(next) == 0 {
			return false
		}
		cur = epsilonClosure(out, next)
	}
	return n.anyAccepting(cur)
}
