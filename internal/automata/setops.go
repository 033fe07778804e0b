package automata

// Complete returns a copy of d whose transition function is total over
// alphabet, routing every missing move to one added non-accepting sink.
// The sink is only added when some move is missing.
func Complete(d *DFA, alphabet []rune) *DFA {
	c := NewDFA()
	for r := range d.Alphabet {
		c.Alphabet[r] = true
	}
	for _, r := range alphabet {
		c.Alphabet[r] = true
	}
	next := StateID(0)
	for _, s := range d.States {
		c.AddState(s)
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	c.Start = d.Start
	for k, to := range d.trans {
		c.trans[k] = to
	}
	sink := NoState
	alpha := c.SortedAlphabet()
	for _, s := range d.States {
		for _, r := range alpha {
			if _, ok := c.Next(s.ID, r); ok {
				continue
			}
			if sink == NoState {
				sink = next
				c.AddState(State{ID: sink, Label: "sink"})
				for _, r2 := range alpha {
					_ = c.AddTransition(sink, r2, sink)
				}
			}
			_ = c.AddTransition(s.ID, r, sink)
		}
	}
	return c
}

// Complement accepts exactly the strings over alphabet (plus d's own
// alphabet) that d rejects.
func Complement(d *DFA, alphabet []rune) *DFA {
	c := Complete(d, alphabet)
	out := NewDFA()
	for r := range c.Alphabet {
		out.Alphabet[r] = true
	}
	for _, s := range c.States {
		s.Accepting = !s.Accepting
		out.AddState(s)
	}
	out.Start = c.Start
	for k, to := range c.trans {
		out.trans[k] = to
	}
	return out
}

// Product runs a and b in lockstep. A side without a move drops into an
// implicit dead state, so partial automata are handled without completing
// them first. op decides acceptance of a pair.
func Product(a, b *DFA, op func(x, y bool) bool) *DFA {
	type pair struct{ i, j StateID }

	alphaSet := make(map[rune]bool)
	for r := range a.Alphabet {
		alphaSet[r] = true
	}
	for r := range b.Alphabet {
		alphaSet[r] = true
	}
	alpha := sortedRunes(alphaSet)

	accepts := func(d *DFA, id StateID) bool { return id != NoState && d.Accepting[id] }
	step := func(d *DFA, id StateID, r rune) StateID {
		if id == NoState {
			return NoState
		}
		to, _ := d.Next(id, r)
		return to
	}

	out := NewDFA()
	for r := range alphaSet {
		out.Alphabet[r] = true
	}
	ids := NewIDAllocator()
	mp := map[pair]StateID{}
	add := func(p pair) StateID {
		id := ids.Next()
		mp[p] = id
		out.AddState(State{ID: id, Accepting: op(accepts(a, p.i), accepts(b, p.j))})
		return id
	}
	start := pair{a.Start, b.Start}
	out.Start = add(start)
	queue := []pair{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		cur := mp[p]
		for _, r := range alpha {
			np := pair{step(a, p.i, r), step(b, p.j, r)}
			if np.i == NoState && np.j == NoState {
				continue
			}
			ns, ok := mp[np]
			if !ok {
				ns = add(np)
				queue = append(queue, np)
			}
			_ = out.AddTransition(cur, r, ns)
		}
	}
	return out
}

// Intersect accepts strings accepted by both a and b.
func Intersect(a, b *DFA) *DFA { return Product(a, b, func(x, y bool) bool { return x && y }) }

// Union accepts strings accepted by either a or b.
func Union(a, b *DFA) *DFA { return Product(a, b, func(x, y bool) bool { return x || y }) }

// UnionAll folds Union over ds and minimizes the result after every step so
// the intermediate products stay small.
func UnionAll(ds ...*DFA) *DFA {
	if len(ds) == 0 {
		return NewDFA()
	}
	acc := Minimize(ds[0]).DFA
	for _, d := range ds[1:] {
		acc = Minimize(Union(acc, d)).DFA
	}
	return acc
}

// Reverse returns a DFA for the reversed language of d.
func Reverse(d *DFA) *DFA {
	n := NewNFA()
	ids := NewIDAllocator()
	nodes := make(map[StateID]StateID, len(d.States))
	for _, s := range d.States {
		nodes[s.ID] = ids.Next()
		n.AddState(State{ID: nodes[s.ID], Accepting: s.ID == d.Start})
	}
	start := ids.Next()
	n.AddState(State{ID: start})
	n.Start = start
	for _, s := range d.States {
		if s.Accepting {
			n.AddTransition(start, nodes[s.ID], 0, true)
		}
	}
	for k, to := range d.trans {
		n.AddTransition(nodes[to], nodes[k.from], k.sym, false)
	}
	for r := range d.Alphabet {
		n.Alphabet[r] = true
	}
	return ToDFA(n)
}
