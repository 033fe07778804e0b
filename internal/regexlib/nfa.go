package regexlib

import (
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
)

// builder accumulates the states and edges of every fragment. Fragments are
// built bottom-up, so each one owns a contiguous range of state ids and of
// transition indexes, which is what clone relies on.
type builder struct {
	ids    *automata.IDAllocator
	states []automata.StateID
	trans  []automata.Transition
}

type nfaFrag struct {
	start   automata.StateID
	accepts []automata.StateID

	firstState int // index into builder.states
	firstTrans int // index into builder.trans
}

func (b *builder) newState() automata.StateID {
	id := b.ids.Next()
	b.states = append(b.states, id)
	return id
}

func (b *builder) edge(from, to automata.StateID, sym rune) {
	b.trans = append(b.trans, automata.Transition{From: from, To: to, Symbol: sym})
}

func (b *builder) epsilon(from, to automata.StateID) {
	b.trans = append(b.trans, automata.Transition{From: from, To: to, Epsilon: true})
}

func (b *builder) patchOuts(outs []automata.StateID, to automata.StateID) {
	for _, s := range outs {
		b.epsilon(s, to)
	}
}

func (b *builder) mark() (int, int) { return len(b.states), len(b.trans) }

func (b *builder) char(c rune) nfaFrag {
	fs, ft := b.mark()
	s1 := b.newState()
	s2 := b.newState()
	b.edge(s1, s2, c)
	return nfaFrag{start: s1, accepts: []automata.StateID{s2}, firstState: fs, firstTrans: ft}
}

func (b *builder) empty() nfaFrag {
	fs, ft := b.mark()
	s := b.newState()
	return nfaFrag{start: s, accepts: []automata.StateID{s}, firstState: fs, firstTrans: ft}
}

// concat splices f1's accepting states to f2's start.
func (b *builder) concat(f1, f2 nfaFrag) nfaFrag {
	b.patchOuts(f1.accepts, f2.start)
	return nfaFrag{start: f1.start, accepts: f2.accepts, firstState: f1.firstState, firstTrans: f1.firstTrans}
}

// union adds a fresh start and accept around both operands.
func (b *builder) union(f1, f2 nfaFrag) nfaFrag {
	s := b.newState()
	f := b.newState()
	b.epsilon(s, f1.start)
	b.epsilon(s, f2.start)
	b.patchOuts(f1.accepts, f)
	b.patchOuts(f2.accepts, f)
	return nfaFrag{start: s, accepts: []automata.StateID{f}, firstState: f1.firstState, firstTrans: f1.firstTrans}
}

func (b *builder) star(fr nfaFrag) nfaFrag {
	s := b.newState()
	f := b.newState()
	b.epsilon(s, fr.start) // one iteration
	b.epsilon(s, f)        // zero iterations
	for _, a := range fr.accepts {
		b.epsilon(a, fr.start) // repeat
		b.epsilon(a, f)        // stop
	}
	return nfaFrag{start: s, accepts: []automata.StateID{f}, firstState: fr.firstState, firstTrans: fr.firstTrans}
}

// plus is the operand followed by the star of a private copy of it.
func (b *builder) plus(fr nfaFrag) nfaFrag {
	return b.concat(fr, b.star(b.clone(fr)))
}

// optional is the operand or an epsilon-only branch.
func (b *builder) optional(fr nfaFrag) nfaFrag {
	return b.union(fr, b.empty())
}

// clone copies every state and edge of fr under fresh ids.
func (b *builder) clone(fr nfaFrag) nfaFrag {
	lastState, lastTrans := b.mark()
	fs, ft := b.mark()
	remap := make(map[automata.StateID]automata.StateID, lastState-fr.firstState)
	for _, id := range b.states[fr.firstState:lastState] {
		remap[id] = b.newState()
	}
	for _, t := range b.trans[fr.firstTrans:lastTrans] {
		t.From, t.To = remap[t.From], remap[t.To]
		b.trans = append(b.trans, t)
	}
	accepts := make([]automata.StateID, len(fr.accepts))
	for i, a := range fr.accepts {
		accepts[i] = remap[a]
	}
	return nfaFrag{start: remap[fr.start], accepts: accepts, firstState: fs, firstTrans: ft}
}

// evalPostfix runs the postfix stream on a fragment stack.
func (b *builder) evalPostfix(pattern string, postfix []token) (nfaFrag, error) {
	var st []nfaFrag
	pop := func() nfaFrag {
		f := st[len(st)-1]
		st = st[:len(st)-1]
		return f
	}
	for _, tok := range postfix {
		switch tok.typ {
		case tChar:
			st = append(st, b.char(tok.ch))
		case tConcat, tUnion:
			if len(st) < 2 {
				return nfaFrag{}, syntaxErr(pattern, tok.pos, "operator %s is missing an operand", tok.typ)
			}
			f2 := pop()
			f1 := pop()
			if tok.typ == tConcat {
				st = append(st, b.concat(f1, f2))
			} else {
				st = append(st, b.union(f1, f2))
			}
		case tStar, tPlus, tQMark:
			if len(st) < 1 {
				return nfaFrag{}, syntaxErr(pattern, tok.pos, "operator %s has no operand", tok.typ)
			}
			f := pop()
			switch tok.typ {
			case tStar:
				st = append(st, b.star(f))
			case tPlus:
				st = append(st, b.plus(f))
			default:
				st = append(st, b.optional(f))
			}
		default:
			return nfaFrag{}, syntaxErr(pattern, tok.pos, "unexpected %s", tok.typ)
		}
	}
	if len(st) != 1 {
		pos := len(pattern)
		if len(postfix) > 0 {
			pos = postfix[len(postfix)-1].pos
		}
		return nfaFrag{}, syntaxErr(pattern, pos, "expression does not reduce to a single operand")
	}
	return st[0], nil
}

// finish turns the builder content into an NFA whose only accepting states
// are those of the final fragment.
func (b *builder) finish(start automata.StateID, accepts []automata.StateID) *automata.NFA {
	nfa := automata.NewNFA()
	final := make(map[automata.StateID]bool, len(accepts))
	for _, a := range accepts {
		final[a] = true
	}
	for _, id := range b.states {
		nfa.AddState(automata.State{ID: id, Accepting: final[id]})
	}
	for _, t := range b.trans {
		nfa.AddTransition(t.From, t.To, t.Symbol, t.Epsilon)
	}
	nfa.Start = start
	return nfa
}
