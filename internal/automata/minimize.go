package automata

import (
	"sort"
	"strconv"
	"strings"
)

// MinimizeResult carries the minimized automaton and refinement diagnostics.
type MinimizeResult struct {
	DFA *DFA
	// Rounds is the number of splitter blocks taken from the worklist.
	Rounds int
	// Splits is the number of times a block was divided.
	Splits int
	// Partition holds the final blocks as original state ids; block i is
	// minimized state i.
	Partition [][]StateID
	// StateMap sends each surviving original state to its block's state.
	// States trimmed as unreachable or dead have no entry.
	StateMap map[StateID]StateID
}

// Minimize reduces d to the minimal DFA for the same language using
// Hopcroft partition refinement. Unreachable states and states that can never
// accept are trimmed first, so that every member of a block has the same set
// of defined symbols and any member can stand for the block.
func Minimize(d *DFA) MinimizeResult {
	if d == nil || len(d.States) == 0 || len(d.Alphabet) == 0 {
		return identity(d)
	}

	alpha := d.SortedAlphabet()
	keep := d.live()
	if !keep[d.Start] {
		return emptyLanguage(d)
	}

	// preimages restricted to live states: inv[sym][to] -> from
	inv := make(map[rune]map[StateID][]StateID, len(alpha))
	for k, to := range d.trans {
		if !keep[k.from] || !keep[to] {
			continue
		}
		m := inv[k.sym]
		if m == nil {
			m = make(map[StateID][]StateID)
			inv[k.sym] = m
		}
		m[to] = append(m[to], k.from)
	}

	// --- 1. initial partition {F, Q\F} ---------------------------------
	var acc, non []StateID
	for _, s := range d.States {
		if !keep[s.ID] {
			continue
		}
		if s.Accepting {
			acc = append(acc, s.ID)
		} else {
			non = append(non, s.ID)
		}
	}
	var blocks [][]StateID
	for _, b := range [][]StateID{acc, non} {
		if len(b) > 0 {
			blocks = append(blocks, b)
		}
	}
	blockOf := make(map[StateID]int, len(acc)+len(non))
	for i, b := range blocks {
		for _, id := range b {
			blockOf[id] = i
		}
	}

	// both halves are seeded: with a partial transition function the
	// "smaller half only" shortcut is not safe for the initial split
	work := make([]int, 0, len(blocks))
	inWork := make([]bool, len(blocks))
	for i := range blocks {
		work = append(work, i)
		inWork[i] = true
	}

	res := MinimizeResult{}

	// --- 2. refinement ---------------------------------------------------
	for len(work) > 0 {
		a := work[0]
		work = work[1:]
		inWork[a] = false
		res.Rounds++
		splitter := append([]StateID(nil), blocks[a]...)

		for _, c := range alpha {
			// X <- states whose c-move lands in the splitter
			x := make(map[StateID]bool)
			for _, to := range splitter {
				for _, from := range inv[c][to] {
					x[from] = true
				}
			}
			if len(x) == 0 {
				continue
			}

			touched := make(map[int]int)
			for id := range x {
				touched[blockOf[id]]++
			}
			order := make([]int, 0, len(touched))
			for b := range touched {
				order = append(order, b)
			}
			sort.Ints(order)

			for _, y := range order {
				if touched[y] == len(blocks[y]) {
					continue // Y is inside X: no split
				}
				var inter, diff []StateID
				for _, id := range blocks[y] {
					if x[id] {
						inter = append(inter, id)
					} else {
						diff = append(diff, id)
					}
				}
				blocks[y] = inter
				blocks = append(blocks, diff)
				nb := len(blocks) - 1
				inWork = append(inWork, false)
				for _, id := range diff {
					blockOf[id] = nb
				}
				res.Splits++

				switch {
				case inWork[y]:
					work = append(work, nb)
					inWork[nb] = true
				case len(inter) <= len(diff):
					work = append(work, y)
					inWork[y] = true
				default:
					work = append(work, nb)
					inWork[nb] = true
				}
			}
		}
	}

	// --- 3. build the quotient automaton ---------------------------------
	// number blocks in breadth-first order from the start block
	newID := make(map[int]StateID, len(blocks))
	order := []int{blockOf[d.Start]}
	newID[order[0]] = 0
	for i := 0; i < len(order); i++ {
		rep := blocks[order[i]][0]
		for _, c := range alpha {
			to, ok := d.Next(rep, c)
			if !ok || !keep[to] {
				continue
			}
			b := blockOf[to]
			if _, seen := newID[b]; !seen {
				newID[b] = StateID(len(order))
				order = append(order, b)
			}
		}
	}

	m := NewDFA()
	for r := range d.Alphabet {
		m.Alphabet[r] = true
	}
	res.Partition = make([][]StateID, len(order))
	res.StateMap = make(map[StateID]StateID, len(blockOf))
	for i, b := range order {
		members := append([]StateID(nil), blocks[b]...)
		sort.Slice(members, func(p, q int) bool { return members[p] < members[q] })
		res.Partition[i] = members
		accepting := false
		for _, id := range members {
			res.StateMap[id] = StateID(i)
			accepting = accepting || d.Accepting[id]
		}
		m.AddState(State{ID: StateID(i), Accepting: accepting, Label: blockLabel(members)})
	}
	m.Start = 0
	for i, b := range order {
		rep := blocks[b][0]
		for _, c := range alpha {
			to, ok := d.Next(rep, c)
			if !ok || !keep[to] {
				continue
			}
			_ = m.AddTransition(StateID(i), c, newID[blockOf[to]])
		}
	}
	res.DFA = m
	return res
}

// live returns the states that are reachable from the start and can still
// reach an accepting state.
func (d *DFA) live() map[StateID]bool {
	fwd := map[StateID]bool{d.Start: true}
	queue := []StateID{d.Start}
	rev := make(map[StateID][]StateID)
	for k, to := range d.trans {
		rev[to] = append(rev[to], k.from)
	}
	alpha := d.SortedAlphabet()
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range alpha {
			if to, ok := d.Next(id, c); ok && !fwd[to] {
				fwd[to] = true
				queue = append(queue, to)
			}
		}
	}

	back := make(map[StateID]bool)
	for id := range d.Accepting {
		if fwd[id] {
			back[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, from := range rev[id] {
			if fwd[from] && !back[from] {
				back[from] = true
				queue = append(queue, from)
			}
		}
	}
	return back
}

func identity(d *DFA) MinimizeResult {
	res := MinimizeResult{DFA: d, StateMap: map[StateID]StateID{}}
	if d == nil {
		return res
	}
	for _, s := range d.States {
		res.Partition = append(res.Partition, []StateID{s.ID})
		res.StateMap[s.ID] = s.ID
	}
	return res
}

// emptyLanguage collapses a DFA that accepts nothing to one rejecting state.
func emptyLanguage(d *DFA) MinimizeResult {
	m := NewDFA()
	for r := range d.Alphabet {
		m.Alphabet[r] = true
	}
	var members []StateID
	for _, s := range d.States {
		members = append(members, s.ID)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	m.AddState(State{ID: 0, Label: blockLabel(members)})
	m.Start = 0
	res := MinimizeResult{DFA: m, Partition: [][]StateID{members}, StateMap: map[StateID]StateID{}}
	for _, id := range members {
		res.StateMap[id] = 0
	}
	return res
}

func blockLabel(ids []StateID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
