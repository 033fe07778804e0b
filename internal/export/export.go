// Package export turns automata into Graphviz DOT and into the JSON graph
// format consumed by the visualizer.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/automata"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
)

// Node is a graph vertex.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Edge is a labeled arc. Parallel symbols between the same pair of states
// share one edge.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is the neutral form every exporter writes.
type Graph struct {
	Type   string   `json:"type"`
	Start  string   `json:"start"`
	Accept []string `json:"accept"`
	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
}

// Epsilon labels empty moves.
const Epsilon = "ε"

// Build converts an *automata.NFA, *automata.DFA or *pda.Machine.
func Build(g any) (Graph, error) {
	switch t := g.(type) {
	case *automata.NFA:
		return FromNFA(t), nil
	case *automata.DFA:
		return FromDFA(t), nil
	case *pda.Machine:
		return FromPDA(t), nil
	}
	return Graph{}, fmt.Errorf("export: unsupported graph type %T", g)
}

func nodeID(prefix string, id automata.StateID) string {
	return prefix + strconv.Itoa(int(id))
}

// SymbolLabel renders one input symbol for display.
func SymbolLabel(r rune) string {
	switch {
	case r == automata.Sentinel:
		return "0x1A"
	case r == ' ':
		return "' '"
	case automata.IsPrintable(r):
		return string(r)
	}
	return fmt.Sprintf("0x%02X", r)
}

type pair struct{ from, to automata.StateID }

// edges groups transitions by endpoints and keeps first-seen order.
func edges(prefix string, ts []automata.Transition) []Edge {
	var order []pair
	labels := map[pair][]string{}
	for _, t := range ts {
		p := pair{t.From, t.To}
		if _, ok := labels[p]; !ok {
			order = append(order, p)
		}
		l := Epsilon
		if !t.Epsilon {
			l = SymbolLabel(t.Symbol)
		}
		labels[p] = append(labels[p], l)
	}
	out := make([]Edge, 0, len(order))
	for _, p := range order {
		out = append(out, Edge{
			Source: nodeID(prefix, p.from),
			Target: nodeID(prefix, p.to),
			Label:  strings.Join(labels[p], ","),
		})
	}
	return out
}

func states(prefix string, ss []automata.State, accepting map[automata.StateID]bool) ([]Node, []string) {
	nodes := make([]Node, 0, len(ss))
	accept := []string{}
	for _, s := range ss {
		id := nodeID(prefix, s.ID)
		label := s.Label
		if label == "" {
			label = id
		}
		nodes = append(nodes, Node{ID: id, Label: label})
		if accepting[s.ID] {
			accept = append(accept, id)
		}
	}
	return nodes, accept
}

// FromNFA converts a Thompson NFA.
func FromNFA(n *automata.NFA) Graph {
	nodes, accept := states("N", n.States, n.Accepting)
	return Graph{
		Type:   "NFA",
		Start:  nodeID("N", n.Start),
		Accept: accept,
		Nodes:  nodes,
		Edges:  edges("N", n.Transitions),
	}
}

// FromDFA converts a DFA; edges come out ordered by source then symbol.
func FromDFA(d *automata.DFA) Graph {
	nodes, accept := states("S", d.States, d.Accepting)
	g := Graph{
		Type:   "DFA",
		Accept: accept,
		Nodes:  nodes,
		Edges:  edges("S", d.Transitions()),
	}
	if d.Start != automata.NoState {
		g.Start = nodeID("S", d.Start)
	}
	return g
}

// FromPDA converts the handshake machine. Edge labels read
// "token, top / operation".
func FromPDA(m *pda.Machine) Graph {
	ss := m.States()
	nodes := make([]Node, 0, len(ss))
	accept := []string{}
	for _, s := range ss {
		id := pda.State(s.ID).String()
		nodes = append(nodes, Node{ID: id, Label: s.Label})
		if s.Accepting {
			accept = append(accept, id)
		}
	}
	rules := m.Rules()
	out := make([]Edge, 0, len(rules))
	for _, r := range rules {
		out = append(out, Edge{
			Source: r.From.String(),
			Target: r.To.String(),
			Label:  fmt.Sprintf("%s, %s / %s", r.Token, r.Top, r.Op),
		})
	}
	return Graph{
		Type:   "PDA",
		Start:  m.StartState().String(),
		Accept: accept,
		Nodes:  nodes,
		Edges:  out,
	}
}

// WriteJSON writes g as indented JSON.
func WriteJSON(w io.Writer, g Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// WriteDOT writes g for Graphviz. Accepting states are double circles.
func WriteDOT(w io.Writer, g Graph) error {
	accept := make(map[string]bool, len(g.Accept))
	for _, id := range g.Accept {
		accept[id] = true
	}
	var b strings.Builder
	b.WriteString("digraph " + quote(g.Type) + " {\n")
	b.WriteString("    rankdir=LR;\n")
	for _, n := range g.Nodes {
		shape := "circle"
		if accept[n.ID] {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "    %s [shape=%s, label=%s];\n", quote(n.ID), shape, quote(n.Label))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "    %s -> %s [label=%s];\n", quote(e.Source), quote(e.Target), quote(e.Label))
	}
	if g.Start != "" {
		fmt.Fprintf(&b, "    _start [shape=point]; _start -> %s;\n", quote(g.Start))
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Write builds g and writes it in format "dot" or "json".
func Write(w io.Writer, format string, g any) error {
	graph, err := Build(g)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "dot":
		return WriteDOT(w, graph)
	case "json":
		return WriteJSON(w, graph)
	}
	return fmt.Errorf("export: unknown format %q", format)
}

// Formats lists the accepted format names.
func Formats() []string { return []string{"dot", "json"} }
