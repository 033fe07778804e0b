package pda

import "strings"

// Production is one CFG rule; an empty Body derives epsilon.
type Production struct {
	Head string
	Body []string
}

func (p Production) String() string {
	if len(p.Body) == 0 {
		return p.Head + " -> ε"
	}
	return p.Head + " -> " + strings.Join(p.Body, " ")
}

// Grammar returns the right-linear grammar of accepted sessions: a
// handshake followed by DATA, ACK or FIN packets, possibly opening a new
// handshake.
func Grammar() []Production {
	return []Production{
		{Head: "S", Body: []string{"SYN", "A"}},
		{Head: "A", Body: []string{"SYN-ACK", "B"}},
		{Head: "B", Body: []string{"ACK", "C"}},
		{Head: "C", Body: []string{"DATA", "C"}},
		{Head: "C", Body: []string{"ACK", "C"}},
		{Head: "C", Body: []string{"FIN", "C"}},
		{Head: "C", Body: []string{"SYN", "A"}},
		{Head: "C"},
	}
}
