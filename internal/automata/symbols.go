package automata

// Sentinel stands in for every byte outside printable ASCII, so foreign
// bytes are a real symbol that simply has no transitions.
const Sentinel rune = 0x1A

// Printable ASCII bounds.
const (
	FirstPrintable rune = 0x20
	LastPrintable  rune = 0x7E
)

// IsPrintable reports whether r is printable ASCII.
func IsPrintable(r rune) bool { return r >= FirstPrintable && r <= LastPrintable }

// Project maps a byte into the matching alphabet.
func Project(b byte) rune {
	r := rune(b)
	if IsPrintable(r) {
		return r
	}
	return Sentinel
}

// ProjectString maps every byte of s through Project.
func ProjectString(s string) []rune {
	out := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = Project(s[i])
	}
	return out
}

// ProjectedAlphabet is every symbol Project can produce.
func ProjectedAlphabet() []rune {
	out := make([]rune, 0, LastPrintable-FirstPrintable+2)
	for r := FirstPrintable; r <= LastPrintable; r++ {
		out = append(out, r)
	}
	return append(out, Sentinel)
}

// FoldASCII lowercases the ASCII letters of s and leaves every other byte
// alone, so folding never turns a foreign byte into a printable one.
func FoldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
