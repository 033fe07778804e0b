package ruleset

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type File struct {
	Entries []*Entry `parser:"@@*"`
}

type Entry struct {
	Pattern   *PatternDecl   `parser:"  @@ ';'"`
	Heuristic *HeuristicDecl `parser:"| @@ ';'"`
}

type PatternDecl struct {
	Pos lexer.Position

	Name     string  `parser:"'pattern' @Ident '='"`
	Expr     string  `parser:"@String"`
	Severity *string `parser:"( 'severity' @Ident )?"`
}

type HeuristicDecl struct {
	Pos lexer.Position

	Name     string   `parser:"'heuristic' @Ident"`
	Kind     string   `parser:"@Ident"`
	N        *int     `parser:"@Int?"`
	Words    []string `parser:"@String*"`
	Requires []string `parser:"( 'requires' @String+ )?"`
}

var parser = participle.MustBuild[File](participle.Unquote("String"))

func parse(name, data string) (*File, error) {
	return parser.ParseString(name, data)
}
