package regexlib

import (
	"errors"
	"fmt"
)

// ErrMalformedPattern is the class of every pattern syntax error.
var ErrMalformedPattern = errors.New("malformed pattern")

// SyntaxError locates a malformed pattern.
type SyntaxError struct {
	Pattern string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed pattern %q at offset %d: %s", e.Pattern, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformedPattern }

func syntaxErr(pattern string, pos int, format string, args ...any) error {
	return &SyntaxError{Pattern: pattern, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
