package regexlib

func precedence(t tokenType) int {
	switch t {
	case tStar, tPlus, tQMark:
		return 3
	case tConcat:
		return 2
	case tUnion:
		return 1
	default:
		return 0
	}
}

func isPostfix(t tokenType) bool { return t == tStar || t == tPlus || t == tQMark }

// endsOperand: the token can be the last token of an operand.
func endsOperand(t tokenType) bool { return t == tChar || t == tRParen || isPostfix(t) }

// beginsOperand: the token can be the first token of an operand.
func beginsOperand(t tokenType) bool { return t == tChar || t == tLParen }

// insertConcat makes implicit concatenation explicit.
func insertConcat(toks []token) []token {
	if len(toks) < 2 {
		return toks
	}
	out := make([]token, 0, 2*len(toks))
	for i, tok := range toks {
		out = append(out, tok)
		if i+1 < len(toks) && endsOperand(tok.typ) && beginsOperand(toks[i+1].typ) {
			out = append(out, token{typ: tConcat, pos: toks[i+1].pos})
		}
	}
	return out
}

// toPostfix converts infix tokens to postfix with the shunting-yard
// algorithm. Only parenthesis balance is checked here; operand counts are
// checked when the postfix stream is evaluated.
func toPostfix(pattern string, toks []token) ([]token, error) {
	out := make([]token, 0, len(toks))
	var ops []token
	for _, tok := range toks {
		switch tok.typ {
		case tChar:
			out = append(out, tok)
		case tLParen:
			ops = append(ops, tok)
		case tRParen:
			for len(ops) > 0 && ops[len(ops)-1].typ != tLParen {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return nil, syntaxErr(pattern, tok.pos, "unbalanced ')'")
			}
			ops = ops[:len(ops)-1]
		default:
			p := precedence(tok.typ)
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.typ == tLParen || precedence(top.typ) < p {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		if top.typ == tLParen {
			return nil, syntaxErr(pattern, top.pos, "unbalanced '('")
		}
		out = append(out, top)
		ops = ops[:len(ops)-1]
	}
	return out, nil
}

// checkGroups rejects empty groups such as "()" which would otherwise
// disappear silently from the postfix stream.
func checkGroups(pattern string, toks []token) error {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].typ == tLParen && toks[i+1].typ == tRParen {
			return syntaxErr(pattern, toks[i].pos, "empty group")
		}
	}
	return nil
}
