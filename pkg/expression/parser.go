package expression

import "fmt"

// maxDepth bounds group and call nesting.
const maxDepth = 200

type parser struct {
	text   string
	tokens []token
	cur    int
	depth  int
	out    Program
}

func (p *parser) peek() token { return p.tokens[p.cur] }

func (p *parser) next() token {
	t := p.tokens[p.cur]
	if t.kind != tokEOF {
		p.cur++
	}
	return t
}

func (p *parser) emit(in Instruction) { p.out = append(p.out, in) }

func (p *parser) fail(t token, format string, args ...any) error {
	tok := t.text
	if t.kind == tokEOF {
		tok = ""
	}
	return &ParseError{
		Text:  p.text,
		Pos:   t.pos,
		Token: tok,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// expr := term (("+"|"-") term)*
func (p *parser) parseExpr() error {
	if err := p.parseTerm(); err != nil {
		return err
	}
	for {
		t := p.peek()
		var op Op
		switch t.kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return nil
		}
		p.next()
		if err := p.parseTerm(); err != nil {
			return err
		}
		p.emit(Instruction{Op: op, Pos: t.pos})
	}
}

// term := factor (("*"|"/") factor)*
func (p *parser) parseTerm() error {
	if err := p.parseFactor(); err != nil {
		return err
	}
	for {
		t := p.peek()
		var op Op
		switch t.kind {
		case tokStar:
			op = OpMul
		case tokSlash:
			op = OpDiv
		default:
			return nil
		}
		p.next()
		if err := p.parseFactor(); err != nil {
			return err
		}
		p.emit(Instruction{Op: op, Pos: t.pos})
	}
}

// factor := unary ("**" factor)?
func (p *parser) parseFactor() error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	t := p.peek()
	if t.kind != tokPow {
		return nil
	}
	p.next()
	if err := p.enter(t); err != nil {
		return err
	}
	defer p.leave()
	if err := p.parseFactor(); err != nil {
		return err
	}
	p.emit(Instruction{Op: OpPow, Pos: t.pos})
	return nil
}

// unary := ("+"|"-")* atom
//
// A run of signs collapses by parity into at most one neg.
func (p *parser) parseUnary() error {
	negate := false
	signPos := 0
	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			break
		}
		if signPos == 0 {
			signPos = t.pos
		}
		if t.kind == tokMinus {
			negate = !negate
		}
		p.next()
	}
	if err := p.parseAtom(); err != nil {
		return err
	}
	if negate {
		p.emit(Instruction{Op: OpNeg, Pos: signPos})
	}
	return nil
}

// atom := number | "x" | "(" expr ")" | ident "(" expr ("," expr)* ")"
func (p *parser) parseAtom() error {
	t := p.next()
	switch t.kind {
	case tokNumber:
		p.emit(Instruction{Op: OpPush, Value: t.value, Pos: t.pos})
		return nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		if t.text != Variable {
			return p.fail(t, "unknown symbol '%s'", t.text)
		}
		p.emit(Instruction{Op: OpVar, Pos: t.pos})
		return nil

	case tokLParen:
		if err := p.enter(t); err != nil {
			return err
		}
		defer p.leave()
		if err := p.parseExpr(); err != nil {
			return err
		}
		return p.expect(tokRParen, t)

	case tokEOF:
		return p.fail(t, "unexpected end of input")

	default:
		return p.fail(t, "unexpected %s", t.kind)
	}
}

func (p *parser) parseCall(name token) error {
	open := p.next()
	if err := p.enter(open); err != nil {
		return err
	}
	defer p.leave()

	if p.peek().kind == tokRParen {
		return p.fail(p.peek(), "empty argument list for '%s'", name.text)
	}
	argc := 0
	for {
		if err := p.parseExpr(); err != nil {
			return err
		}
		argc++
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRParen, open); err != nil {
		return err
	}
	p.emit(Instruction{Op: OpCall, Name: name.text, Argc: argc, Pos: name.pos})
	return nil
}

// expect consumes a token of the given kind. open is the token that
// started the construct, reported when input ends early.
func (p *parser) expect(kind tokenKind, open token) error {
	t := p.peek()
	if t.kind == kind {
		p.next()
		return nil
	}
	if t.kind == tokEOF {
		return p.fail(open, "unbalanced parentheses: missing %s", kind)
	}
	return p.fail(t, "expected %s, got %s", kind, t.kind)
}

func (p *parser) enter(t token) error {
	p.depth++
	if p.depth > maxDepth {
		return p.fail(t, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }
