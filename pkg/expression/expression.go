// Package expression parses the restricted arithmetic language used for
// functional BPX parameters such as "1.5 * exp(-x / 0.3) + 2.0".
//
// The language has one free variable (x), the binary operators + - * / and
// ** (right-associative), unary signs, parentheses, numeric literals and
// calls of the form name(arg, ...). Parsing produces an immutable
// Expression holding the source text and a postfix Program; which function
// names are allowed is decided when the program is compiled (see package
// function).
package expression

import (
	"errors"
	"fmt"
	"strings"
)

// Variable is the name of the single free variable.
const Variable = "x"

// ErrSyntax is wrapped by every *ParseError.
var ErrSyntax = errors.New("invalid expression")

// ParseError reports why and where an expression failed to parse.
type ParseError struct {
	Text  string // the full source text
	Pos   int    // 1-based column of the offending token
	Token string // the offending token, empty at end of input
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at column %d in %q", e.Msg, e.Pos, e.Text)
}

// Unwrap returns ErrSyntax.
func (e *ParseError) Unwrap() error { return ErrSyntax }

// Expression is a parsed, immutable expression of x.
type Expression struct {
	text    string
	program Program
}

// Parse parses text into an Expression.
func Parse(text string) (*Expression, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Text: text, Pos: 1, Msg: "empty expression"}
	}

	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{text: text, tokens: tokens}
	if err := p.parseExpr(); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, p.fail(t, "unbalanced parentheses: unexpected ')'")
		}
		return nil, p.fail(t, "unexpected trailing input '%s'", t.text)
	}

	return &Expression{text: text, program: p.out}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text.
func (e *Expression) String() string { return e.text }

// Program returns a copy of the postfix program.
func (e *Expression) Program() Program {
	out := make(Program, len(e.program))
	copy(out, e.program)
	return out
}

// DependsOnX reports whether the expression references the variable.
func (e *Expression) DependsOnX() bool {
	for _, in := range e.program {
		if in.Op == OpVar {
			return true
		}
	}
	return false
}

// Equal reports whether two expressions have the same source text.
func (e *Expression) Equal(other *Expression) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.text == other.text
}
