package expression

import (
	"fmt"
	"strconv"
)

// tokenKind classifies a lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPow:
		return "'**'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// token is a single lexeme with its 1-based column.
type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

// lex splits text into tokens. The returned slice always ends with tokEOF.
func lex(text string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case isSpace(c):
			i++

		case isDigit(c) || (c == '.' && i+1 < len(text) && isDigit(text[i+1])):
			tok, next, err := readNumber(text, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next

		case isLetter(c):
			start := i
			for i < len(text) && (isLetter(text[i]) || isDigit(text[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: text[start:i], pos: start + 1})

		case c == '*':
			if i+1 < len(text) && text[i+1] == '*' {
				tokens = append(tokens, token{kind: tokPow, text: "**", pos: i + 1})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokStar, text: "*", pos: i + 1})
			i++

		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, &ParseError{
					Text:  text,
					Pos:   i + 1,
					Token: string(c),
					Msg:   fmt.Sprintf("unexpected character %q", c),
				}
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: i + 1})
			i++
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(text) + 1})
	return tokens, nil
}

var punctuation = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'/': tokSlash,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
}

// readNumber scans digits ["." digits*] [exponent] | "." digits [exponent].
func readNumber(text string, start int) (token, int, error) {
	i := start
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i < len(text) && text[i] == '.' {
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		if j >= len(text) || !isDigit(text[j]) {
			return token{}, 0, &ParseError{
				Text:  text,
				Pos:   start + 1,
				Token: text[start:j],
				Msg:   "malformed exponent in number",
			}
		}
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		i = j
	}

	lit := text[start:i]
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return token{}, 0, &ParseError{
			Text:  text,
			Pos:   start + 1,
			Token: lit,
			Msg:   "number out of range",
		}
	}
	return token{kind: tokNumber, text: lit, value: v, pos: start + 1}, i, nil
}

func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
