package expression

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrograms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"number", "2", "push 2"},
		{"variable", "x", "var"},
		{"scaled", "2.0 * x", "push 2 var mul"},
		{"left assoc sub", "1 - 2 - 3", "push 1 push 2 sub push 3 sub"},
		{"left assoc div", "8 / 4 / 2", "push 8 push 4 div push 2 div"},
		{"precedence", "1 + 2 * 3", "push 1 push 2 push 3 mul add"},
		{"right assoc pow", "2**3**2", "push 2 push 3 push 2 pow pow"},
		{"pow over mul", "2 * x ** 2", "push 2 var push 2 pow mul"},
		{"group", "(1 + 2) * 3", "push 1 push 2 add push 3 mul"},
		{"call", "exp(-x / 0.3)", "var neg push 0.3 div call exp/1"},
		{"call two args", "f(x, 2)", "var push 2 call f/2"},
		{"nested calls", "tanh(cosh(x))", "var call cosh/1 call tanh/1"},
		{"unary binds tighter than pow", "-2**2", "push 2 neg push 2 pow"},
		{"double negation", "--x", "var"},
		{"mixed signs", "-+-x", "var"},
		{"plus minus", "+-x", "var neg"},
		{"negated group", "-(x + 1)", "var push 1 add neg"},
		{"negative exponent", "x ** -1", "var push 1 neg pow"},
		{"scientific", "1.5e-3 * x", "push 0.0015 var mul"},
		{"leading dot", ".5 + 1.", "push 0.5 push 1 add"},
		{"whitespace", "  x\t+\n1 ", "var push 1 add"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Program().String())
			assert.Equal(t, tt.text, e.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		pos   int
		token string
		msg   string
	}{
		{"empty", "", 1, "", "empty expression"},
		{"blank", "   ", 1, "", "empty expression"},
		{"trailing input", "x 2", 3, "2", "unexpected trailing input"},
		{"unknown symbol", "x + y", 5, "y", "unknown symbol 'y'"},
		{"unbalanced open", "(x + 1", 1, "(", "unbalanced parentheses"},
		{"unbalanced close", "x + 1)", 6, ")", "unbalanced parentheses"},
		{"empty args", "exp()", 5, ")", "empty argument list"},
		{"dangling operator", "x +", 4, "", "unexpected end of input"},
		{"bad character", "x ^ 2", 3, "^", "unexpected character"},
		{"bad exponent", "1e+", 1, "1e+", "malformed exponent"},
		{"double operator", "x * / 2", 5, "/", "unexpected '/'"},
		{"missing comma", "f(x 1)", 5, "1", "expected ')'"},
		{"number then identifier", "2x", 2, "x", "unexpected trailing input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.text)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, ErrSyntax))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.text, perr.Text)
			assert.Equal(t, tt.pos, perr.Pos)
			assert.Equal(t, tt.token, perr.Token)
			assert.Contains(t, perr.Msg, tt.msg)
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	deep := strings.Repeat("(", maxDepth+1) + "x" + strings.Repeat(")", maxDepth+1)
	_, err := Parse(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested too deeply")

	ok := strings.Repeat("(", 50) + "x" + strings.Repeat(")", 50)
	_, err = Parse(ok)
	assert.NoError(t, err)
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("x + y")
	require.Error(t, err)
	assert.Equal(t, `unknown symbol 'y' at column 5 in "x + y"`, err.Error())
}

func TestMustParsePanics(t *testing.T) {
	assert.NotPanics(t, func() { MustParse("x") })
	assert.Panics(t, func() { MustParse("x +") })
}

func TestProgramIsCopied(t *testing.T) {
	e := MustParse("x + 1")
	prog := e.Program()
	prog[0].Op = OpPush
	assert.Equal(t, "var push 1 add", e.Program().String())
}

func TestCallsAndDependsOnX(t *testing.T) {
	e := MustParse("exp(x) + tanh(exp(2))")
	assert.Equal(t, []string{"exp", "tanh"}, e.Program().Calls())
	assert.True(t, e.DependsOnX())
	assert.False(t, MustParse("cosh(1) * 2").DependsOnX())
}

func TestInstructionPositions(t *testing.T) {
	prog := MustParse("1 / exp(x)").Program()
	require.Len(t, prog, 4)
	assert.Equal(t, 1, prog[0].Pos)
	assert.Equal(t, 9, prog[1].Pos)
	assert.Equal(t, 5, prog[2].Pos)
	assert.Equal(t, 3, prog[3].Pos)
}

func TestEqual(t *testing.T) {
	a := MustParse("x")
	assert.True(t, a.Equal(MustParse("x")))
	assert.False(t, a.Equal(MustParse("x + 0")))
	assert.False(t, a.Equal(nil))
	var nilExpr *Expression
	assert.True(t, nilExpr.Equal(nil))
}
