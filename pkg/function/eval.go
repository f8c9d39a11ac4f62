package function

import (
	"math"

	"github.com/bpxgo/validator/pkg/expression"
)

// step is an instruction with its call target resolved.
type step struct {
	expression.Instruction
	fn func(args ...float64) float64
}

// Func is a compiled expression of x. It is immutable and safe for
// concurrent use.
type Func struct {
	expr      *expression.Expression
	code      []step
	stackSize int
}

// Expression returns the source expression.
func (f *Func) Expression() *expression.Expression { return f.expr }

// String returns the source text.
func (f *Func) String() string { return f.expr.String() }

// Eval evaluates the function at x.
func (f *Func) Eval(x float64) (float64, error) {
	stack := make([]float64, 0, f.stackSize)

	for _, s := range f.code {
		switch s.Op {
		case expression.OpPush:
			stack = append(stack, s.Value)

		case expression.OpVar:
			stack = append(stack, x)

		case expression.OpNeg:
			stack[len(stack)-1] = -stack[len(stack)-1]

		case expression.OpCall:
			base := len(stack) - s.Argc
			args := stack[base:]
			v := s.fn(args...)
			if !finite(v) && allFinite(args) {
				return 0, f.fail(s, x, ErrNonFinite)
			}
			stack = append(stack[:base], v)

		default:
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			v, err := binary(s.Op, a, b)
			if err != nil {
				return 0, f.fail(s, x, err)
			}
			if !finite(v) && finite(a) && finite(b) {
				return 0, f.fail(s, x, ErrNonFinite)
			}
			stack = append(stack, v)
		}
	}
	return stack[0], nil
}

// EvalAll evaluates the function at each point in xs.
func (f *Func) EvalAll(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		v, err := f.Eval(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *Func) fail(s step, x float64, err error) error {
	return &EvalError{Expr: f.expr.String(), Pos: s.Pos, X: x, Err: err}
}

func binary(op expression.Op, a, b float64) (float64, error) {
	switch op {
	case expression.OpAdd:
		return a + b, nil
	case expression.OpSub:
		return a - b, nil
	case expression.OpMul:
		return a * b, nil
	case expression.OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return math.Pow(a, b), nil
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
