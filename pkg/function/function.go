// Package function compiles parsed expressions into evaluable functions of x.
//
// Compilation resolves every call against the compiler's approved function
// set and checks stack discipline; evaluation runs the postfix program on a
// small value stack. No source is generated and no code is loaded, so an
// expression can only ever reach the approved functions.
package function

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bpxgo/validator/cache"
	"github.com/bpxgo/validator/pkg/expression"
)

// Errors wrapped by *CompileError and *EvalError.
var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrArity           = errors.New("wrong number of arguments")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNonFinite       = errors.New("non-finite result")
)

// Builtin is an approved function callable from expressions.
type Builtin struct {
	Name  string
	Arity int
	Fn    func(args ...float64) float64
}

// CompileError reports a call the compiler cannot resolve.
type CompileError struct {
	Expr string
	Pos  int
	Name string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v '%s' at column %d in %q", e.Err, e.Name, e.Pos, e.Expr)
}

func (e *CompileError) Unwrap() error { return e.Err }

// EvalError reports a failure while evaluating a compiled function.
type EvalError struct {
	Expr string
	Pos  int
	X    float64
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%v at column %d evaluating %q at x=%g", e.Err, e.Pos, e.Expr, e.X)
}

func (e *EvalError) Unwrap() error { return e.Err }

// defaultBuiltins is the approved set every compiler starts with.
func defaultBuiltins() map[string]Builtin {
	unary := func(name string, f func(float64) float64) Builtin {
		return Builtin{Name: name, Arity: 1, Fn: func(a ...float64) float64 { return f(a[0]) }}
	}
	return map[string]Builtin{
		"exp":  unary("exp", math.Exp),
		"tanh": unary("tanh", math.Tanh),
		"cosh": unary("cosh", math.Cosh),
	}
}

// Compiler turns expressions into Funcs. A Compiler is safe for concurrent
// use once constructed.
type Compiler struct {
	builtins map[string]Builtin
	cache    *cache.Cache[string, *Func]
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFunction adds (or replaces) an approved function.
func WithFunction(name string, arity int, fn func(args ...float64) float64) Option {
	return func(c *Compiler) {
		c.builtins[name] = Builtin{Name: name, Arity: arity, Fn: fn}
	}
}

// WithCache memoises compiled functions by expression text. The cache must
// not be shared with a compiler that has a different function set.
func WithCache(fc *cache.Cache[string, *Func]) Option {
	return func(c *Compiler) {
		c.cache = fc
	}
}

// NewCompiler creates a compiler with the default approved set
// (exp, tanh, cosh) plus any added by options.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{builtins: defaultBuiltins()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names returns the approved function names, sorted.
func (c *Compiler) Names() []string {
	names := make([]string, 0, len(c.builtins))
	for name := range c.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile resolves e against the approved set.
func (c *Compiler) Compile(e *expression.Expression) (*Func, error) {
	if c.cache == nil {
		return c.compile(e)
	}
	return c.cache.GetOrCompute(e.String(), func() (*Func, error) {
		return c.compile(e)
	})
}

// CompileString parses and compiles text in one step.
func (c *Compiler) CompileString(text string) (*Func, error) {
	e, err := expression.Parse(text)
	if err != nil {
		return nil, err
	}
	return c.Compile(e)
}

func (c *Compiler) compile(e *expression.Expression) (*Func, error) {
	prog := e.Program()
	code := make([]step, len(prog))
	depth, maxDepth := 0, 0

	for i, in := range prog {
		s := step{Instruction: in}
		switch in.Op {
		case expression.OpPush, expression.OpVar:
			depth++
		case expression.OpNeg:
			// pops one, pushes one
		case expression.OpAdd, expression.OpSub, expression.OpMul, expression.OpDiv, expression.OpPow:
			depth--
		case expression.OpCall:
			b, ok := c.builtins[in.Name]
			if !ok {
				return nil, &CompileError{Expr: e.String(), Pos: in.Pos, Name: in.Name, Err: ErrUnknownFunction}
			}
			if b.Arity != in.Argc {
				return nil, &CompileError{
					Expr: e.String(),
					Pos:  in.Pos,
					Name: in.Name,
					Err:  fmt.Errorf("%w: want %d, got %d", ErrArity, b.Arity, in.Argc),
				}
			}
			s.fn = b.Fn
			depth += 1 - in.Argc
		default:
			return nil, fmt.Errorf("compile %q: unsupported opcode %s", e.String(), in.Op)
		}
		if depth < 1 {
			return nil, fmt.Errorf("compile %q: stack underflow at column %d", e.String(), in.Pos)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		code[i] = s
	}
	if depth != 1 {
		return nil, fmt.Errorf("compile %q: program leaves %d values on the stack", e.String(), depth)
	}

	return &Func{expr: e, code: code, stackSize: maxDepth}, nil
}
