// Package quantity implements parameters that may be given as a constant, an
// expression of one variable, or a table.
package quantity

import (
	"fmt"

	"github.com/bpxgo/validator/pkg/expression"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
	"github.com/bpxgo/validator/pkg/table"
)

// Kind tells which representation a Quantity holds.
type Kind int

const (
	Constant Kind = iota
	Expression
	Table
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Expression:
		return "expression"
	case Table:
		return "table"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Quantity holds exactly one of a constant, an expression or a table.
type Quantity struct {
	kind  Kind
	value float64
	expr  *expression.Expression
	table *table.Table
}

// FromConstant wraps a number.
func FromConstant(v float64) *Quantity {
	return &Quantity{kind: Constant, value: v}
}

// FromExpression wraps a parsed expression.
func FromExpression(e *expression.Expression) *Quantity {
	return &Quantity{kind: Expression, expr: e}
}

// FromTable wraps a table.
func FromTable(t *table.Table) *Quantity {
	return &Quantity{kind: Table, table: t}
}

// Kind reports the representation.
func (q *Quantity) Kind() Kind { return q.kind }

// Constant returns the number, if the quantity is a constant.
func (q *Quantity) Constant() (float64, bool) {
	return q.value, q.kind == Constant
}

// Expression returns the expression, if the quantity is one.
func (q *Quantity) Expression() (*expression.Expression, bool) {
	return q.expr, q.kind == Expression
}

// Table returns the table, if the quantity is one.
func (q *Quantity) Table() (*table.Table, bool) {
	return q.table, q.kind == Table
}

// Raw renders the quantity in document form.
func (q *Quantity) Raw() any {
	switch q.kind {
	case Expression:
		return q.expr.String()
	case Table:
		return q.table.Raw()
	default:
		return q.value
	}
}

// String is used in log and dump output.
func (q *Quantity) String() string {
	switch q.kind {
	case Expression:
		return q.expr.String()
	case Table:
		return fmt.Sprintf("table(%d)", q.table.Len())
	default:
		return fmt.Sprint(q.value)
	}
}

// Equal compares kind and content.
func (q *Quantity) Equal(other *Quantity) bool {
	if q == nil || other == nil {
		return q == other
	}
	if q.kind != other.kind {
		return false
	}
	switch q.kind {
	case Expression:
		return q.expr.Equal(other.expr)
	case Table:
		return q.table.Equal(other.table)
	default:
		return q.value == other.value
	}
}

// Decode reads a quantity from its raw form: a number, an expression
// string, or a table object.
func Decode(raw any, path issue.Path) (*Quantity, error) {
	switch v := raw.(type) {
	case string:
		e, err := expression.Parse(v)
		if err != nil {
			return nil, issue.ErrorWithID(issue.DiagExpressionInvalid, map[string]any{"error": err}, path).Wrap(err)
		}
		return FromExpression(e), nil
	case map[string]any:
		t, err := table.Decode(v, path)
		if err != nil {
			return nil, err
		}
		return FromTable(t), nil
	default:
		if f, ok := section.ToFloat(raw); ok {
			return FromConstant(f), nil
		}
		return nil, issue.ErrorWithID(issue.DiagTypeQuantity, map[string]any{"type": section.TypeName(raw)}, path)
	}
}

// Field consumes key from obj as a quantity.
func Field(obj *section.Object, key string, required bool) *Quantity {
	var q *Quantity
	obj.Decode(key, required, func(raw any, path issue.Path) error {
		var err error
		q, err = Decode(raw, path)
		return err
	})
	return q
}
