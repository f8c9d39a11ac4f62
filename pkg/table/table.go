// Package table holds tabulated parameter data: paired domain (x) and
// range (y) samples of equal length.
package table

import (
	"errors"
	"fmt"

	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
)

// Wire keys of the object form.
const (
	KeyDomain = "x"
	KeyRange  = "y"
)

// ErrLengthMismatch is returned by New when x and y differ in length.
var ErrLengthMismatch = errors.New("x & y should be same length")

// Table is an immutable pair of equal-length sequences. An empty table is
// valid.
type Table struct {
	x []float64
	y []float64
}

// New copies domain and rng into a Table.
func New(domain, rng []float64) (*Table, error) {
	if len(domain) != len(rng) {
		return nil, fmt.Errorf("%w (%d != %d)", ErrLengthMismatch, len(domain), len(rng))
	}
	return &Table{
		x: append([]float64{}, domain...),
		y: append([]float64{}, rng...),
	}, nil
}

// Len returns the number of samples.
func (t *Table) Len() int { return len(t.x) }

// Domain returns a copy of the x samples.
func (t *Table) Domain() []float64 { return append([]float64{}, t.x...) }

// Range returns a copy of the y samples.
func (t *Table) Range() []float64 { return append([]float64{}, t.y...) }

// Equal reports whether both tables hold the same samples.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.x) != len(other.x) {
		return false
	}
	for i := range t.x {
		if t.x[i] != other.x[i] || t.y[i] != other.y[i] {
			return false
		}
	}
	return true
}

// Raw renders the table in its object form.
func (t *Table) Raw() map[string]any {
	return map[string]any{
		KeyDomain: toRaw(t.x),
		KeyRange:  toRaw(t.y),
	}
}

func toRaw(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

// IsCandidate reports whether raw looks like a table: a non-empty mapping
// whose values are all sequences.
func IsCandidate(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return false
	}
	for _, v := range m {
		if !section.IsSequence(v) {
			return false
		}
	}
	return true
}

// Decode builds a Table from its object form {"x": [...], "y": [...]}.
// The object is closed: any other key is rejected.
func Decode(raw any, path issue.Path) (*Table, error) {
	obj, err := section.Open(raw, path, false)
	if err != nil {
		return nil, err
	}
	x := obj.Floats(KeyDomain, true)
	y := obj.Floats(KeyRange, true)
	if err := obj.Close(); err != nil {
		return nil, err
	}

	t, err := New(x, y)
	if err != nil {
		return nil, issue.ErrorWithID(issue.DiagTableLength,
			map[string]any{"x": len(x), "y": len(y)}, path).Wrap(err)
	}
	return t, nil
}
