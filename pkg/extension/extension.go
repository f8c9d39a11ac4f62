// Package extension coerces the open "User-defined" section of a BPX
// parameterisation.
//
// User-defined data is not described by a schema, so each value is
// classified by its raw shape: strings become expressions, numbers become
// constants, objects of sequences become tables and other objects become
// nested groups. Anything else is rejected with the offending key named.
package extension

import (
	"sort"

	"github.com/bpxgo/validator/pkg/expression"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/quantity"
	"github.com/bpxgo/validator/pkg/section"
	"github.com/bpxgo/validator/pkg/table"
)

// DescriptionKey is the reserved key holding free text.
const DescriptionKey = "description"

// Group is a coerced User-defined object.
type Group struct {
	Description *string
	Values      map[string]*quantity.Quantity
	Groups      map[string]*Group
}

func newGroup() *Group {
	return &Group{
		Values: make(map[string]*quantity.Quantity),
		Groups: make(map[string]*Group),
	}
}

// Coerce classifies every value of raw, depth first. The first offending
// key (in sorted order at each level) aborts with an *issue.Error.
func Coerce(raw any, path issue.Path) (*Group, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, issue.ErrorWithID(issue.DiagTypeObject, map[string]any{"type": section.TypeName(raw)}, path)
	}

	g := newGroup()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := g.add(key, m[key], path.Child(key)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Group) add(key string, v any, path issue.Path) error {
	if key == DescriptionKey {
		s, ok := v.(string)
		if !ok {
			return issue.ErrorWithID(issue.DiagExtensionDescription, map[string]any{"type": section.TypeName(v)}, path)
		}
		g.Description = &s
		return nil
	}

	switch val := v.(type) {
	case string:
		e, err := expression.Parse(val)
		if err != nil {
			return issue.ErrorWithID(issue.DiagExpressionInvalid, map[string]any{"error": err}, path).Wrap(err)
		}
		g.Values[key] = quantity.FromExpression(e)

	case map[string]any:
		switch classify(val) {
		case shapeTable:
			t, err := table.Decode(val, path)
			if err != nil {
				return err
			}
			g.Values[key] = quantity.FromTable(t)
		case shapeMixed:
			return issue.ErrorWithID(issue.DiagExtensionAmbiguous, map[string]any{"key": key}, path)
		default:
			sub, err := Coerce(val, path)
			if err != nil {
				return err
			}
			g.Groups[key] = sub
		}

	default:
		f, ok := section.ToFloat(v)
		if !ok {
			return issue.ErrorWithID(issue.DiagExtensionLeaf, map[string]any{"key": key, "type": section.TypeName(v)}, path)
		}
		g.Values[key] = quantity.FromConstant(f)
	}
	return nil
}

type shape int

const (
	shapeGroup shape = iota
	shapeTable
	shapeMixed
)

func classify(m map[string]any) shape {
	if table.IsCandidate(m) {
		return shapeTable
	}
	for _, v := range m {
		if section.IsSequence(v) {
			return shapeMixed
		}
	}
	return shapeGroup
}

// Lookup follows keys through nested groups to a value.
func (g *Group) Lookup(keys ...string) (*quantity.Quantity, bool) {
	cur := g
	for i, k := range keys {
		if i == len(keys)-1 {
			q, ok := cur.Values[k]
			return q, ok
		}
		next, ok := cur.Groups[k]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Len returns the number of direct values and groups.
func (g *Group) Len() int { return len(g.Values) + len(g.Groups) }

// Raw renders the group in document form.
func (g *Group) Raw() map[string]any {
	out := make(map[string]any, g.Len()+1)
	if g.Description != nil {
		out[DescriptionKey] = *g.Description
	}
	for k, q := range g.Values {
		out[k] = q.Raw()
	}
	for k, sub := range g.Groups {
		out[k] = sub.Raw()
	}
	return out
}

// Equal compares two groups recursively.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	if (g.Description == nil) != (other.Description == nil) {
		return false
	}
	if g.Description != nil && *g.Description != *other.Description {
		return false
	}
	if len(g.Values) != len(other.Values) || len(g.Groups) != len(other.Groups) {
		return false
	}
	for k, q := range g.Values {
		if !q.Equal(other.Values[k]) {
			return false
		}
	}
	for k, sub := range g.Groups {
		if !sub.Equal(other.Groups[k]) {
			return false
		}
	}
	return true
}
