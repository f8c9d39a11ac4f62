// Package section decodes closed objects of the raw document tree.
//
// An Object wraps one mapping and tracks which keys the caller consumed.
// Accessors record the first violation and return zero values afterwards,
// so a decoder can read every field in sequence and check Close once.
// Close reports that first violation, or else the first key (in sorted
// order) that no accessor consumed.
package section

import (
	"fmt"
	"sort"

	"github.com/bpxgo/validator/pkg/issue"
)

// Object is a closed mapping being decoded.
type Object struct {
	path    issue.Path
	fields  map[string]any
	seen    map[string]bool
	partial bool
	err     error
}

// Open starts decoding raw as a closed object at path. In partial mode
// required fields are treated as optional.
func Open(raw any, path issue.Path, partial bool) (*Object, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, issue.ErrorWithID(issue.DiagTypeObject, map[string]any{"type": TypeName(raw)}, path)
	}
	return &Object{
		path:    path,
		fields:  m,
		seen:    make(map[string]bool, len(m)),
		partial: partial,
	}, nil
}

// Path returns the path of the object.
func (o *Object) Path() issue.Path { return o.path }

// Partial reports whether required fields are relaxed.
func (o *Object) Partial() bool { return o.partial }

// Has reports whether key is present, without consuming it.
func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// Len returns the number of keys in the object.
func (o *Object) Len() int { return len(o.fields) }

// Err returns the first recorded violation.
func (o *Object) Err() error { return o.err }

// Fail records err unless a violation was already recorded.
func (o *Object) Fail(err error) {
	if o.err == nil && err != nil {
		o.err = err
	}
}

// Value consumes key and returns its raw value. A missing required key
// records a violation unless the object is partial.
func (o *Object) Value(key string, required bool) (any, bool) {
	if o.err != nil {
		return nil, false
	}
	v, ok := o.fields[key]
	if !ok {
		if required && !o.partial {
			o.Fail(issue.ErrorWithID(issue.DiagStructureMissingField, map[string]any{"field": key}, o.path.Child(key)))
		}
		return nil, false
	}
	o.seen[key] = true
	return v, true
}

// Decode consumes key and hands its value to fn. fn is not called when the
// key is absent or a violation was already recorded.
func (o *Object) Decode(key string, required bool, fn func(raw any, path issue.Path) error) {
	v, ok := o.Value(key, required)
	if !ok {
		return
	}
	o.Fail(fn(v, o.path.Child(key)))
}

// Float consumes a numeric field.
func (o *Object) Float(key string, required bool) *float64 {
	v, ok := o.Value(key, required)
	if !ok {
		return nil
	}
	f, ok := ToFloat(v)
	if !ok {
		o.Fail(issue.ErrorWithID(issue.DiagTypeNumber, map[string]any{"type": TypeName(v)}, o.path.Child(key)))
		return nil
	}
	return &f
}

// Int consumes an integral numeric field. 2.0 is accepted, 2.5 is not.
func (o *Object) Int(key string, required bool) *int {
	v, ok := o.Value(key, required)
	if !ok {
		return nil
	}
	n, ok := ToInt(v)
	if !ok {
		o.Fail(issue.ErrorWithID(issue.DiagTypeInteger, map[string]any{"value": Describe(v)}, o.path.Child(key)))
		return nil
	}
	return &n
}

// String consumes a text field.
func (o *Object) String(key string, required bool) *string {
	v, ok := o.Value(key, required)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		o.Fail(issue.ErrorWithID(issue.DiagTypeString, map[string]any{"type": TypeName(v)}, o.path.Child(key)))
		return nil
	}
	return &s
}

// Floats consumes a sequence of numbers.
func (o *Object) Floats(key string, required bool) []float64 {
	v, ok := o.Value(key, required)
	if !ok {
		return nil
	}
	out, err := FloatSlice(v, o.path.Child(key))
	if err != nil {
		o.Fail(err)
		return nil
	}
	return out
}

// Keys returns all keys of the object, sorted.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close returns the first violation, or an error naming the first
// unconsumed key.
func (o *Object) Close() error {
	if o.err != nil {
		return o.err
	}
	for _, k := range o.Keys() {
		if !o.seen[k] {
			return issue.ErrorWithID(issue.DiagStructureUnknownField, map[string]any{"field": k}, o.path.Child(k))
		}
	}
	return nil
}

// FloatSlice converts a raw sequence into numbers. The error names the
// offending element by index.
func FloatSlice(v any, path issue.Path) ([]float64, error) {
	seq, ok := v.([]any)
	if !ok {
		if fs, ok := typedFloats(v); ok {
			return fs, nil
		}
		return nil, issue.ErrorWithID(issue.DiagTypeSequence, map[string]any{"type": TypeName(v)}, path)
	}
	out := make([]float64, len(seq))
	for i, item := range seq {
		f, ok := ToFloat(item)
		if !ok {
			return nil, issue.ErrorWithID(issue.DiagTypeNumber, map[string]any{"type": TypeName(item)}, path.Child(fmt.Sprint(i)))
		}
		out[i] = f
	}
	return out, nil
}
