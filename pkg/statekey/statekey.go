// Package statekey validates the per-electrode keys of the BPX State section.
//
// Keys have the form "<Label>: <Electrode>" with an optional trailing
// ": <Material>". A single-material electrode takes a plain number; a
// blended electrode takes an object mapping each of its materials to a
// number. The older flat form "<Label>: <Electrode>: <Material>" is still
// accepted for blended electrodes, with a deprecation warning.
package statekey

import (
	"sort"
	"strings"

	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
)

// Electrode names allowed in keys.
const (
	Negative = "Negative electrode"
	Positive = "Positive electrode"
)

// Separator between key parts.
const Separator = ": "

// Layout describes the electrodes present in the parameterisation. Each
// present electrode maps to its material names; a single-material
// electrode maps to an empty slice.
type Layout map[string][]string

// Blended reports whether electrode carries a material map.
func (l Layout) Blended(electrode string) bool {
	return len(l[electrode]) > 0
}

// Entry is the validated value of one "<Label>: <Electrode>" field.
type Entry struct {
	Label     string
	Electrode string

	// Value is set for a single-material electrode
	Value *float64

	// Materials is set for a blended electrode
	Materials map[string]float64
}

// Field returns the canonical key "<Label>: <Electrode>".
func (e *Entry) Field() string { return e.Label + Separator + e.Electrode }

// Raw renders the entry in its canonical document form.
func (e *Entry) Raw() any {
	if e.Materials == nil {
		return *e.Value
	}
	out := make(map[string]any, len(e.Materials))
	for k, v := range e.Materials {
		out[k] = v
	}
	return out
}

// Values holds validated entries keyed by their canonical field.
type Values map[string]*Entry

// Get returns the entry for label and electrode.
func (v Values) Get(label, electrode string) (*Entry, bool) {
	e, ok := v[label+Separator+electrode]
	return e, ok
}

// Raw renders every entry under its canonical key.
func (v Values) Raw() map[string]any {
	out := make(map[string]any, len(v))
	for k, e := range v {
		out[k] = e.Raw()
	}
	return out
}

type pending struct {
	entry  *Entry
	key    string // key the entry was first seen under
	mapped bool   // given in map form
	legacy bool   // given as per-material keys
}

// Collect consumes every key of obj that starts with one of labels and
// validates it against layout. Keys that do not start with a label are
// left for obj.Close to report. Deprecated per-material keys add a warning
// to warnings and are merged into map form.
func Collect(obj *section.Object, labels []string, layout Layout, warnings *issue.Result) (Values, error) {
	base := obj.Path()
	found := make(map[string]*pending)
	var order []string

	for _, key := range obj.Keys() {
		label, rest, ok := splitLabel(key, labels)
		if !ok {
			continue
		}
		raw, _ := obj.Value(key, false)
		path := base.Child(key)

		parts := strings.SplitN(rest, Separator, 2)
		electrode := parts[0]
		if electrode == "" {
			return nil, issue.ErrorWithID(issue.DiagStateKeyMalformed, map[string]any{"key": key}, path)
		}
		if electrode != Negative && electrode != Positive {
			return nil, issue.ErrorWithID(issue.DiagStateKeyElectrode,
				map[string]any{"electrode": electrode, "key": key}, path)
		}
		materials, present := layout[electrode]
		if !present {
			return nil, issue.ErrorWithID(issue.DiagStateKeyAbsent,
				map[string]any{"electrode": electrode, "key": key}, path)
		}

		field := label + Separator + electrode
		p, seen := found[field]
		if !seen {
			p = &pending{entry: &Entry{Label: label, Electrode: electrode}, key: key}
			found[field] = p
			order = append(order, field)
		}

		if len(parts) == 2 {
			material := parts[1]
			if material == "" {
				return nil, issue.ErrorWithID(issue.DiagStateKeyMalformed, map[string]any{"key": key}, path)
			}
			if len(materials) == 0 {
				return nil, issue.ErrorWithID(issue.DiagStateKeyMaterialDenied,
					map[string]any{"field": field, "material": material}, path)
			}
			if p.mapped {
				return nil, issue.ErrorWithID(issue.DiagStateKeyMixed, map[string]any{"field": field}, path)
			}
			v, ok := section.ToFloat(raw)
			if !ok {
				return nil, issue.ErrorWithID(issue.DiagTypeNumber, map[string]any{"type": section.TypeName(raw)}, path)
			}
			if p.entry.Materials == nil {
				p.entry.Materials = make(map[string]float64)
			}
			p.entry.Materials[material] = v
			p.legacy = true
			warnings.AddWarningWithID(issue.DiagDeprecatedMaterialKey, map[string]any{"key": key, "field": field}, path)
			continue
		}

		if len(materials) == 0 {
			v, ok := section.ToFloat(raw)
			if !ok {
				return nil, issue.ErrorWithID(issue.DiagStateKeyScalar, map[string]any{"field": field}, path)
			}
			p.entry.Value = &v
			continue
		}

		if p.legacy {
			return nil, issue.ErrorWithID(issue.DiagStateKeyMixed, map[string]any{"field": field}, path)
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, issue.ErrorWithID(issue.DiagStateKeyMap,
				map[string]any{"field": field, "expected": issue.QuoteList(materials)}, path)
		}
		p.entry.Materials = make(map[string]float64, len(m))
		for name, mv := range m {
			v, ok := section.ToFloat(mv)
			if !ok {
				return nil, issue.ErrorWithID(issue.DiagTypeNumber,
					map[string]any{"type": section.TypeName(mv)}, path.Child(name))
			}
			p.entry.Materials[name] = v
		}
		p.mapped = true
	}

	out := make(Values, len(found))
	for _, field := range order {
		p := found[field]
		materials := layout[p.entry.Electrode]
		if len(materials) > 0 {
			if err := checkMaterials(p.entry, materials, base.Child(p.key)); err != nil {
				return nil, err
			}
		}
		out[field] = p.entry
	}
	return out, nil
}

// splitLabel matches "<Label>: rest" for one of labels.
func splitLabel(key string, labels []string) (label, rest string, ok bool) {
	for _, l := range labels {
		if strings.HasPrefix(key, l+Separator) {
			return l, key[len(l)+len(Separator):], true
		}
		if key == l || strings.HasPrefix(key, l+":") {
			return l, "", true
		}
	}
	return "", "", false
}

// checkMaterials requires the entry's material set to equal want exactly.
func checkMaterials(e *Entry, want []string, path issue.Path) error {
	wantSet := make(map[string]bool, len(want))
	for _, m := range want {
		wantSet[m] = true
	}

	var missing, unexpected []string
	for _, m := range want {
		if _, ok := e.Materials[m]; !ok {
			missing = append(missing, m)
		}
	}
	for m := range e.Materials {
		if !wantSet[m] {
			unexpected = append(unexpected, m)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unexpected)

	var details []string
	if len(missing) > 0 {
		details = append(details, "missing "+issue.QuoteList(missing))
	}
	if len(unexpected) > 0 {
		details = append(details, "unexpected "+issue.QuoteList(unexpected))
	}
	return issue.ErrorWithID(issue.DiagStateKeyMismatch, map[string]any{
		"field":    e.Field(),
		"expected": issue.QuoteList(want),
		"details":  strings.Join(details, "; "),
	}, path)
}
