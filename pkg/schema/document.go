package schema

import (
	"sort"

	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
)

// Top-level section names.
const (
	SectionHeader           = "Header"
	SectionParameterisation = "Parameterisation"
	SectionState            = "State"
	SectionValidation       = "Validation"
)

// Experiment trace names.
const (
	TraceTime        = "Time [s]"
	TraceCurrent     = "Current [A]"
	TraceVoltage     = "Voltage [V]"
	TraceTemperature = "Temperature [K]"
)

// Experiment is one set of measured traces used to validate a model.
type Experiment struct {
	Time        []float64
	Current     []float64
	Voltage     []float64
	Temperature []float64
}

// DecodeExperiment decodes one experiment. All present traces must have as
// many samples as the time trace.
func DecodeExperiment(raw any, path issue.Path) (*Experiment, error) {
	o, err := section.Open(raw, path, false)
	if err != nil {
		return nil, err
	}
	e := &Experiment{
		Time:        o.Floats(TraceTime, true),
		Current:     o.Floats(TraceCurrent, true),
		Voltage:     o.Floats(TraceVoltage, true),
		Temperature: o.Floats(TraceTemperature, false),
	}
	if err := o.Close(); err != nil {
		return nil, err
	}

	want := len(e.Time)
	for _, tr := range []struct {
		name    string
		samples []float64
	}{
		{TraceCurrent, e.Current},
		{TraceVoltage, e.Voltage},
		{TraceTemperature, e.Temperature},
	} {
		if tr.samples != nil && len(tr.samples) != want {
			return nil, issue.ErrorWithID(issue.DiagTraceLength,
				map[string]any{"trace": tr.name, "count": len(tr.samples), "want": want}, path.Child(tr.name))
		}
	}
	return e, nil
}

// DecodeValidation decodes the Validation section: experiment name to
// traces. Experiments are decoded in name order.
func DecodeValidation(raw any, path issue.Path) (map[string]*Experiment, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, issue.ErrorWithID(issue.DiagTypeObject, map[string]any{"type": section.TypeName(raw)}, path)
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*Experiment, len(m))
	for _, name := range names {
		e, err := DecodeExperiment(m[name], path.Child(name))
		if err != nil {
			return nil, err
		}
		out[name] = e
	}
	return out, nil
}

// Raw renders the experiment in document form.
func (e *Experiment) Raw() map[string]any {
	m := make(map[string]any)
	putFloats(m, TraceTime, e.Time)
	putFloats(m, TraceCurrent, e.Current)
	putFloats(m, TraceVoltage, e.Voltage)
	putFloats(m, TraceTemperature, e.Temperature)
	return m
}

// Document is a validated BPX document. It is built once by the validator
// and never mutated.
type Document struct {
	Header           *Header
	Parameterisation *Parameterisation
	State            *State
	Validation       map[string]*Experiment
}

// Raw renders the document as a raw tree that validates to an equal
// Document.
func (d *Document) Raw() map[string]any {
	m := map[string]any{
		SectionHeader:           d.Header.Raw(),
		SectionParameterisation: d.Parameterisation.Raw(),
	}
	if d.State != nil {
		m[SectionState] = d.State.Raw()
	}
	if d.Validation != nil {
		v := make(map[string]any, len(d.Validation))
		for name, e := range d.Validation {
			v[name] = e.Raw()
		}
		m[SectionValidation] = v
	}
	return m
}
