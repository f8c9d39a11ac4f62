package schema

import (
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
	"github.com/bpxgo/validator/pkg/statekey"
)

// State section and field names.
const (
	SectionInitialConditions = "Initial conditions"
	SectionThermalState      = "Thermal state"
	SectionDegradation       = "Degradation"

	FieldInitialSOC   = "Initial state of charge"
	FieldHeatTransfer = "Heat transfer coefficient [W.m-2.K-1]"
	LabelHysteresis   = "Initial hysteresis state"
	LabelLAM          = "LAM"
	LabelLLI          = "LLI"
)

// InitialConditions holds the initial state of the cell.
type InitialConditions struct {
	InitialSOC *float64
	Hysteresis statekey.Values
}

// ThermalState holds the initial thermal state.
type ThermalState struct {
	InitialTemperature *float64
	HeatTransfer       *float64
}

// Degradation holds per-electrode degradation state.
type Degradation struct {
	LAM statekey.Values
	LLI statekey.Values
}

// State is the optional operating state of the cell.
type State struct {
	InitialConditions *InitialConditions
	Thermal           *ThermalState
	Degradation       *Degradation
}

// DecodeState decodes the State section. Per-electrode keys are checked
// against the electrodes in params. In partial mode the initial state of
// charge may be omitted.
func DecodeState(raw any, path issue.Path, params *Parameterisation, partial bool, warnings *issue.Result) (*State, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	layout := params.Layout()

	s := &State{}
	o.Decode(SectionInitialConditions, true, func(v any, at issue.Path) error {
		s.InitialConditions, err = decodeInitialConditions(v, at, layout, partial, warnings)
		return err
	})
	o.Decode(SectionThermalState, false, func(v any, at issue.Path) error {
		s.Thermal, err = decodeThermalState(v, at)
		return err
	})
	o.Decode(SectionDegradation, false, func(v any, at issue.Path) error {
		s.Degradation, err = decodeDegradation(v, at, layout, warnings)
		return err
	})

	if err := o.Close(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeInitialConditions(raw any, path issue.Path, layout statekey.Layout, partial bool, warnings *issue.Result) (*InitialConditions, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	ic := &InitialConditions{InitialSOC: o.Float(FieldInitialSOC, true)}
	if ic.InitialSOC != nil && (*ic.InitialSOC < 0 || *ic.InitialSOC > 1) {
		o.Fail(issue.ErrorWithID(issue.DiagValueRange,
			map[string]any{"value": *ic.InitialSOC, "min": 0, "max": 1}, path.Child(FieldInitialSOC)))
	}
	if o.Err() == nil {
		ic.Hysteresis, err = statekey.Collect(o, []string{LabelHysteresis}, layout, warnings)
		o.Fail(err)
	}
	if err := o.Close(); err != nil {
		return nil, err
	}
	return ic, nil
}

func decodeThermalState(raw any, path issue.Path) (*ThermalState, error) {
	o, err := section.Open(raw, path, false)
	if err != nil {
		return nil, err
	}
	ts := &ThermalState{
		InitialTemperature: o.Float(FieldInitialTemperature, false),
		HeatTransfer:       o.Float(FieldHeatTransfer, false),
	}
	if err := o.Close(); err != nil {
		return nil, err
	}
	return ts, nil
}

func decodeDegradation(raw any, path issue.Path, layout statekey.Layout, warnings *issue.Result) (*Degradation, error) {
	o, err := section.Open(raw, path, false)
	if err != nil {
		return nil, err
	}
	values, err := statekey.Collect(o, []string{LabelLAM, LabelLLI}, layout, warnings)
	if err != nil {
		return nil, err
	}
	if err := o.Close(); err != nil {
		return nil, err
	}

	d := &Degradation{LAM: statekey.Values{}, LLI: statekey.Values{}}
	for field, e := range values {
		if e.Label == LabelLAM {
			d.LAM[field] = e
		} else {
			d.LLI[field] = e
		}
	}
	return d, nil
}

// Raw renders the state in document form.
func (s *State) Raw() map[string]any {
	m := make(map[string]any)
	if ic := s.InitialConditions; ic != nil {
		sec := ic.Hysteresis.Raw()
		putFloat(sec, FieldInitialSOC, ic.InitialSOC)
		m[SectionInitialConditions] = sec
	}
	if ts := s.Thermal; ts != nil {
		sec := make(map[string]any)
		putFloat(sec, FieldInitialTemperature, ts.InitialTemperature)
		putFloat(sec, FieldHeatTransfer, ts.HeatTransfer)
		m[SectionThermalState] = sec
	}
	if d := s.Degradation; d != nil {
		sec := d.LAM.Raw()
		for k, v := range d.LLI.Raw() {
			sec[k] = v
		}
		m[SectionDegradation] = sec
	}
	return m
}
