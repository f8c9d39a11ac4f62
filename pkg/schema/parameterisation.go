package schema

import (
	"fmt"

	"github.com/bpxgo/validator/pkg/extension"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
	"github.com/bpxgo/validator/pkg/statekey"
)

// Shape is the form of a parameter set.
type Shape int

const (
	// ShapeFull has cell, electrolyte, both electrodes and separator
	ShapeFull Shape = iota
	// ShapeReduced has cell and both electrodes
	ShapeReduced
	// ShapePartial has any subset, every field optional
	ShapePartial
)

func (s Shape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapeReduced:
		return "reduced"
	case ShapePartial:
		return "partial"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Parameterisation section names.
const (
	SectionCell        = "Cell"
	SectionElectrolyte = "Electrolyte"
	SectionNegative    = statekey.Negative
	SectionPositive    = statekey.Positive
	SectionSeparator   = "Separator"
	SectionUserDefined = "User-defined"
)

// Parameterisation is the decoded parameter set.
type Parameterisation struct {
	Shape       Shape
	Cell        *Cell
	Electrolyte *Electrolyte
	Negative    *Electrode
	Positive    *Electrode
	Separator   *Separator
	UserDefined *extension.Group
}

// DecodeParameterisation decodes raw as the given shape. The first
// violation aborts decoding.
func DecodeParameterisation(raw any, path issue.Path, shape Shape) (*Parameterisation, error) {
	partial := shape == ShapePartial
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}

	p := &Parameterisation{Shape: shape}
	o.Decode(SectionCell, true, func(v any, at issue.Path) error {
		p.Cell, err = DecodeCell(v, at, partial)
		return err
	})
	if shape != ShapeReduced {
		o.Decode(SectionElectrolyte, true, func(v any, at issue.Path) error {
			p.Electrolyte, err = DecodeElectrolyte(v, at, partial)
			return err
		})
	}
	o.Decode(SectionNegative, true, func(v any, at issue.Path) error {
		p.Negative, err = DecodeElectrode(v, at, shape)
		return err
	})
	o.Decode(SectionPositive, true, func(v any, at issue.Path) error {
		p.Positive, err = DecodeElectrode(v, at, shape)
		return err
	})
	if shape != ShapeReduced {
		o.Decode(SectionSeparator, true, func(v any, at issue.Path) error {
			p.Separator, err = DecodeSeparator(v, at, partial)
			return err
		})
	}
	o.Decode(SectionUserDefined, false, func(v any, at issue.Path) error {
		p.UserDefined, err = extension.Coerce(v, at)
		return err
	})

	if err := o.Close(); err != nil {
		return nil, err
	}
	return p, nil
}

// Electrode returns the electrode with the given section name, or nil.
func (p *Parameterisation) Electrode(name string) *Electrode {
	switch name {
	case SectionNegative:
		return p.Negative
	case SectionPositive:
		return p.Positive
	default:
		return nil
	}
}

// Layout describes the present electrodes and their materials for the
// State key checks.
func (p *Parameterisation) Layout() statekey.Layout {
	l := make(statekey.Layout, 2)
	for _, name := range []string{SectionNegative, SectionPositive} {
		if e := p.Electrode(name); e != nil {
			l[name] = e.MaterialNames()
		}
	}
	return l
}

// Raw renders the parameter set in document form.
func (p *Parameterisation) Raw() map[string]any {
	m := make(map[string]any)
	if p.Cell != nil {
		m[SectionCell] = p.Cell.Raw()
	}
	if p.Electrolyte != nil {
		m[SectionElectrolyte] = p.Electrolyte.Raw()
	}
	if p.Negative != nil {
		m[SectionNegative] = p.Negative.Raw()
	}
	if p.Positive != nil {
		m[SectionPositive] = p.Positive.Raw()
	}
	if p.Separator != nil {
		m[SectionSeparator] = p.Separator.Raw()
	}
	if p.UserDefined != nil {
		m[SectionUserDefined] = p.UserDefined.Raw()
	}
	return m
}
