// Package stoichiometry maps a target state of charge to electrode
// stoichiometries and concentrations by linear interpolation between the
// limits declared in a parameter set.
package stoichiometry

import (
	"errors"
	"fmt"

	"github.com/bpxgo/validator/pkg/schema"
)

var (
	// ErrSOCRange is returned for a target outside [0, 1].
	ErrSOCRange = errors.New("Target SOC should be between 0 and 1")

	// ErrUnsupported is returned when an electrode is missing, blended, or
	// lacks the fields the calculation needs.
	ErrUnsupported = errors.New("electrode does not support stoichiometry calculation")
)

type limits struct {
	stoMin, stoMax, cMax *float64
}

func particle(p *schema.Parameterisation, name string) (limits, error) {
	e := p.Electrode(name)
	if e == nil {
		return limits{}, fmt.Errorf("%w: %s is missing", ErrUnsupported, name)
	}
	if e.HasMaterialMap || e.Particle == nil {
		return limits{}, fmt.Errorf("%w: %s is blended", ErrUnsupported, name)
	}
	l := limits{
		stoMin: e.Particle.MinimumStoichiometry,
		stoMax: e.Particle.MaximumStoichiometry,
		cMax:   e.Particle.MaximumConcentration,
	}
	if l.stoMin == nil || l.stoMax == nil {
		return limits{}, fmt.Errorf("%w: %s has no stoichiometry limits", ErrUnsupported, name)
	}
	return l, nil
}

// Stoichiometries returns the negative and positive electrode
// stoichiometries at soc:
//
//	sto_n = (n_max - n_min) * soc + n_min
//	sto_p = p_max - (p_max - p_min) * soc
func Stoichiometries(p *schema.Parameterisation, soc float64) (neg, pos float64, err error) {
	if soc < 0 || soc > 1 {
		return 0, 0, ErrSOCRange
	}
	n, err := particle(p, schema.SectionNegative)
	if err != nil {
		return 0, 0, err
	}
	ps, err := particle(p, schema.SectionPositive)
	if err != nil {
		return 0, 0, err
	}
	neg = (*n.stoMax-*n.stoMin)*soc + *n.stoMin
	pos = *ps.stoMax - (*ps.stoMax-*ps.stoMin)*soc
	return neg, pos, nil
}

// Concentrations returns the electrode concentrations at soc, in mol.m-3.
func Concentrations(p *schema.Parameterisation, soc float64) (neg, pos float64, err error) {
	stoN, stoP, err := Stoichiometries(p, soc)
	if err != nil {
		return 0, 0, err
	}
	n, _ := particle(p, schema.SectionNegative)
	ps, _ := particle(p, schema.SectionPositive)
	if n.cMax == nil || ps.cMax == nil {
		return 0, 0, fmt.Errorf("%w: maximum concentration is missing", ErrUnsupported)
	}
	return stoN * *n.cMax, stoP * *ps.cMax, nil
}
