package schema

import (
	"sort"

	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/quantity"
	"github.com/bpxgo/validator/pkg/section"
)

// Particle field names.
const (
	FieldMinimumStoichiometry         = "Minimum stoichiometry"
	FieldMaximumStoichiometry         = "Maximum stoichiometry"
	FieldMaximumConcentration         = "Maximum concentration [mol.m-3]"
	FieldParticleRadius               = "Particle radius [m]"
	FieldSurfaceAreaPerUnitVolume     = "Surface area per unit volume [m-1]"
	FieldOCP                          = "OCP [V]"
	FieldEntropicChange               = "Entropic change coefficient [V.K-1]"
	FieldReactionRateConstant         = "Reaction rate constant [mol.m-2.s-1]"
	FieldReactionRateActivationEnergy = "Reaction rate constant activation energy [J.mol-1]"
	FieldParticle                     = "Particle"
)

// Particle holds the active-material parameters of an electrode.
type Particle struct {
	MinimumStoichiometry         *float64
	MaximumStoichiometry         *float64
	MaximumConcentration         *float64
	ParticleRadius               *float64
	SurfaceAreaPerUnitVolume     *float64
	Diffusivity                  *quantity.Quantity
	DiffusivityActivationEnergy  *float64
	OCP                          *quantity.Quantity
	EntropicChange               *quantity.Quantity
	ReactionRateConstant         *float64
	ReactionRateActivationEnergy *float64
}

func readParticle(o *section.Object) *Particle {
	return &Particle{
		MinimumStoichiometry:         o.Float(FieldMinimumStoichiometry, true),
		MaximumStoichiometry:         o.Float(FieldMaximumStoichiometry, true),
		MaximumConcentration:         o.Float(FieldMaximumConcentration, true),
		ParticleRadius:               o.Float(FieldParticleRadius, true),
		SurfaceAreaPerUnitVolume:     o.Float(FieldSurfaceAreaPerUnitVolume, true),
		Diffusivity:                  quantity.Field(o, FieldDiffusivity, true),
		DiffusivityActivationEnergy:  o.Float(FieldDiffusivityActivationEnergy, false),
		OCP:                          quantity.Field(o, FieldOCP, true),
		EntropicChange:               quantity.Field(o, FieldEntropicChange, false),
		ReactionRateConstant:         o.Float(FieldReactionRateConstant, true),
		ReactionRateActivationEnergy: o.Float(FieldReactionRateActivationEnergy, false),
	}
}

// DecodeParticle decodes one entry of a blended electrode's material map.
func DecodeParticle(raw any, path issue.Path, partial bool) (*Particle, error) {
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}
	p := readParticle(o)
	if err := o.Close(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Particle) writeRaw(m map[string]any) {
	putFloat(m, FieldMinimumStoichiometry, p.MinimumStoichiometry)
	putFloat(m, FieldMaximumStoichiometry, p.MaximumStoichiometry)
	putFloat(m, FieldMaximumConcentration, p.MaximumConcentration)
	putFloat(m, FieldParticleRadius, p.ParticleRadius)
	putFloat(m, FieldSurfaceAreaPerUnitVolume, p.SurfaceAreaPerUnitVolume)
	putQuantity(m, FieldDiffusivity, p.Diffusivity)
	putFloat(m, FieldDiffusivityActivationEnergy, p.DiffusivityActivationEnergy)
	putQuantity(m, FieldOCP, p.OCP)
	putQuantity(m, FieldEntropicChange, p.EntropicChange)
	putFloat(m, FieldReactionRateConstant, p.ReactionRateConstant)
	putFloat(m, FieldReactionRateActivationEnergy, p.ReactionRateActivationEnergy)
}

// Raw renders the particle in document form.
func (p *Particle) Raw() map[string]any {
	m := make(map[string]any)
	p.writeRaw(m)
	return m
}

// Electrode holds one electrode. Exactly one of Particle and Materials is
// set, selected by HasMaterialMap.
type Electrode struct {
	// Style is ShapeFull or ShapeReduced
	Style Shape

	Thickness           *float64
	Porosity            *float64
	TransportEfficiency *float64
	Conductivity        *float64

	// HasMaterialMap is true for a blended electrode
	HasMaterialMap bool

	// Particle is the inline active material of a single-material electrode
	Particle *Particle

	// Materials maps material names to particles for a blended electrode
	Materials map[string]*Particle
}

// fullOnlyFields distinguish a full-style electrode from a reduced one.
var fullOnlyFields = []string{FieldPorosity, FieldTransportEfficiency, FieldConductivity}

// DecodeElectrode decodes an electrode in the given style. With
// ShapePartial the style is inferred: full if any full-only field is
// present, reduced otherwise, and every field is optional.
func DecodeElectrode(raw any, path issue.Path, shape Shape) (*Electrode, error) {
	partial := shape == ShapePartial
	o, err := section.Open(raw, path, partial)
	if err != nil {
		return nil, err
	}

	style := shape
	if partial {
		style = ShapeReduced
		for _, f := range fullOnlyFields {
			if o.Has(f) {
				style = ShapeFull
				break
			}
		}
	}

	e := &Electrode{Style: style}
	e.Thickness = o.Float(FieldThickness, true)
	if style == ShapeFull {
		e.Porosity = o.Float(FieldPorosity, true)
		e.TransportEfficiency = o.Float(FieldTransportEfficiency, true)
		e.Conductivity = o.Float(FieldConductivity, true)
	}

	if o.Has(FieldParticle) {
		e.HasMaterialMap = true
		o.Decode(FieldParticle, true, func(v any, p issue.Path) error {
			e.Materials, err = decodeMaterials(v, p, partial)
			return err
		})
	} else {
		e.Particle = readParticle(o)
	}

	if err := o.Close(); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeMaterials(raw any, path issue.Path, partial bool) (map[string]*Particle, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, issue.ErrorWithID(issue.DiagTypeObject, map[string]any{"type": section.TypeName(raw)}, path)
	}
	if len(m) == 0 {
		return nil, issue.ErrorWithID(issue.DiagStructureEmptyBlend, nil, path)
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*Particle, len(m))
	for _, name := range names {
		p, err := DecodeParticle(m[name], path.Child(name), partial)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

// MaterialNames returns the blended material names, sorted. It is empty for
// a single-material electrode.
func (e *Electrode) MaterialNames() []string {
	names := make([]string, 0, len(e.Materials))
	for name := range e.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw renders the electrode in document form.
func (e *Electrode) Raw() map[string]any {
	m := make(map[string]any)
	putFloat(m, FieldThickness, e.Thickness)
	putFloat(m, FieldPorosity, e.Porosity)
	putFloat(m, FieldTransportEfficiency, e.TransportEfficiency)
	putFloat(m, FieldConductivity, e.Conductivity)
	if e.HasMaterialMap {
		mats := make(map[string]any, len(e.Materials))
		for name, p := range e.Materials {
			mats[name] = p.Raw()
		}
		m[FieldParticle] = mats
	} else if e.Particle != nil {
		e.Particle.writeRaw(m)
	}
	return m
}
