// Package walker visits every quantity of a decoded parameter set, including
// blended materials and nested User-defined groups, in a fixed order.
package walker

import (
	"sort"

	"github.com/bpxgo/validator/pkg/extension"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/quantity"
	"github.com/bpxgo/validator/pkg/schema"
)

// QuantityContext describes one quantity being visited.
type QuantityContext struct {
	// Quantity is the visited value.
	Quantity *quantity.Quantity

	// Path locates the quantity in the document.
	Path issue.Path

	// Section is the parameterisation section the quantity belongs to.
	Section string

	// Material is the material name inside a blended electrode, empty
	// otherwise.
	Material string
}

// QuantityVisitor is called for each quantity found during walking.
// Return false to stop walking.
type QuantityVisitor func(ctx *QuantityContext) bool

// Walk visits the quantities of p. Sections are walked in document order,
// fields in declaration order, and materials and User-defined keys sorted.
// path is the location of p itself.
func Walk(p *schema.Parameterisation, path issue.Path, visitor QuantityVisitor) {
	w := &walk{visitor: visitor}
	w.parameterisation(p, path)
}

// Expressions visits only the quantities that hold an expression.
func Expressions(p *schema.Parameterisation, path issue.Path, visitor QuantityVisitor) {
	Walk(p, path, func(ctx *QuantityContext) bool {
		if ctx.Quantity.Kind() != quantity.Expression {
			return true
		}
		return visitor(ctx)
	})
}

type walk struct {
	visitor QuantityVisitor
	stopped bool
}

func (w *walk) visit(q *quantity.Quantity, path issue.Path, section, material string) {
	if w.stopped || q == nil {
		return
	}
	if !w.visitor(&QuantityContext{Quantity: q, Path: path, Section: section, Material: material}) {
		w.stopped = true
	}
}

func (w *walk) parameterisation(p *schema.Parameterisation, path issue.Path) {
	if e := p.Electrolyte; e != nil {
		at := path.Child(schema.SectionElectrolyte)
		w.visit(e.Diffusivity, at.Child(schema.FieldDiffusivity), schema.SectionElectrolyte, "")
		w.visit(e.Conductivity, at.Child(schema.FieldConductivity), schema.SectionElectrolyte, "")
	}
	for _, name := range []string{schema.SectionNegative, schema.SectionPositive} {
		if e := p.Electrode(name); e != nil {
			w.electrode(e, path.Child(name), name)
		}
	}
	if p.UserDefined != nil {
		w.group(p.UserDefined, path.Child(schema.SectionUserDefined))
	}
}

func (w *walk) electrode(e *schema.Electrode, path issue.Path, section string) {
	if !e.HasMaterialMap {
		if e.Particle != nil {
			w.particle(e.Particle, path, section, "")
		}
		return
	}
	at := path.Child(schema.FieldParticle)
	for _, name := range e.MaterialNames() {
		w.particle(e.Materials[name], at.Child(name), section, name)
	}
}

func (w *walk) particle(p *schema.Particle, path issue.Path, section, material string) {
	w.visit(p.Diffusivity, path.Child(schema.FieldDiffusivity), section, material)
	w.visit(p.OCP, path.Child(schema.FieldOCP), section, material)
	w.visit(p.EntropicChange, path.Child(schema.FieldEntropicChange), section, material)
}

func (w *walk) group(g *extension.Group, path issue.Path) {
	for _, key := range sortedKeys(g.Values) {
		w.visit(g.Values[key], path.Child(key), schema.SectionUserDefined, "")
	}
	for _, key := range sortedKeys(g.Groups) {
		if w.stopped {
			return
		}
		w.group(g.Groups[key], path.Child(key))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
