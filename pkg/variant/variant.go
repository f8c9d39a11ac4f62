// Package variant decides which parameter-set shape a document's
// Parameterisation section is read as.
//
// The model type in the header selects a primary shape: reduced for SPM,
// full for SPMe and DFN. When the section does not decode as the primary
// shape the other one is tried, so a well-formed set under the wrong model
// is reported as a mismatch rather than as a list of missing or extra
// fields. Partial documents are decoded with every field optional and then
// checked for internal agreement.
package variant

import (
	"fmt"

	bpx "github.com/bpxgo/validator"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/schema"
)

// Match tells which decoding attempt succeeded.
type Match int

const (
	// MatchedPrimary means the section is valid for the declared model
	MatchedPrimary Match = iota
	// MatchedFallback means the section is a valid set of the other shape
	MatchedFallback
	// MatchedNeither means no shape fits
	MatchedNeither
)

func (m Match) String() string {
	switch m {
	case MatchedPrimary:
		return "primary"
	case MatchedFallback:
		return "fallback"
	case MatchedNeither:
		return "neither"
	default:
		return fmt.Sprintf("Match(%d)", int(m))
	}
}

// Outcome is the result of resolving a parameter set against a model.
type Outcome struct {
	Match Match
	Model bpx.ModelType
	Path  issue.Path

	// Shape is the shape that decoded; for MatchedNeither it is the
	// primary shape
	Shape schema.Shape

	// Params is set for MatchedPrimary and MatchedFallback
	Params *schema.Parameterisation

	// Err is the primary decoding error; nil for MatchedPrimary
	Err error
}

// Shapes returns the primary and fallback shapes for a model. A Partial
// model has no fallback, so both are ShapePartial.
func Shapes(model bpx.ModelType) (primary, fallback schema.Shape) {
	switch model {
	case bpx.SPM:
		return schema.ShapeReduced, schema.ShapeFull
	case bpx.Partial:
		return schema.ShapePartial, schema.ShapePartial
	default:
		return schema.ShapeFull, schema.ShapeReduced
	}
}

// Resolve decodes raw as the primary shape for model, falling back to the
// other shape to classify the failure.
func Resolve(raw any, path issue.Path, model bpx.ModelType) *Outcome {
	primary, fallback := Shapes(model)
	out := &Outcome{Model: model, Path: path, Shape: primary}

	params, err := schema.DecodeParameterisation(raw, path, primary)
	if err == nil && model.IsPartial() {
		err = CheckPartial(params, path)
	}
	if err == nil {
		out.Match = MatchedPrimary
		out.Params = params
		return out
	}
	out.Err = err

	if primary != fallback {
		if params, ferr := schema.DecodeParameterisation(raw, path, fallback); ferr == nil {
			out.Match = MatchedFallback
			out.Shape = fallback
			out.Params = params
			return out
		}
	}
	out.Match = MatchedNeither
	return out
}

// Error converts the outcome into the error the caller reports: nil for a
// primary match, a variant mismatch for a fallback match, and the primary
// decoding error otherwise.
func (o *Outcome) Error() error {
	switch o.Match {
	case MatchedPrimary:
		return nil
	case MatchedFallback:
		return issue.ErrorWithID(issue.DiagVariantMismatch,
			map[string]any{"set": setName(o.Shape), "model": string(o.Model)}, o.Path)
	default:
		return o.Err
	}
}

// setName is how a decoded shape is named in the mismatch message.
func setName(s schema.Shape) string {
	if s == schema.ShapeReduced {
		return "SPM parameter set"
	}
	return "parameter set"
}

// CheckPartial checks a Partial parameter set for internal agreement: both
// electrodes, when present, must be of the same style, and Electrolyte or
// Separator may only appear alongside full-style electrodes.
func CheckPartial(p *schema.Parameterisation, path issue.Path) error {
	if p.Negative != nil && p.Positive != nil && p.Negative.Style != p.Positive.Style {
		return issue.ErrorWithID(issue.DiagVariantPartialStyle, map[string]any{
			"negative": p.Negative.Style.String(),
			"positive": p.Positive.Style.String(),
		}, path)
	}

	reduced := false
	for _, e := range []*schema.Electrode{p.Negative, p.Positive} {
		if e != nil && e.Style == schema.ShapeReduced {
			reduced = true
		}
	}
	if !reduced {
		return nil
	}
	if p.Electrolyte != nil {
		return issue.ErrorWithID(issue.DiagVariantPartialFields, map[string]any{"section": schema.SectionElectrolyte}, path)
	}
	if p.Separator != nil {
		return issue.ErrorWithID(issue.DiagVariantPartialFields, map[string]any{"section": schema.SectionSeparator}, path)
	}
	return nil
}
