// Package schema is the typed model of a BPX document and the decoders
// that build it from the raw tree.
//
// Every section except User-defined is closed: an unknown key is an error.
// Leaf fields are pointers so a Partial parameter set can leave any of them
// out; decoders enforce which are required for the other shapes.
package schema

import (
	"strings"

	"github.com/shopspring/decimal"

	bpx "github.com/bpxgo/validator"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
)

// Header field names.
const (
	FieldBPX         = "BPX"
	FieldTitle       = "Title"
	FieldDescription = "Description"
	FieldReferences  = "References"
	FieldModel       = "Model"
)

// Header is the document metadata.
type Header struct {
	BPX         string
	Title       *string
	Description *string
	References  *string
	Model       bpx.ModelType
}

// DecodeHeader decodes the Header section on its own, so the model type is
// known before the parameterisation is read. A numeric BPX version is the
// legacy encoding: it is normalised and reported as a deprecation warning.
func DecodeHeader(raw any, path issue.Path, warnings *issue.Result) (*Header, error) {
	obj, err := section.Open(raw, path, false)
	if err != nil {
		return nil, err
	}

	h := &Header{}
	obj.Decode(FieldBPX, true, func(v any, p issue.Path) error {
		h.BPX, err = decodeVersion(v, p, warnings)
		return err
	})
	h.Title = obj.String(FieldTitle, false)
	h.Description = obj.String(FieldDescription, false)
	h.References = obj.String(FieldReferences, false)
	obj.Decode(FieldModel, true, func(v any, p issue.Path) error {
		h.Model, err = decodeModel(v, p)
		return err
	})

	if err := obj.Close(); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeVersion(v any, path issue.Path, warnings *issue.Result) (string, error) {
	if s, ok := v.(string); ok {
		if !bpx.IsValidVersion(s) {
			return "", issue.ErrorWithID(issue.DiagValuePattern,
				map[string]any{"pattern": bpx.VersionPattern, "value": s}, path)
		}
		return s, nil
	}

	f, ok := section.ToFloat(v)
	if !ok {
		return "", issue.ErrorWithID(issue.DiagTypeString, map[string]any{"type": section.TypeName(v)}, path)
	}
	version, ok := legacyVersion(f)
	if !ok {
		return "", issue.ErrorWithID(issue.DiagValuePattern,
			map[string]any{"pattern": bpx.VersionPattern, "value": section.Describe(v)}, path)
	}
	warnings.AddWarningWithID(issue.DiagDeprecatedVersion, map[string]any{"value": section.Describe(v), "version": version}, path)
	return version, nil
}

// legacyVersion turns a numeric version such as 0.4 into "0.4.0". The
// shortest decimal form of the float is used, so 0.1 stays "0.1" rather
// than its binary expansion.
func legacyVersion(f float64) (string, bool) {
	d := decimal.NewFromFloat(f)
	if d.IsNegative() {
		return "", false
	}
	major, minor, _ := strings.Cut(d.String(), ".")
	if minor == "" {
		minor = "0"
	}
	version := major + "." + minor + ".0"
	return version, bpx.IsValidVersion(version)
}

func decodeModel(v any, path issue.Path) (bpx.ModelType, error) {
	s, ok := v.(string)
	if !ok {
		return "", issue.ErrorWithID(issue.DiagTypeString, map[string]any{"type": section.TypeName(v)}, path)
	}
	m := bpx.ModelType(s)
	if !m.IsValid() {
		return "", issue.ErrorWithID(issue.DiagValueEnum, map[string]any{"allowed": bpx.AllowedModels(), "value": s}, path)
	}
	return m, nil
}

// Raw renders the header in document form.
func (h *Header) Raw() map[string]any {
	out := map[string]any{
		FieldBPX:   h.BPX,
		FieldModel: string(h.Model),
	}
	putString(out, FieldTitle, h.Title)
	putString(out, FieldDescription, h.Description)
	putString(out, FieldReferences, h.References)
	return out
}
