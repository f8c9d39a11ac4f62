// Package loader reads BPX documents from JSON, YAML or HCL source into the
// raw tree the validator consumes.
//
// The raw tree uses map[string]any for objects, []any for sequences and
// string, float64, bool or nil for leaves. Every number is a float64
// regardless of how it was written.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"

	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/section"
)

// Format is a source encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// ErrUnknownFormat is returned for a file extension no parser handles.
var ErrUnknownFormat = errors.New("unknown document format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Document is a loaded source file.
type Document struct {
	Path   string
	Format Format
	Source []byte
	Raw    map[string]any
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return &Document{Path: path, Format: format, Source: data, Raw: raw}, nil
}

// Parse parses data in the given format. filename is used in diagnostics.
func Parse(data []byte, format Format, filename string) (map[string]any, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	case FormatHCL:
		return ParseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func parseError(format string, err error) *issue.Error {
	return issue.NewError(issue.CodeParse, nil, "invalid %s document: %v", format, err).Wrap(err)
}

func rootObject(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, issue.ErrorWithID(issue.DiagTypeObject, map[string]any{"type": section.TypeName(v)}, nil)
	}
	return m, nil
}

// ParseJSON parses a JSON document.
func ParseJSON(data []byte) (map[string]any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		e := parseError("JSON", err)
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			line, col := lineCol(data, int(syn.Offset))
			e.SetLocation(line, col)
		}
		return nil, e
	}
	if dec.More() {
		return nil, parseError("JSON", errors.New("trailing data after document"))
	}
	return rootObject(v)
}

func lineCol(data []byte, offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// ParseYAML parses a YAML document. Mapping keys must be strings; anchors
// and aliases are resolved.
func ParseYAML(data []byte) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, parseError("YAML", err)
	}
	if root.Kind == 0 {
		return nil, parseError("YAML", errors.New("empty document"))
	}
	v, err := fromYAML(&root, nil)
	if err != nil {
		return nil, err
	}
	return rootObject(v)
}

func fromYAML(n *yaml.Node, path issue.Path) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		return fromYAML(n.Content[0], path)
	case yaml.AliasNode:
		return fromYAML(n.Alias, path)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.ShortTag() == "!!merge" {
				return nil, yamlError(issue.ErrorWithID(issue.DiagStructureKeyType,
					map[string]any{"type": "merge key"}, path), k)
			}
			if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
				return nil, yamlError(issue.ErrorWithID(issue.DiagStructureKeyType,
					map[string]any{"type": yamlType(k)}, path), k)
			}
			val, err := fromYAML(v, path.Child(k.Value))
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, item := range n.Content {
			val, err := fromYAML(item, path.Child(fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			s[i] = val
		}
		return s, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, yamlError(parseError("YAML", err), n)
		}
		if f, ok := section.ToFloat(v); ok {
			return f, nil
		}
		return v, nil
	}
}

func yamlType(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "dict"
	case yaml.SequenceNode:
		return "list"
	}
	switch n.ShortTag() {
	case "!!int":
		return "int"
	case "!!float":
		return "float"
	case "!!bool":
		return "bool"
	case "!!null":
		return "null"
	default:
		return strings.TrimPrefix(n.ShortTag(), "!!")
	}
}

func yamlError(e *issue.Error, n *yaml.Node) *issue.Error {
	e.SetLocation(n.Line, n.Column)
	return e
}

// ParseHCL parses an HCL document. Top-level attributes and blocks become
// sections; object constructors may use quoted keys, so field names with
// spaces and brackets are written as "Electrode area [m2]" = 0.1. A block
// with labels nests its body under each label in turn.
func ParseHCL(data []byte, filename string) (map[string]any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, hclError(diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, parseError("HCL", errors.New("unsupported body type"))
	}
	return fromHCLBody(body, nil)
}

func fromHCLBody(body *hclsyntax.Body, path issue.Path) (map[string]any, error) {
	out := make(map[string]any, len(body.Attributes)+len(body.Blocks))

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attr := body.Attributes[name]
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, hclError(diags)
		}
		v, err := fromCty(val)
		if err != nil {
			e := parseError("HCL", err)
			e.Path = path.Child(name)
			e.SetLocation(attr.SrcRange.Start.Line, attr.SrcRange.Start.Column)
			return nil, e
		}
		out[name] = v
	}

	for _, block := range body.Blocks {
		target := out
		keys := append([]string{block.Type}, block.Labels...)
		at := path
		for _, k := range keys[:len(keys)-1] {
			at = at.Child(k)
			next, ok := target[k].(map[string]any)
			if !ok {
				if _, taken := target[k]; taken {
					return nil, hclDuplicate(at, block)
				}
				next = make(map[string]any)
				target[k] = next
			}
			target = next
		}
		last := keys[len(keys)-1]
		at = at.Child(last)
		if _, taken := target[last]; taken {
			return nil, hclDuplicate(at, block)
		}
		inner, err := fromHCLBody(block.Body, at)
		if err != nil {
			return nil, err
		}
		target[last] = inner
	}
	return out, nil
}

func hclDuplicate(path issue.Path, block *hclsyntax.Block) *issue.Error {
	e := issue.NewError(issue.CodeStructure, path, "duplicate definition of '%s'", path.Last())
	e.SetLocation(block.TypeRange.Start.Line, block.TypeRange.Start.Column)
	return e
}

func hclError(diags hcl.Diagnostics) *issue.Error {
	e := parseError("HCL", diags)
	for _, d := range diags {
		if d.Subject != nil {
			e.SetLocation(d.Subject.Start.Line, d.Subject.Start.Column)
			break
		}
	}
	return e
}

// fromCty converts an evaluated HCL value to the raw tree.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.New("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := fromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := fromCty(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", k.AsString(), err)
			}
			out[k.AsString()] = nv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
