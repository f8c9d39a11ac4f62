// Package issue provides diagnostic message templates for BPX validation.
package issue

import (
	"fmt"
	"sort"
	"strings"
)

// DiagnosticID identifies a specific diagnostic message.
type DiagnosticID string

// Diagnostic IDs for closed-section decoding.
const (
	DiagStructureUnknownField DiagnosticID = "STRUCTURE_UNKNOWN_FIELD"
	DiagStructureMissingField DiagnosticID = "STRUCTURE_MISSING_FIELD"
	DiagStructureKeyType      DiagnosticID = "STRUCTURE_KEY_TYPE"
	DiagStructureEmptyBlend   DiagnosticID = "STRUCTURE_EMPTY_BLEND"
)

// Diagnostic IDs for leaf types and values.
const (
	DiagTypeNumber   DiagnosticID = "TYPE_NUMBER"
	DiagTypeInteger  DiagnosticID = "TYPE_INTEGER"
	DiagTypeString   DiagnosticID = "TYPE_STRING"
	DiagTypeObject   DiagnosticID = "TYPE_OBJECT"
	DiagTypeSequence DiagnosticID = "TYPE_SEQUENCE"
	DiagTypeQuantity DiagnosticID = "TYPE_QUANTITY"
	DiagValueEnum    DiagnosticID = "VALUE_ENUM"
	DiagValuePattern DiagnosticID = "VALUE_PATTERN"
	DiagValueRange   DiagnosticID = "VALUE_RANGE"
	DiagTableLength  DiagnosticID = "TABLE_LENGTH"
	DiagTraceLength  DiagnosticID = "TRACE_LENGTH"
)

// Diagnostic IDs for expressions.
const (
	DiagExpressionInvalid DiagnosticID = "EXPRESSION_INVALID"
)

// Diagnostic IDs for variant resolution.
const (
	DiagVariantMismatch      DiagnosticID = "VARIANT_MISMATCH"
	DiagVariantPartialStyle  DiagnosticID = "VARIANT_PARTIAL_STYLE"
	DiagVariantPartialFields DiagnosticID = "VARIANT_PARTIAL_FIELDS"
)

// Diagnostic IDs for per-electrode state keys.
const (
	DiagStateKeyMalformed      DiagnosticID = "STATE_KEY_MALFORMED"
	DiagStateKeyElectrode      DiagnosticID = "STATE_KEY_ELECTRODE"
	DiagStateKeyAbsent         DiagnosticID = "STATE_KEY_ABSENT"
	DiagStateKeyScalar         DiagnosticID = "STATE_KEY_SCALAR"
	DiagStateKeyMaterialDenied DiagnosticID = "STATE_KEY_MATERIAL_DENIED"
	DiagStateKeyMap            DiagnosticID = "STATE_KEY_MAP"
	DiagStateKeyMismatch       DiagnosticID = "STATE_KEY_MISMATCH"
	DiagStateKeyMixed          DiagnosticID = "STATE_KEY_MIXED"
)

// Diagnostic IDs for the User-defined section.
const (
	DiagExtensionLeaf        DiagnosticID = "EXTENSION_LEAF"
	DiagExtensionAmbiguous   DiagnosticID = "EXTENSION_AMBIGUOUS"
	DiagExtensionDescription DiagnosticID = "EXTENSION_DESCRIPTION"
)

// Diagnostic IDs for caller configuration.
const (
	DiagConfigTolerance DiagnosticID = "CONFIG_TOLERANCE"
)

// Diagnostic IDs for advisory checks.
const (
	DiagConsistencyMaxVoltage DiagnosticID = "CONSISTENCY_MAX_VOLTAGE"
	DiagConsistencyMinVoltage DiagnosticID = "CONSISTENCY_MIN_VOLTAGE"
	DiagDeprecatedVersion     DiagnosticID = "DEPRECATED_VERSION"
	DiagDeprecatedMaterialKey DiagnosticID = "DEPRECATED_MATERIAL_KEY"
)

// DiagnosticTemplate defines the structure for a diagnostic message.
type DiagnosticTemplate struct {
	ID       DiagnosticID
	Severity Severity
	Code     Code
	Template string
}

// diagnosticTemplates maps diagnostic IDs to their templates.
// Templates use {placeholder} syntax for variable substitution.
var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagStructureUnknownField: {
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "Extra inputs are not permitted: '{field}'",
	},
	DiagStructureMissingField: {
		Severity: SeverityError,
		Code:     CodeRequired,
		Template: "Field required: '{field}'",
	},
	DiagStructureKeyType: {
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "Keys should be strings, got {type}",
	},
	DiagStructureEmptyBlend: {
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "'Particle' must declare at least one material",
	},

	DiagTypeNumber: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid number, got {type}",
	},
	DiagTypeInteger: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid integer, got {value}",
	},
	DiagTypeString: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid string, got {type}",
	},
	DiagTypeObject: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be an object, got {type}",
	},
	DiagTypeSequence: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a list of numbers, got {type}",
	},
	DiagTypeQuantity: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a number, an expression or a table, got {type}",
	},
	DiagValueEnum: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be {allowed}, got '{value}'",
	},
	DiagValuePattern: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "String should match pattern '{pattern}', got '{value}'",
	},
	DiagValueRange: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Value {value} should be between {min} and {max}",
	},
	DiagTableLength: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "x & y should be same length ({x} != {y})",
	},
	DiagTraceLength: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "'{trace}' has {count} samples, expected {want}",
	},

	DiagExpressionInvalid: {
		Severity: SeverityError,
		Code:     CodeParse,
		Template: "Invalid Function: {error}",
	},

	DiagVariantMismatch: {
		Severity: SeverityError,
		Code:     CodeVariantMismatch,
		Template: "Valid {set} does not correspond with model type '{model}'",
	},
	DiagVariantPartialStyle: {
		Severity: SeverityError,
		Code:     CodeVariantMismatch,
		Template: "Electrodes disagree on parameter set style: negative is {negative}, positive is {positive}",
	},
	DiagVariantPartialFields: {
		Severity: SeverityError,
		Code:     CodeVariantMismatch,
		Template: "'{section}' is only allowed together with full-style electrodes",
	},

	DiagStateKeyMalformed: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "Key '{key}' does not match '<Label>: <Electrode>[: <Material>]'",
	},
	DiagStateKeyElectrode: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "Unknown electrode '{electrode}' in key '{key}'",
	},
	DiagStateKeyAbsent: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "Key '{key}' refers to '{electrode}', which is not present in the parameterisation",
	},
	DiagStateKeyScalar: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "'{field}' must be a float. Electrode is a single material.",
	},
	DiagStateKeyMaterialDenied: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "'{field}' must not name material '{material}'. Electrode is a single material.",
	},
	DiagStateKeyMap: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "'{field}' must be a dict with keys {expected}. Electrode is blended.",
	},
	DiagStateKeyMismatch: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "'{field}' keys must exactly match {expected}; {details}",
	},
	DiagStateKeyMixed: {
		Severity: SeverityError,
		Code:     CodeKeyPattern,
		Template: "'{field}' is given both as a material map and as per-material keys",
	},

	DiagExtensionLeaf: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "{key} must be of type 'FloatFunctionTable', got {type}",
	},
	DiagExtensionAmbiguous: {
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "{key} mixes list and non-list values; it is neither a table nor a group",
	},
	DiagExtensionDescription: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid string, got {type}",
	},

	DiagConfigTolerance: {
		Severity: SeverityError,
		Code:     CodeConfiguration,
		Template: "v_tol should not be negative, got {value}",
	},

	DiagConsistencyMaxVoltage: {
		Severity: SeverityWarning,
		Code:     CodeConsistency,
		Template: "The maximum voltage computed from the STO limits ({estimated} V) is higher than the upper voltage cut-off ({declared} V) with the absolute tolerance v_tol = {tolerance} V",
	},
	DiagConsistencyMinVoltage: {
		Severity: SeverityWarning,
		Code:     CodeConsistency,
		Template: "The minimum voltage computed from the STO limits ({estimated} V) is less than the lower voltage cut-off ({declared} V) with the absolute tolerance v_tol = {tolerance} V",
	},
	DiagDeprecatedVersion: {
		Severity: SeverityWarning,
		Code:     CodeDeprecation,
		Template: "The 'bpx' field now expects the BPX semantic version as a string; {value} was read as '{version}'",
	},
	DiagDeprecatedMaterialKey: {
		Severity: SeverityWarning,
		Code:     CodeDeprecation,
		Template: "'{key}' is a legacy per-material key; use '{field}' with a material map",
	},
}

// FormatDiagnostic formats a diagnostic message with the given parameters.
func FormatDiagnostic(id DiagnosticID, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a diagnostic ID.
func GetDiagnosticTemplate(id DiagnosticID) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[id]
	if ok {
		tmpl.ID = id
	}
	return tmpl, ok
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		result = strings.ReplaceAll(result, "{"+key+"}", fmt.Sprint(value))
	}
	return result
}

// ErrorWithID builds a fatal *Error from a diagnostic template.
func ErrorWithID(id DiagnosticID, params map[string]any, path Path) *Error {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return NewError(CodeStructure, path, "%s", id)
	}
	return &Error{
		Kind:      kindFor(tmpl.Code),
		Code:      tmpl.Code,
		Path:      path,
		Message:   formatTemplate(tmpl.Template, params),
		MessageID: string(id),
	}
}

// AddWarningWithID adds a warning using a diagnostic template.
func (r *Result) AddWarningWithID(id DiagnosticID, params map[string]any, path Path) {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		r.AddWarning(CodeInformational, string(id), path.String())
		return
	}

	r.Issues = append(r.Issues, Issue{
		Severity:    SeverityWarning,
		Code:        tmpl.Code,
		Diagnostics: formatTemplate(tmpl.Template, params),
		Expression:  []string{path.String()},
		MessageID:   string(id),
	})
}

// QuoteList renders names as a sorted, quoted list: ['a', 'b'].
func QuoteList(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
