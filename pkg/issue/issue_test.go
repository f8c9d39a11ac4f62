package issue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult(t *testing.T) {
	r := NewResult()
	require.NotNil(t, r)
	assert.Empty(t, r.Issues)
	assert.False(t, r.HasWarnings())
}

func TestResultAddWarning(t *testing.T) {
	r := NewResult()
	r.AddWarning(CodeConsistency, "voltage too high", "Parameterisation.Cell")

	require.Len(t, r.Issues, 1)
	assert.Equal(t, SeverityWarning, r.Issues[0].Severity)
	assert.Equal(t, CodeConsistency, r.Issues[0].Code)
	assert.Equal(t, []string{"Parameterisation.Cell"}, r.Issues[0].Expression)
	assert.True(t, r.HasWarnings())
}

func TestResultWarningsByCode(t *testing.T) {
	r := NewResult()
	r.AddWarning(CodeConsistency, "w1")
	r.AddInfo(CodeInformational, "i1")
	r.AddWarning(CodeDeprecation, "w2")
	r.AddWarning(CodeConsistency, "w3")

	assert.Equal(t, 3, r.WarningCount())
	assert.Len(t, r.Warnings(), 3)
	assert.Len(t, r.Warnings(CodeConsistency), 2)
	assert.Len(t, r.Warnings(CodeDeprecation), 1)
	assert.Empty(t, r.Warnings(CodeParse))
}

func TestResultMerge(t *testing.T) {
	r1 := NewResult()
	r1.AddWarning(CodeConsistency, "w1")

	r2 := NewResult()
	r2.AddWarning(CodeDeprecation, "w2")

	r1.Merge(r2)
	r1.Merge(nil)
	assert.Len(t, r1.Issues, 2)
}

func TestIssueString(t *testing.T) {
	iss := Issue{Severity: SeverityWarning, Diagnostics: "legacy key", Expression: []string{"State.Degradation"}}
	assert.Equal(t, "warning: legacy key at State.Degradation", iss.String())
}

func TestPath(t *testing.T) {
	root := NewPath("Parameterisation", "Electrolyte")
	child := root.Child("Conductivity [S.m-1]")

	assert.Equal(t, "Parameterisation.Electrolyte", root.String())
	assert.Equal(t, "Parameterisation.Electrolyte.Conductivity [S.m-1]", child.String())
	assert.Equal(t, "Conductivity [S.m-1]", child.Last())
	assert.Len(t, root, 2, "Child must not modify its receiver")
	assert.Equal(t, "", Path(nil).Last())
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		id   DiagnosticID
		kind error
	}{
		{DiagStructureUnknownField, ErrStructure},
		{DiagStructureMissingField, ErrStructure},
		{DiagTableLength, ErrStructure},
		{DiagExpressionInvalid, ErrParse},
		{DiagVariantMismatch, ErrVariantMismatch},
		{DiagStateKeyMismatch, ErrKeyPattern},
		{DiagConfigTolerance, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			err := ErrorWithID(tt.id, nil, NewPath("Header"))
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := ErrorWithID(DiagExpressionInvalid, map[string]any{"error": cause}, NewPath("a")).Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, "a: Invalid Function: boom", err.Error())

	wrapped := fmt.Errorf("validate: %w", err)
	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, err, got)
}

func TestErrorLocation(t *testing.T) {
	err := NewError(CodeStructure, NewPath("Header", "Model"), "bad")
	err.SetLocation(3, 14)
	assert.Equal(t, "Header.Model: bad (line 3, column 14)", err.Error())
}

func TestFormatDiagnostic(t *testing.T) {
	msg := FormatDiagnostic(DiagStructureUnknownField, map[string]any{"field": "bad"})
	assert.Equal(t, "Extra inputs are not permitted: 'bad'", msg)

	assert.Equal(t, "NOPE", FormatDiagnostic("NOPE", nil))

	tmpl, ok := GetDiagnosticTemplate(DiagConsistencyMaxVoltage)
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, tmpl.Severity)
	assert.Equal(t, DiagConsistencyMaxVoltage, tmpl.ID)
}

func TestAddWarningWithID(t *testing.T) {
	r := NewResult()
	r.AddWarningWithID(DiagDeprecatedVersion, map[string]any{"value": 0.4, "version": "0.4.0"}, NewPath("Header", "BPX"))

	require.Len(t, r.Issues, 1)
	assert.Equal(t, CodeDeprecation, r.Issues[0].Code)
	assert.Equal(t, string(DiagDeprecatedVersion), r.Issues[0].MessageID)
	assert.Contains(t, r.Issues[0].Diagnostics, "'0.4.0'")
	assert.Equal(t, []string{"Header.BPX"}, r.Issues[0].Expression)
}

func TestQuoteList(t *testing.T) {
	assert.Equal(t, "['Primary', 'Secondary']", QuoteList([]string{"Secondary", "Primary"}))
	assert.Equal(t, "[]", QuoteList(nil))
}
