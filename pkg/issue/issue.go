// Package issue defines the diagnostics produced while validating a BPX document.
package issue

// Severity represents the severity of a validation issue.
type Severity string

// Severity constants.
const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// Code represents the type of validation issue.
type Code string

// Code constants. The first group aborts validation, the second is advisory.
const (
	CodeParse           Code = "parse"
	CodeStructure       Code = "structure"
	CodeRequired        Code = "required"
	CodeValue           Code = "value"
	CodeVariantMismatch Code = "variant-mismatch"
	CodeKeyPattern      Code = "key-pattern"
	CodeConfiguration   Code = "configuration"

	CodeConsistency   Code = "consistency"
	CodeDeprecation   Code = "deprecation"
	CodeInformational Code = "informational"
)

// Issue represents a single non-fatal diagnostic.
type Issue struct {
	// Severity indicates the severity level (warning, information)
	Severity Severity

	// Code indicates the type of issue
	Code Code

	// Diagnostics is the human-readable description of the issue
	Diagnostics string

	// Expression is the dotted path to the field the issue refers to
	Expression []string

	// MessageID is the identifier from the diagnostic catalog
	MessageID string
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if len(i.Expression) > 0 {
		s += " at " + i.Expression[0]
	}
	return s
}

// Result collects the warnings raised alongside a successful validation.
type Result struct {
	Issues []Issue
}

// NewResult creates a new empty Result.
func NewResult() *Result {
	return &Result{Issues: make([]Issue, 0, 4)}
}

// AddIssue adds an issue to the result.
func (r *Result) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// AddWarning adds a warning-level issue.
func (r *Result) AddWarning(code Code, diagnostics string, expression ...string) {
	r.Issues = append(r.Issues, Issue{
		Severity:    SeverityWarning,
		Code:        code,
		Diagnostics: diagnostics,
		Expression:  expression,
	})
}

// AddInfo adds an information-level issue.
func (r *Result) AddInfo(code Code, diagnostics string, expression ...string) {
	r.Issues = append(r.Issues, Issue{
		Severity:    SeverityInformation,
		Code:        code,
		Diagnostics: diagnostics,
		Expression:  expression,
	})
}

// HasWarnings reports whether any warning-level issue was recorded.
func (r *Result) HasWarnings() bool {
	return r.WarningCount() > 0
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// Warnings returns the warning-level issues, optionally restricted to the given codes.
func (r *Result) Warnings(codes ...Code) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity != SeverityWarning {
			continue
		}
		if len(codes) == 0 || hasCode(codes, issue.Code) {
			out = append(out, issue)
		}
	}
	return out
}

func hasCode(codes []Code, c Code) bool {
	for _, code := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// Merge combines another result into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}
