package bpx

import (
	"regexp"
	"strings"
)

// FormatVersion is the BPX format version this module validates against.
const FormatVersion = "0.5.0"

// ModelType is the model a parameter set is intended for.
type ModelType string

// Supported model types.
const (
	// SPM is the Single Particle Model
	SPM ModelType = "SPM"
	// SPMe is the Single Particle Model with electrolyte
	SPMe ModelType = "SPMe"
	// DFN is the Doyle-Fuller-Newman model
	DFN ModelType = "DFN"
	// Partial marks an incomplete parameter set
	Partial ModelType = "Partial"
)

// ModelTypes lists the supported model types in document order.
var ModelTypes = []ModelType{SPM, SPMe, DFN, Partial}

// String returns the model type name.
func (m ModelType) String() string {
	return string(m)
}

// IsValid returns true if this is a supported model type.
func (m ModelType) IsValid() bool {
	switch m {
	case SPM, SPMe, DFN, Partial:
		return true
	default:
		return false
	}
}

// IsPartial reports whether m relaxes every required field.
func (m ModelType) IsPartial() bool {
	return m == Partial
}

// AllowedModels renders the supported model types for diagnostics:
// 'SPM', 'SPMe', 'DFN' or 'Partial'.
func AllowedModels() string {
	quoted := make([]string, len(ModelTypes))
	for i, m := range ModelTypes {
		quoted[i] = "'" + string(m) + "'"
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

// VersionPattern is the pattern every BPX format version must match.
const VersionPattern = `^\d+\.\d+\.\d+$`

var versionPattern = regexp.MustCompile(VersionPattern)

// IsValidVersion reports whether v is a semantic version string.
func IsValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}
