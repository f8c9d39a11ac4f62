// Package testdoc builds raw BPX documents for tests. Every call returns a
// fresh tree that the caller may modify.
package testdoc

import "strings"

// NegativeOCP and PositiveOCP are the expression OCPs of NonBlended.
const (
	NegativeOCP = "9.47057878e-01 * exp(-1.59418743e+02  * x) - 3.50928033e+04 + " +
		"1.64230269e-01 * tanh(-4.55509094e+01 * (x - 3.24116012e-02 )) + " +
		"3.69968491e-02 * tanh(-1.96718868e+01 * (x - 1.68334476e-01)) + " +
		"1.91517003e+04 * tanh(3.19648312e+00 * (x - 1.85139824e+00)) + " +
		"5.42448511e+04 * tanh(-3.19009848e+00 * (x - 2.01660395e+00))"

	PositiveOCP = "-3.04420906 * x + 10.04892207 - " +
		"0.65637536 * tanh(-4.02134095 * (x - 0.80063948)) + " +
		"4.24678547 * tanh(12.17805062 * (x - 7.57659337)) - " +
		"0.3757068 * tanh(59.33067782 * (x - 0.99784492))"
)

func header(model string) map[string]any {
	return map[string]any{"BPX": "1.0.0", "Model": model}
}

func cell() map[string]any {
	return map[string]any{
		"Ambient temperature [K]":    299.0,
		"Initial temperature [K]":    299.0,
		"Reference temperature [K]":  299.0,
		"Electrode area [m2]":        2.0,
		"External surface area [m2]": 2.2,
		"Volume [m3]":                1.0,
		"Number of electrode pairs connected in parallel to make a cell": 1,
		"Nominal cell capacity [A.h]": 5.0,
		"Lower voltage cut-off [V]":   2.0,
		"Upper voltage cut-off [V]":   4.0,
	}
}

func tableOCP() map[string]any {
	return map[string]any{"x": []any{0.0, 0.1, 1.0}, "y": []any{1.72, 1.2, 0.06}}
}

func particle(radius float64) map[string]any {
	return map[string]any{
		"Particle radius [m]":                  radius,
		"Diffusivity [m2.s-1]":                 4.0e-15,
		"OCP [V]":                              tableOCP(),
		"Surface area per unit volume [m-1]":   382184.0,
		"Reaction rate constant [mol.m-2.s-1]": 1e-10,
		"Maximum concentration [mol.m-3]":      63104.0,
		"Minimum stoichiometry":                0.1,
		"Maximum stoichiometry":                0.9,
	}
}

func negativeSingle() map[string]any {
	return map[string]any{
		"Particle radius [m]":                  5.86e-6,
		"Thickness [m]":                        85.2e-6,
		"Diffusivity [m2.s-1]":                 3.3e-14,
		"OCP [V]":                              tableOCP(),
		"Surface area per unit volume [m-1]":   383959.0,
		"Reaction rate constant [mol.m-2.s-1]": 1e-10,
		"Maximum concentration [mol.m-3]":      33133.0,
		"Minimum stoichiometry":                0.01,
		"Maximum stoichiometry":                0.99,
	}
}

func positiveBlended() map[string]any {
	return map[string]any{
		"Thickness [m]": 75.6e-6,
		"Particle": map[string]any{
			"Primary":   particle(5.22e-6),
			"Secondary": particle(10.0e-6),
		},
	}
}

func state() map[string]any {
	return map[string]any{
		"Initial conditions": map[string]any{"Initial state of charge": 0.5},
	}
}

// DFN is a full parameter set with a single-material negative electrode and
// a blended positive electrode ("Primary", "Secondary").
func DFN() map[string]any {
	neg := negativeSingle()
	neg["Conductivity [S.m-1]"] = 215.0
	neg["Porosity"] = 0.25
	neg["Transport efficiency"] = 0.125

	pos := positiveBlended()
	pos["Conductivity [S.m-1]"] = 0.18
	pos["Porosity"] = 0.335
	pos["Transport efficiency"] = 0.1939

	return map[string]any{
		"Header": header("DFN"),
		"Parameterisation": map[string]any{
			"Cell": cell(),
			"Electrolyte": map[string]any{
				"Initial concentration [mol.m-3]": 1000.0,
				"Cation transference number":      0.259,
				"Conductivity [S.m-1]":            1.0,
				"Diffusivity [m2.s-1]":            "8.794e-7 * x * x - 3.972e-6 * x + 4.862e-6",
			},
			"Negative electrode": neg,
			"Positive electrode": pos,
			"Separator": map[string]any{
				"Thickness [m]":        1.2e-5,
				"Porosity":             0.47,
				"Transport efficiency": 0.3222,
			},
		},
		"State": state(),
	}
}

// SPM is a reduced parameter set with the same electrode layout as DFN.
func SPM() map[string]any {
	return map[string]any{
		"Header": header("SPM"),
		"Parameterisation": map[string]any{
			"Cell":               cell(),
			"Negative electrode": negativeSingle(),
			"Positive electrode": positiveBlended(),
		},
		"State": state(),
	}
}

// NonBlended is a reduced parameter set with single-material electrodes
// whose OCPs are expressions, so the voltage consistency check runs.
func NonBlended() map[string]any {
	neg := negativeSingle()
	neg["OCP [V]"] = NegativeOCP
	neg["Minimum stoichiometry"] = 0.005504
	neg["Maximum stoichiometry"] = 0.75668

	pos := particle(5.22e-6)
	pos["Thickness [m]"] = 75.6e-6
	pos["OCP [V]"] = PositiveOCP
	pos["Minimum stoichiometry"] = 0.42424
	pos["Maximum stoichiometry"] = 0.96210

	return map[string]any{
		"Header": header("SPM"),
		"Parameterisation": map[string]any{
			"Cell":               cell(),
			"Negative electrode": neg,
			"Positive electrode": pos,
		},
		"State": state(),
	}
}

// Partial is a partial parameter set with only some cell fields and a
// reduced-style negative electrode. It has no State.
func Partial() map[string]any {
	return map[string]any{
		"Header": header("Partial"),
		"Parameterisation": map[string]any{
			"Cell": map[string]any{
				"Nominal cell capacity [A.h]": 5.0,
			},
			"Negative electrode": map[string]any{
				"Thickness [m]": 85.2e-6,
				"OCP [V]":       "0.1 + 0.5 * exp(-10 * x)",
			},
		},
	}
}

// Get follows path through nested objects. path is dot-free key segments.
func Get(doc map[string]any, path ...string) any {
	var cur any = doc
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// Set assigns value at path, creating intermediate objects.
func Set(doc map[string]any, value any, path ...string) {
	m := doc
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// Delete removes the key at path if it exists.
func Delete(doc map[string]any, path ...string) {
	parent, ok := Get(doc, path[:len(path)-1]...).(map[string]any)
	if ok {
		delete(parent, path[len(path)-1])
	}
}

// Path splits "A/B/C" into segments, for table-driven tests.
func Path(s string) []string {
	return strings.Split(s, "/")
}
