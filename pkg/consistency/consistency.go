// Package consistency checks the declared voltage cut-offs of a parameter
// set against the open-circuit potentials of its electrodes.
package consistency

import (
	"strconv"

	"github.com/bpxgo/validator/pkg/function"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/logger"
	"github.com/bpxgo/validator/pkg/schema"
)

// DefaultTolerance is the voltage tolerance in volts used when the caller
// does not pick one.
const DefaultTolerance = 1e-3

// Estimate is the cell voltage window implied by the stoichiometry limits.
type Estimate struct {
	Max float64
	Min float64
}

// Electrode is the data one side of the check needs.
type Electrode struct {
	OCP     *function.Func
	StoMin  float64
	StoMax  float64
	Section string
}

// Checker runs the voltage consistency check.
type Checker struct {
	compiler *function.Compiler
	log      *logger.Logger
}

// New creates a checker that compiles OCP expressions with compiler.
func New(compiler *function.Compiler, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.Default()
	}
	return &Checker{compiler: compiler, log: log}
}

// Check adds a consistency warning for each cut-off the estimate exceeds by
// more than tol. It reports whether the check ran. The check is skipped when
// either electrode is blended, has a non-expression OCP, or lacks
// stoichiometry limits, when a cut-off is missing, and when an OCP fails to
// compile or evaluate.
func (c *Checker) Check(p *schema.Parameterisation, path issue.Path, tol float64, warnings *issue.Result) bool {
	if p.Cell == nil || p.Cell.UpperVoltageCutoff == nil || p.Cell.LowerVoltageCutoff == nil {
		c.log.Debug("consistency check skipped", "reason", "voltage cut-offs missing")
		return false
	}
	neg, ok := c.electrode(p, schema.SectionNegative)
	if !ok {
		return false
	}
	pos, ok := c.electrode(p, schema.SectionPositive)
	if !ok {
		return false
	}

	est, err := Estimated(neg, pos)
	if err != nil {
		c.log.Debug("consistency check skipped", "reason", "OCP evaluation failed", "error", err)
		return false
	}

	cell := path.Child(schema.SectionCell)
	upper, lower := *p.Cell.UpperVoltageCutoff, *p.Cell.LowerVoltageCutoff
	if est.Max-upper > tol {
		warnings.AddWarningWithID(issue.DiagConsistencyMaxVoltage,
			params(est.Max, upper, tol), cell.Child(schema.FieldUpperVoltageCutoff))
	}
	if est.Min-lower < -tol {
		warnings.AddWarningWithID(issue.DiagConsistencyMinVoltage,
			params(est.Min, lower, tol), cell.Child(schema.FieldLowerVoltageCutoff))
	}
	return true
}

func params(estimated, declared, tol float64) map[string]any {
	return map[string]any{
		"estimated": strconv.FormatFloat(estimated, 'f', 4, 64),
		"declared":  strconv.FormatFloat(declared, 'g', -1, 64),
		"tolerance": strconv.FormatFloat(tol, 'g', -1, 64),
	}
}

func (c *Checker) electrode(p *schema.Parameterisation, name string) (*Electrode, bool) {
	e := p.Electrode(name)
	if e == nil || e.HasMaterialMap || e.Particle == nil {
		c.log.Debug("consistency check skipped", "reason", "electrode missing or blended", "electrode", name)
		return nil, false
	}
	part := e.Particle
	if part.MinimumStoichiometry == nil || part.MaximumStoichiometry == nil || part.OCP == nil {
		c.log.Debug("consistency check skipped", "reason", "stoichiometry limits or OCP missing", "electrode", name)
		return nil, false
	}
	expr, ok := part.OCP.Expression()
	if !ok {
		c.log.Debug("consistency check skipped", "reason", "OCP is not an expression", "electrode", name)
		return nil, false
	}
	fn, err := c.compiler.Compile(expr)
	if err != nil {
		c.log.Debug("consistency check skipped", "reason", "OCP does not compile", "electrode", name, "error", err)
		return nil, false
	}
	return &Electrode{
		OCP:     fn,
		StoMin:  *part.MinimumStoichiometry,
		StoMax:  *part.MaximumStoichiometry,
		Section: name,
	}, true
}

// Estimated computes the voltage window:
//
//	max = OCP_p(sto_p_min) - OCP_n(sto_n_max)
//	min = OCP_p(sto_p_max) - OCP_n(sto_n_min)
func Estimated(neg, pos *Electrode) (Estimate, error) {
	var v [4]float64
	for i, s := range []struct {
		e *Electrode
		x float64
	}{
		{pos, pos.StoMin},
		{neg, neg.StoMax},
		{pos, pos.StoMax},
		{neg, neg.StoMin},
	} {
		y, err := s.e.OCP.Eval(s.x)
		if err != nil {
			return Estimate{}, err
		}
		v[i] = y
	}
	return Estimate{Max: v[0] - v[1], Min: v[2] - v[3]}, nil
}
