package validator

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bpx "github.com/bpxgo/validator"
	"github.com/bpxgo/validator/internal/testdoc"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/logger"
)

func newValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	v, err := New(append([]Option{WithLogger(logger.Discard())}, opts...)...)
	require.NoError(t, err)
	return v
}

// cutoffs sets the voltage cut-offs of doc.
func cutoffs(doc map[string]any, lower, upper float64) map[string]any {
	testdoc.Set(doc, lower, "Parameterisation", "Cell", "Lower voltage cut-off [V]")
	testdoc.Set(doc, upper, "Parameterisation", "Cell", "Upper voltage cut-off [V]")
	return doc
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		doc   func() map[string]any
		model bpx.ModelType
		state bool
	}{
		{"dfn", testdoc.DFN, bpx.DFN, true},
		{"spm", testdoc.SPM, bpx.SPM, true},
		{"non-blended", testdoc.NonBlended, bpx.SPM, true},
		{"partial", testdoc.Partial, bpx.Partial, false},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.doc())
			require.NoError(t, err)
			require.NotNil(t, res.Document)
			assert.Equal(t, tt.model, res.Document.Header.Model)
			assert.Equal(t, tt.state, res.Document.State != nil)
		})
	}
}

func TestValidateSPMe(t *testing.T) {
	doc := testdoc.DFN()
	testdoc.Set(doc, "SPMe", "Header", "Model")

	res, err := newValidator(t).Validate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, bpx.SPMe, res.Document.Header.Model)
	assert.NotNil(t, res.Document.Parameterisation.Electrolyte)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  func() map[string]any
	}{
		{"dfn", testdoc.DFN},
		{"spm", testdoc.SPM},
		{"non-blended", testdoc.NonBlended},
		{"partial", testdoc.Partial},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc()
			testdoc.Set(doc, map[string]any{
				"description": "fitted",
				"scale":       2.0,
				"curve":       map[string]any{"x": []any{0.0, 1.0}, "y": []any{1.0, 0.5}},
				"nested":      map[string]any{"rate": "1e-3 * exp(x)"},
			}, "Parameterisation", "User-defined")
			testdoc.Set(doc, map[string]any{
				"Time [s]":    []any{0.0, 1.0, 2.0},
				"Current [A]": []any{1.0, 1.0, 1.0},
				"Voltage [V]": []any{4.0, 3.9, 3.8},
			}, "Validation", "discharge")

			first, err := v.Validate(context.Background(), doc)
			require.NoError(t, err)
			second, err := v.Validate(context.Background(), first.Document.Raw())
			require.NoError(t, err)

			if diff := cmp.Diff(first.Document, second.Document); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}
			assert.Equal(t, first.Warnings.Issues, second.Warnings.Issues)
		})
	}
}

func TestVariantMismatch(t *testing.T) {
	tests := []struct {
		name  string
		doc   func() map[string]any
		model string
		msg   string
	}{
		{
			name:  "reduced model with full parameter set",
			doc:   testdoc.DFN,
			model: "SPM",
			msg:   "Valid parameter set does not correspond with model type 'SPM'",
		},
		{
			name:  "full model with reduced parameter set",
			doc:   testdoc.SPM,
			model: "DFN",
			msg:   "Valid SPM parameter set does not correspond with model type 'DFN'",
		},
		{
			name:  "spme with reduced parameter set",
			doc:   testdoc.SPM,
			model: "SPMe",
			msg:   "Valid SPM parameter set does not correspond with model type 'SPMe'",
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc()
			testdoc.Set(doc, tt.model, "Header", "Model")

			res, err := v.Validate(context.Background(), doc)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, issue.ErrVariantMismatch)
			assert.False(t, errors.Is(err, issue.ErrStructure))
			assert.Contains(t, err.Error(), tt.msg)

			e, ok := issue.AsError(err)
			require.True(t, ok)
			assert.Equal(t, "Parameterisation", e.Path.String())
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   func() map[string]any
		kind  error
		path  string
		msg   string
	}{
		{
			name: "missing header",
			doc: func() map[string]any {
				doc := testdoc.DFN()
				delete(doc, "Header")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Header",
			msg:  "Field required: 'Header'",
		},
		{
			name: "unknown model",
			doc: func() map[string]any {
				doc := testdoc.DFN()
				testdoc.Set(doc, "P2D", "Header", "Model")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Header.Model",
			msg:  "Input should be 'SPM', 'SPMe', 'DFN' or 'Partial', got 'P2D'",
		},
		{
			name: "missing parameterisation",
			doc: func() map[string]any {
				doc := testdoc.SPM()
				delete(doc, "Parameterisation")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Parameterisation",
			msg:  "Field required",
		},
		{
			name: "extra key in one section",
			doc: func() map[string]any {
				doc := testdoc.DFN()
				testdoc.Set(doc, 1.0, "Parameterisation", "Electrolyte", "bad")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Parameterisation.Electrolyte.bad",
			msg:  "Extra inputs are not permitted: 'bad'",
		},
		{
			name: "state required",
			doc: func() map[string]any {
				doc := testdoc.DFN()
				delete(doc, "State")
				return doc
			},
			kind: issue.ErrStructure,
			path: "State",
			msg:  "Field required: 'State'",
		},
		{
			name: "unknown top-level section",
			doc: func() map[string]any {
				doc := testdoc.SPM()
				doc["Extra"] = map[string]any{}
				return doc
			},
			kind: issue.ErrStructure,
			path: "Extra",
			msg:  "Extra inputs are not permitted: 'Extra'",
		},
		{
			name: "boolean deep in user-defined",
			doc: func() map[string]any {
				doc := testdoc.NonBlended()
				testdoc.Set(doc, map[string]any{
					"a": map[string]any{"b": map[string]any{"flag": true}},
				}, "Parameterisation", "User-defined")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Parameterisation.User-defined.a.b.flag",
			msg:  "flag must be of type 'FloatFunctionTable', got bool",
		},
		{
			name: "bad expression",
			doc: func() map[string]any {
				doc := testdoc.NonBlended()
				testdoc.Set(doc, "2 * (x", "Parameterisation", "Negative electrode", "OCP [V]")
				return doc
			},
			kind: issue.ErrParse,
			path: "Parameterisation.Negative electrode.OCP [V]",
		},
		{
			name: "state of charge out of range",
			doc: func() map[string]any {
				doc := testdoc.SPM()
				testdoc.Set(doc, 1.5, "State", "Initial conditions", "Initial state of charge")
				return doc
			},
			kind: issue.ErrStructure,
			path: "State.Initial conditions.Initial state of charge",
		},
		{
			name: "validation traces of unequal length",
			doc: func() map[string]any {
				doc := testdoc.SPM()
				testdoc.Set(doc, map[string]any{
					"Time [s]":    []any{0.0, 1.0},
					"Current [A]": []any{1.0},
					"Voltage [V]": []any{4.0, 3.9},
				}, "Validation", "pulse")
				return doc
			},
			kind: issue.ErrStructure,
			path: "Validation.pulse.Current [A]",
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.doc())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)

			e, ok := issue.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.path, e.Path.String())
			if tt.msg != "" {
				assert.Contains(t, e.Message, tt.msg)
			}
		})
	}
}

func TestPartialWithoutState(t *testing.T) {
	doc := testdoc.Partial()
	_, present := doc["State"]
	require.False(t, present)

	res, err := newValidator(t).Validate(context.Background(), doc)
	require.NoError(t, err)
	assert.Nil(t, res.Document.State)
	assert.Nil(t, res.Document.Parameterisation.Positive)
}

func TestLegacyVersion(t *testing.T) {
	doc := testdoc.SPM()
	testdoc.Set(doc, 0.4, "Header", "BPX")

	res, err := newValidator(t).Validate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", res.Document.Header.BPX)

	warnings := res.Warnings.Warnings(issue.CodeDeprecation)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Header.BPX"}, warnings[0].Expression)
}

func TestLegacyVersionRoundTrip(t *testing.T) {
	doc := testdoc.SPM()
	testdoc.Set(doc, 0.4, "Header", "BPX")
	v := newValidator(t)

	first, err := v.Validate(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, first.Warnings.Warnings(issue.CodeDeprecation), 1)

	raw := first.Document.Raw()
	assert.Equal(t, "0.4.0", testdoc.Get(raw, "Header", "BPX"))

	// the normalised header is a plain version string, so re-validating it
	// yields the same document without the deprecation warning
	second, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, second.Warnings.Warnings(issue.CodeDeprecation))
	assert.Empty(t, cmp.Diff(first.Document, second.Document))
}

func TestConsistencyPhaseLogged(t *testing.T) {
	tests := []struct {
		name string
		doc  func() map[string]any
		ran  string
	}{
		{"single material", testdoc.NonBlended, "ran=true"},
		{"partial", testdoc.Partial, "ran=false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			metrics := bpx.NewMetrics()
			v, err := New(
				WithLogger(logger.New(&buf, logger.LevelDebug, logger.FormatText)),
				WithMetrics(metrics),
			)
			require.NoError(t, err)

			_, err = v.Validate(context.Background(), tt.doc())
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "consistency check finished")
			assert.Contains(t, buf.String(), tt.ran)

			var consistency uint64
			for _, ps := range metrics.AllPhaseStats() {
				if ps.Name == PhaseConsistency {
					consistency = ps.Invocations
				}
			}
			assert.Equal(t, uint64(1), consistency)
		})
	}
}

func TestVoltageTolerance(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper float64
		tolerance    []ValidateOption
		want         int
	}{
		{"within cut-offs", 2.5, 4.3, nil, 0},
		{"upper exceeded", 2.0, 4.0, nil, 1},
		{"upper exceeded within tolerance", 2.0, 4.0, []ValidateOption{WithVoltageTolerance(0.25)}, 0},
		{"both shifted", 3.0, 3.9, []ValidateOption{WithVoltageTolerance(1e-3)}, 2},
		{"both shifted within tolerance", 3.0, 3.9, []ValidateOption{WithVoltageTolerance(0.35)}, 0},
		{"zero tolerance", 2.0, 4.0, []ValidateOption{WithVoltageTolerance(0)}, 1},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := cutoffs(testdoc.NonBlended(), tt.lower, tt.upper)
			res, err := v.Validate(context.Background(), doc, tt.tolerance...)
			require.NoError(t, err)
			assert.Len(t, res.Warnings.Warnings(issue.CodeConsistency), tt.want)
		})
	}
}

func TestVoltageToleranceWarningText(t *testing.T) {
	res, err := newValidator(t).Validate(context.Background(), testdoc.NonBlended())
	require.NoError(t, err)

	warnings := res.Warnings.Warnings(issue.CodeConsistency)
	require.Len(t, warnings, 1)
	assert.Equal(t, "The maximum voltage computed from the STO limits (4.2018 V) is higher than "+
		"the upper voltage cut-off (4 V) with the absolute tolerance v_tol = 0.001 V", warnings[0].Diagnostics)
	assert.Equal(t, []string{"Parameterisation.Cell.Upper voltage cut-off [V]"}, warnings[0].Expression)
}

func TestNegativeTolerance(t *testing.T) {
	v := newValidator(t)
	for _, tol := range []float64{-1e-3, math.NaN()} {
		res, err := v.Validate(context.Background(), testdoc.NonBlended(), WithVoltageTolerance(tol))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, issue.ErrConfiguration)
		assert.Contains(t, err.Error(), "v_tol should not be negative")
	}
}

func TestConfigurationErrorBeforeValidation(t *testing.T) {
	// the document is invalid too; the tolerance is reported first
	_, err := newValidator(t).Validate(context.Background(), map[string]any{}, WithVoltageTolerance(-1))
	assert.ErrorIs(t, err, issue.ErrConfiguration)
}

func TestStrictMode(t *testing.T) {
	doc := func() map[string]any {
		doc := testdoc.NonBlended()
		testdoc.Set(doc, map[string]any{"fit": "2 * soft(x)"}, "Parameterisation", "User-defined")
		return doc
	}

	_, err := newValidator(t).Validate(context.Background(), doc())
	require.NoError(t, err)

	_, err = newValidator(t, WithStrictMode(true)).Validate(context.Background(), doc())
	require.Error(t, err)
	assert.ErrorIs(t, err, issue.ErrParse)
	e, ok := issue.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Parameterisation.User-defined.fit", e.Path.String())
	assert.Contains(t, e.Message, "Invalid Function")
	assert.Contains(t, e.Message, "soft")

	soft := WithFunction("soft", 1, func(a ...float64) float64 { return math.Log1p(math.Exp(a[0])) })
	v := newValidator(t, WithStrictMode(true), soft)
	_, err = v.Validate(context.Background(), doc())
	require.NoError(t, err)
	assert.Equal(t, []string{"cosh", "exp", "soft", "tanh"}, v.Functions())
}

func TestNewErrors(t *testing.T) {
	fn := func(a ...float64) float64 { return a[0] }
	tests := []struct {
		name string
		opt  Option
		msg  string
	}{
		{"bad name", WithFunction("2f", 1, fn), "'2f' is not a valid function name"},
		{"variable name", WithFunction("x", 1, fn), "'x' is not a valid function name"},
		{"no arguments", WithFunction("f", 0, fn), "must take at least one argument"},
		{"no implementation", WithFunction("f", 1, nil), "has no implementation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithLogger(logger.Discard()), tt.opt)
			require.Error(t, err)
			assert.ErrorIs(t, err, issue.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

const badModelJSON = `{
  "Header": {
    "BPX": "1.0.0",
    "Model": "XYZ"
  },
  "Parameterisation": {}
}`

func TestValidateJSON(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateJSON(context.Background(), []byte(badModelJSON))
	require.Error(t, err)
	e, ok := issue.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Header.Model", e.Path.String())
	assert.Equal(t, 4, e.Line)
	assert.Equal(t, 14, e.Column)
	assert.Contains(t, err.Error(), "(line 4, column 14)")

	_, err = v.ValidateJSON(context.Background(), []byte(`{"Header": `))
	assert.ErrorIs(t, err, issue.ErrParse)
}

func TestValidateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newValidator(t).Validate(ctx, testdoc.SPM())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetrics(t *testing.T) {
	m := bpx.NewMetrics()
	v := newValidator(t, WithMetrics(m))
	assert.Same(t, m, v.Metrics())

	for i := 0; i < 2; i++ {
		_, err := v.Validate(context.Background(), testdoc.NonBlended())
		require.NoError(t, err)
	}
	_, err := v.Validate(context.Background(), map[string]any{})
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.DocumentsTotal)
	assert.Equal(t, uint64(2), snap.DocumentsValid)
	assert.Equal(t, uint64(2), snap.WarningsByCode[string(issue.CodeConsistency)])
	assert.Equal(t, uint64(1), snap.ErrorsByKind[string(issue.CodeRequired)])

	// two OCPs compiled once, then served from the cache
	assert.Equal(t, uint64(2), snap.CacheMisses)
	assert.Equal(t, uint64(2), snap.CacheHits)

	phases := make(map[string]uint64)
	for _, p := range snap.Phases {
		phases[p.Name] = p.Invocations
	}
	assert.Equal(t, uint64(3), phases[PhaseHeader])
	assert.Equal(t, uint64(2), phases[PhaseConsistency])
	assert.NotContains(t, phases, PhaseStrict)
}

func TestConcurrentTolerances(t *testing.T) {
	v := newValidator(t)

	const n = 16
	counts := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tol := 1e-3
			if i%2 == 1 {
				tol = 0.25
			}
			res, err := v.Validate(context.Background(), testdoc.NonBlended(), WithVoltageTolerance(tol))
			if err != nil {
				errs[i] = err
				return
			}
			counts[i] = res.Warnings.WarningCount()
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		want := 1
		if i%2 == 1 {
			want = 0
		}
		assert.Equal(t, want, counts[i], "goroutine %d", i)
	}
}

func TestVersion(t *testing.T) {
	v := newValidator(t)
	assert.Equal(t, bpx.FormatVersion, v.Version())
	assert.Equal(t, 256, v.Config().CacheSize)
}
