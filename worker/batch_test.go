package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpxgo/validator/internal/testdoc"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/logger"
	"github.com/bpxgo/validator/pkg/validator"
)

// mockValidator implements the Validator interface for testing.
type mockValidator struct {
	callCount atomic.Int32
	delay     time.Duration
	err       error
}

func (m *mockValidator) Validate(ctx context.Context, _ map[string]any, _ ...validator.ValidateOption) (*validator.Result, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &validator.Result{Warnings: issue.NewResult()}, nil
}

func newValidator(t *testing.T) *validator.Validator {
	t.Helper()
	v, err := validator.New(validator.WithLogger(logger.Discard()))
	require.NoError(t, err)
	return v
}

func TestNewBatch_DefaultWorkers(t *testing.T) {
	b := NewBatch(&mockValidator{}, 0)
	assert.Positive(t, b.Workers())

	b = NewBatch(&mockValidator{}, 3)
	assert.Equal(t, 3, b.Workers())
}

func TestRun_Empty(t *testing.T) {
	res := NewBatch(&mockValidator{}, 2).Run(context.Background(), nil)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.TotalJobs)
	assert.False(t, res.HasErrors())
}

func TestRun_OrderAndTolerance(t *testing.T) {
	broken := testdoc.SPM()
	delete(broken, "State")

	jobs := []Job{
		{ID: "default", Raw: testdoc.NonBlended()},
		{ID: "loose", Raw: testdoc.NonBlended(), Tolerance: Tolerance(0.25)},
		{ID: "broken", Raw: broken},
		{ID: "dfn", Raw: testdoc.DFN()},
		{ID: "negative", Raw: testdoc.NonBlended(), Tolerance: Tolerance(-1)},
		{ID: "partial", Raw: testdoc.Partial()},
	}

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			res := NewBatch(newValidator(t), workers).Run(context.Background(), jobs)

			require.Len(t, res.Results, len(jobs))
			for i, r := range res.Results {
				assert.Equal(t, jobs[i].ID, r.ID)
			}
			assert.Equal(t, len(jobs), res.TotalJobs)
			assert.Equal(t, len(jobs), res.CompletedJobs)
			assert.Equal(t, 2, res.FailedJobs)
			assert.True(t, res.HasErrors())

			assert.True(t, res.Results[0].Valid())
			assert.Equal(t, 1, res.Results[0].Result.Warnings.WarningCount())
			assert.Equal(t, 0, res.Results[1].Result.Warnings.WarningCount())
			assert.ErrorIs(t, res.Results[2].Error, issue.ErrStructure)
			assert.ErrorIs(t, res.Results[4].Error, issue.ErrConfiguration)
			assert.Equal(t, 1, res.WarningCount())
		})
	}
}

func TestRun_SourceLocation(t *testing.T) {
	src := []byte("{\n  \"Header\": {\"BPX\": \"1.0.0\", \"Model\": \"DFN\"}\n}")
	jobs := []Job{{ID: "no-params.json", Raw: map[string]any{
		"Header": map[string]any{"BPX": "1.0.0", "Model": "DFN"},
	}, Source: src}}

	res := NewBatch(newValidator(t), 1).Run(context.Background(), jobs)
	e, ok := issue.AsError(res.Results[0].Error)
	require.True(t, ok)
	assert.Equal(t, "Parameterisation", e.Path.String())
	// the missing section is reported at the root object
	assert.Equal(t, 1, e.Line)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &mockValidator{}
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = Job{ID: fmt.Sprint(i)}
	}
	res := NewBatch(m, 4).Run(ctx, jobs)

	require.Len(t, res.Results, len(jobs))
	assert.Equal(t, int32(0), m.callCount.Load())
	assert.Equal(t, 0, res.CompletedJobs)
	for _, r := range res.Results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
}

func TestRun_CancelMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := &mockValidator{delay: 20 * time.Millisecond}
	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = Job{ID: fmt.Sprint(i)}
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	res := NewBatch(m, 2).Run(ctx, jobs)

	require.Len(t, res.Results, len(jobs))
	assert.Less(t, int(m.callCount.Load()), len(jobs))
	assert.True(t, res.HasErrors())
	assert.ErrorIs(t, res.Results[len(jobs)-1].Error, context.Canceled)
}

func TestRun_ValidatorError(t *testing.T) {
	boom := errors.New("boom")
	m := &mockValidator{err: boom}
	res := NewBatch(m, 2).Run(context.Background(), make([]Job, 5))

	assert.Equal(t, int32(5), m.callCount.Load())
	assert.Equal(t, 5, res.FailedJobs)
	for _, r := range res.Results {
		assert.ErrorIs(t, r.Error, boom)
		assert.False(t, r.Valid())
	}
}
