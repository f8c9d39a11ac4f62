package worker

import (
	"time"

	"github.com/bpxgo/validator/pkg/validator"
)

// Job represents one document to validate.
type Job struct {
	// ID identifies the job in its result, typically the file name.
	ID string

	// Raw is the parsed document tree.
	Raw map[string]any

	// Source is the JSON text Raw was parsed from. When set, errors carry
	// the line and column of the offending value.
	Source []byte

	// Tolerance overrides the default voltage tolerance for this job.
	Tolerance *float64
}

// Tolerance returns a pointer for Job.Tolerance.
func Tolerance(v float64) *float64 { return &v }

func (j Job) options() []validator.ValidateOption {
	if j.Tolerance == nil {
		return nil
	}
	return []validator.ValidateOption{validator.WithVoltageTolerance(*j.Tolerance)}
}

// JobResult represents the result of a validation job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Result is set when the document is valid.
	Result *validator.Result

	// Error is the validation failure, or the context error for a job that
	// never ran.
	Error error

	// Duration is the time taken to validate.
	Duration time.Duration
}

// Valid reports whether the document passed.
func (r *JobResult) Valid() bool { return r.Error == nil }

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results holds one entry per job, in job order.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs that ran (including failures).
	CompletedJobs int

	// FailedJobs is the number of jobs that ran and failed.
	FailedJobs int

	// TotalDuration is the wall time of the whole batch.
	TotalDuration time.Duration
}

// HasErrors returns true if any job failed or never ran.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r.Error != nil {
			return true
		}
	}
	return false
}

// WarningCount returns the total number of warnings across valid documents.
func (br *BatchResult) WarningCount() int {
	count := 0
	for _, r := range br.Results {
		if r.Result != nil {
			count += r.Result.Warnings.WarningCount()
		}
	}
	return count
}
