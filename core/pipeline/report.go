package pipeline

import (
	"context"
	"time"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/jsonl"
)

// Kind identifies a job.
type Kind string

const (
	KindConcordance Kind = "concordance"
	KindTopics      Kind = "topics"
)

// Status is the terminal state of a job.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// JobReport is the structured result of one job.
type JobReport struct {
	RunID           string              `json:"run_id"`
	Kind            Kind                `json:"kind"`
	Status          Status              `json:"status"`
	Sources         []string            `json:"sources"`
	RowsIn          int                 `json:"rows_in"`
	RowsOut         int                 `json:"rows_out"`
	HeaderRows      int                 `json:"header_rows,omitempty"`
	Topics          int                 `json:"topics,omitempty"`
	DroppedByReason map[string]int      `json:"dropped_by_reason"`
	DropSamples     map[string][]string `json:"drop_samples,omitempty"`
	OutputPaths     []string            `json:"output_paths"`
	Artifacts       []jsonl.Artifact    `json:"artifacts,omitempty"`
	StartedAt       string              `json:"started_at"`
	FinishedAt      string              `json:"finished_at"`
	Error           string              `json:"error,omitempty"`

	// Err is the fatal error that ended the job, if any.
	Err error `json:"-"`
}

// Dropped returns the total number of dropped rows.
func (r *JobReport) Dropped() int {
	n := 0
	for _, c := range r.DroppedByReason {
		n += c
	}
	return n
}

// OK reports whether the job completed and committed its outputs.
func (r *JobReport) OK() bool {
	return r.Status == StatusCompleted
}

func (r *JobReport) finish(err error) *JobReport {
	r.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	switch {
	case err == nil:
		r.Status = StatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.Status = StatusCancelled
	default:
		r.Status = StatusFailed
	}
	if err != nil {
		r.Err = err
		r.Error = err.Error()
		r.OutputPaths = nil
		r.Artifacts = nil
	}
	return r
}

// Failure records an input rejected before any job ran.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`

	Err error `json:"-"`
}

// BuildResult collects the outcome of a Build.
type BuildResult struct {
	Failures []Failure    `json:"failures,omitempty"`
	Jobs     []*JobReport `json:"jobs"`
}

// Produced reports whether at least one artifact was committed.
func (b *BuildResult) Produced() bool {
	for _, j := range b.Jobs {
		if j.OK() && len(j.OutputPaths) > 0 {
			return true
		}
	}
	return false
}

// MissingInput reports whether any input path did not exist.
func (b *BuildResult) MissingInput() bool {
	for _, f := range b.Failures {
		if errors.Is(f.Err, errors.ErrNotFound) {
			return true
		}
	}
	return false
}

// Err summarizes the build: nil when something was produced and no input
// was missing.
func (b *BuildResult) Err() error {
	switch {
	case b.MissingInput():
		for _, f := range b.Failures {
			if errors.Is(f.Err, errors.ErrNotFound) {
				return f.Err
			}
		}
	case !b.Produced():
		for _, j := range b.Jobs {
			if j.Err != nil {
				return j.Err
			}
		}
		if len(b.Failures) > 0 {
			return b.Failures[0].Err
		}
		return errors.NewValidation("inputs", "no artifact was produced")
	}
	return nil
}
