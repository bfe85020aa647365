package domain

import (
	"fmt"
	"time"
)

// AssertionResult is the outcome of one named assertion in a run.
type AssertionResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// ExecutionResult holds the test counts reported by the runner.
type ExecutionResult struct {
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Total      int               `json:"total"`
	Errors     []string          `json:"errors,omitempty"`
	Assertions []AssertionResult `json:"assertions,omitempty"`
}

// Validate checks that the counts are non-negative and add up to Total.
func (r ExecutionResult) Validate() error {
	if r.Passed < 0 || r.Failed < 0 || r.Skipped < 0 || r.Total < 0 {
		return &ValidationError{Field: "result", Reason: "counts must not be negative"}
	}
	if r.Total != r.Passed+r.Failed+r.Skipped {
		return &ValidationError{Field: "result.total", Reason: "must equal passed + failed + skipped"}
	}
	return nil
}

// Status derives the terminal status implied by the result.
func (r ExecutionResult) Status() PipelineStatus {
	if r.Failed > 0 {
		return StatusFailed
	}
	return StatusSuccess
}

// Outcome is what a completion callback delivers: either a result or a cancellation.
type Outcome struct {
	Result    *ExecutionResult `json:"result,omitempty"`
	Cancelled bool             `json:"cancelled,omitempty"`
	Logs      []string         `json:"logs,omitempty"`
}

// Validate checks that the outcome can close an execution.
func (o Outcome) Validate() error {
	if o.Cancelled {
		return nil
	}
	if o.Result == nil {
		return &ValidationError{Field: "result", Reason: "required unless the execution is cancelled"}
	}
	return o.Result.Validate()
}

// Status returns the terminal status the outcome leads to.
func (o Outcome) Status() PipelineStatus {
	if o.Cancelled {
		return StatusCancelled
	}
	return o.Result.Status()
}

// Execution is one run of a pipeline.
type Execution struct {
	ID           string           `json:"id"`
	PipelineID   string           `json:"pipelineId"`
	PipelineName string           `json:"pipelineName"`
	Status       PipelineStatus   `json:"status"`
	StartedAt    time.Time        `json:"startedAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	Duration     *int64           `json:"duration,omitempty"`
	Logs         []string         `json:"logs,omitempty"`
	Result       *ExecutionResult `json:"result,omitempty"`
	TriggeredBy  string           `json:"triggeredBy"`
}

// IsOpen reports whether the execution has not reached a terminal state yet.
func (e Execution) IsOpen() bool {
	return e.CompletedAt == nil
}

// Clone returns a copy of e that shares no mutable state with it.
func (e Execution) Clone() Execution {
	out := e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	if e.Duration != nil {
		d := *e.Duration
		out.Duration = &d
	}
	if e.Logs != nil {
		out.Logs = append([]string(nil), e.Logs...)
	}
	if e.Result != nil {
		r := *e.Result
		r.Errors = append([]string(nil), e.Result.Errors...)
		r.Assertions = append([]AssertionResult(nil), e.Result.Assertions...)
		out.Result = &r
	}
	return out
}

// DurationSeconds returns completedAt - startedAt rounded to whole seconds, never negative.
func DurationSeconds(startedAt, completedAt time.Time) int64 {
	d := completedAt.Sub(startedAt).Round(time.Second)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// FormatSeconds renders a duration the way the history view shows it: "45s" or "2m 30s".
func FormatSeconds(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
