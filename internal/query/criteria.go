package query

import (
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
)

// PipelineCriteria is the filter state of the pipelines view.
type PipelineCriteria struct {
	Search string
	Type   string
	Status string
}

// Validate rejects unknown type and status values.
func (c PipelineCriteria) Validate() error {
	if c.Type != "" && c.Type != All && !domain.PipelineType(c.Type).Valid() {
		return &domain.ValidationError{Field: "type", Reason: "unknown pipeline type " + c.Type}
	}
	return validateStatus(c.Status)
}

// Apply returns the matching pipelines in their original order.
func (c PipelineCriteria) Apply(items []domain.Pipeline) []domain.Pipeline {
	return Filter(items,
		SearchPredicate(c.Search, PipelineSearchFields),
		TypePredicate(c.Type),
		StatusPredicate(c.Status, PipelineStatusOf),
	)
}

// ExecutionCriteria is the filter state of the history view.
type ExecutionCriteria struct {
	Search string
	Status string
	Range  DateRange
}

// Validate rejects unknown status and range values.
func (c ExecutionCriteria) Validate() error {
	if _, err := ParseDateRange(string(c.Range)); err != nil {
		return err
	}
	return validateStatus(c.Status)
}

// Apply returns the matching executions, most recent first.
func (c ExecutionCriteria) Apply(items []domain.Execution, now time.Time) []domain.Execution {
	out := Filter(items,
		SearchPredicate(c.Search, ExecutionSearchFields),
		StatusPredicate(c.Status, ExecutionStatusOf),
		DateRangePredicate(c.Range, now, ExecutionStartedAt),
	)
	executionlog.SortNewestFirst(out)
	return out
}

func validateStatus(s string) error {
	if s != "" && s != All && !domain.PipelineStatus(s).Valid() {
		return &domain.ValidationError{Field: "status", Reason: "unknown status " + s}
	}
	return nil
}
