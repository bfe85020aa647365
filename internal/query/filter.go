// Package query holds the pure filters shared by every pipeline and history view.
// Filters never reorder their input, so any combination of them commutes.
package query

import (
	"strings"
	"time"

	"github.com/waabox/testdeck/internal/domain"
)

// All is the pass-through value accepted by the status, type and date-range filters.
const All = "all"

// Predicate reports whether an item belongs to a view.
type Predicate[T any] func(T) bool

// Filter returns the items matching every predicate, in their original order.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if p != nil && !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// Search keeps items where any selected field contains text, ignoring case.
// Empty text matches everything.
func Search[T any](items []T, text string, fields func(T) []string) []T {
	return Filter(items, SearchPredicate(text, fields))
}

// SearchPredicate is the predicate form of Search.
func SearchPredicate[T any](text string, fields func(T) []string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
}

// ByStatus keeps items whose status equals status. All passes everything through.
func ByStatus[T any](items []T, status string, statusOf func(T) domain.PipelineStatus) []T {
	return Filter(items, StatusPredicate(status, statusOf))
}

// StatusPredicate is the predicate form of ByStatus.
func StatusPredicate[T any](status string, statusOf func(T) domain.PipelineStatus) Predicate[T] {
	if status == "" || status == All {
		return nil
	}
	want := domain.PipelineStatus(status)
	return func(it T) bool { return statusOf(it) == want }
}

// ByType keeps pipelines of the given type. All passes everything through.
func ByType(items []domain.Pipeline, typ string) []domain.Pipeline {
	return Filter(items, TypePredicate(typ))
}

// TypePredicate is the predicate form of ByType.
func TypePredicate(typ string) Predicate[domain.Pipeline] {
	if typ == "" || typ == All {
		return nil
	}
	want := domain.PipelineType(typ)
	return func(p domain.Pipeline) bool { return p.Type == want }
}

// ByDateRange keeps items whose timestamp falls at or after the range cutoff.
// Items without a timestamp are dropped unless the range is RangeAll.
func ByDateRange[T any](items []T, r DateRange, now time.Time, timeOf func(T) (time.Time, bool)) []T {
	return Filter(items, DateRangePredicate(r, now, timeOf))
}

// DateRangePredicate is the predicate form of ByDateRange.
func DateRangePredicate[T any](r DateRange, now time.Time, timeOf func(T) (time.Time, bool)) Predicate[T] {
	cutoff, bounded := r.Cutoff(now)
	if !bounded {
		return nil
	}
	return func(it T) bool {
		ts, ok := timeOf(it)
		if !ok || ts.IsZero() {
			return false
		}
		return !ts.Before(cutoff)
	}
}

// PipelineStatusOf is the status selector for pipelines.
func PipelineStatusOf(p domain.Pipeline) domain.PipelineStatus { return p.Status }

// ExecutionStatusOf is the status selector for executions.
func ExecutionStatusOf(e domain.Execution) domain.PipelineStatus { return e.Status }

// PipelineSearchFields searches name and description.
func PipelineSearchFields(p domain.Pipeline) []string { return []string{p.Name, p.Description} }

// ExecutionSearchFields searches the pipeline name snapshot.
func ExecutionSearchFields(e domain.Execution) []string { return []string{e.PipelineName} }

// ExecutionStartedAt is the date-range selector for executions.
func ExecutionStartedAt(e domain.Execution) (time.Time, bool) {
	return e.StartedAt, !e.StartedAt.IsZero()
}

// PipelineLastRun is the date-range selector for pipelines.
func PipelineLastRun(p domain.Pipeline) (time.Time, bool) {
	if p.LastRun == nil {
		return time.Time{}, false
	}
	return *p.LastRun, true
}
