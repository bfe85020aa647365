package tui

import (
	"fmt"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/query"
)

var (
	typeOptions = []string{
		query.All,
		string(domain.TypeAPICollection),
		string(domain.TypeMobileSuite),
	}
	statusOptions = []string{
		query.All,
		string(domain.StatusIdle),
		string(domain.StatusRunning),
		string(domain.StatusSuccess),
		string(domain.StatusFailed),
		string(domain.StatusCancelled),
	}
)

// cycle returns the option after current, wrapping around. Unknown values restart at the first option.
func cycle(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func cycleRange(current query.DateRange) query.DateRange {
	for i, r := range query.DateRanges {
		if r == current {
			return query.DateRanges[(i+1)%len(query.DateRanges)]
		}
	}
	return query.DateRanges[0]
}

func orAll(s string) string {
	if s == "" {
		return query.All
	}
	return s
}

func pipelineFilterBar(c query.PipelineCriteria) string {
	return fmt.Sprintf(" type: %s   status: %s   search: %q\n", orAll(c.Type), orAll(c.Status), c.Search)
}

func historyFilterBar(c query.ExecutionCriteria) string {
	return fmt.Sprintf(" status: %s   range: %s   search: %q\n", orAll(c.Status), orAll(string(c.Range)), c.Search)
}
