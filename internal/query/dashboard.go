package query

import (
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
)

// recentLimit is how many executions the dashboard lists.
const recentLimit = 5

// Dashboard is the landing-page summary.
// Success and Failures count today's executions; Running counts every open one.
type Dashboard struct {
	Pipelines       int                `json:"pipelines"`
	ExecutionsToday int                `json:"executionsToday"`
	Success         int                `json:"success"`
	Failures        int                `json:"failures"`
	Running         int                `json:"running"`
	Recent          []domain.Execution `json:"recent"`
}

// BuildDashboard computes the dashboard counts as of now.
func BuildDashboard(pipelines []domain.Pipeline, execs []domain.Execution, now time.Time) Dashboard {
	today := ByDateRange(execs, RangeToday, now, ExecutionStartedAt)
	s := executionlog.Summarize(today)

	recent := append([]domain.Execution(nil), execs...)
	executionlog.SortNewestFirst(recent)
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return Dashboard{
		Pipelines:       len(pipelines),
		ExecutionsToday: s.Count,
		Success:         s.SuccessCount,
		Failures:        s.FailedCount,
		Running:         len(ByStatus(execs, string(domain.StatusRunning), ExecutionStatusOf)),
		Recent:          recent,
	}
}
