package executionlog

import (
	"time"

	"github.com/waabox/testdeck/internal/domain"
)

// Summary aggregates a set of executions for the history and dashboard views.
type Summary struct {
	Count           int           `json:"count"`
	SuccessCount    int           `json:"successCount"`
	FailedCount     int           `json:"failedCount"`
	CancelledCount  int           `json:"cancelledCount"`
	RunningCount    int           `json:"runningCount"`
	SuccessRate     float64       `json:"successRate"`
	AverageDuration time.Duration `json:"averageDuration"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	Skipped         int           `json:"skipped"`
}

// Summarize computes a Summary. The success rate is a fraction in [0, 1] and is 0 for an empty set.
// The average duration only considers executions that have both timestamps.
func Summarize(execs []domain.Execution) Summary {
	var s Summary
	var timed int
	var total time.Duration
	for _, e := range execs {
		s.Count++
		switch e.Status {
		case domain.StatusSuccess:
			s.SuccessCount++
		case domain.StatusFailed:
			s.FailedCount++
		case domain.StatusCancelled:
			s.CancelledCount++
		case domain.StatusRunning:
			s.RunningCount++
		}
		if e.CompletedAt != nil && !e.StartedAt.IsZero() {
			timed++
			total += e.CompletedAt.Sub(e.StartedAt)
		}
		if e.Result != nil {
			s.Passed += e.Result.Passed
			s.Failed += e.Result.Failed
			s.Skipped += e.Result.Skipped
		}
	}
	if s.Count > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.Count)
	}
	if timed > 0 {
		s.AverageDuration = total / time.Duration(timed)
	}
	return s
}
