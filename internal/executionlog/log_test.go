package executionlog_test

import (
	"errors"
	"testing"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
)

var base = time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC)

func running(id, pipelineID string, startedAt time.Time) domain.Execution {
	return domain.Execution{
		ID:           id,
		PipelineID:   pipelineID,
		PipelineName: "API Tests Production",
		Status:       domain.StatusRunning,
		StartedAt:    startedAt,
		TriggeredBy:  "john@testflow.com",
	}
}

func TestLog_AppendRejectsDuplicateInFlight(t *testing.T) {
	l := executionlog.New()
	if err := l.Append(running("e1", "p1", base)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := l.Append(running("e2", "p1", base.Add(time.Second)))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for second open execution, got %v", err)
	}
	err = l.Append(running("e1", "p2", base))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for reused id, got %v", err)
	}
	if len(l.ListAll()) != 1 {
		t.Errorf("expected exactly one record, got %d", len(l.ListAll()))
	}
}

func TestLog_CompleteSetsDurationAndStatus(t *testing.T) {
	l := executionlog.New()
	l.Append(running("e1", "p1", base))

	result := &domain.ExecutionResult{Passed: 45, Skipped: 2, Total: 47}
	got, err := l.Complete("e1", domain.Outcome{Result: result}, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusSuccess {
		t.Errorf("expected success, got %s", got.Status)
	}
	if got.Duration == nil || *got.Duration != 120 {
		t.Errorf("expected duration 120, got %v", got.Duration)
	}
	if _, open := l.OpenFor("p1"); open {
		t.Error("expected no open execution after complete")
	}
}

func TestLog_CompleteTwiceConflictsAndKeepsRecord(t *testing.T) {
	l := executionlog.New()
	l.Append(running("e1", "p1", base))
	first, _ := l.Complete("e1", domain.Outcome{Result: &domain.ExecutionResult{Passed: 28, Failed: 5, Total: 33}}, base.Add(5*time.Minute))

	_, err := l.Complete("e1", domain.Outcome{Cancelled: true}, base.Add(10*time.Minute))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	after, _ := l.Get("e1")
	if after.Status != first.Status || !after.CompletedAt.Equal(*first.CompletedAt) || *after.Duration != *first.Duration {
		t.Errorf("record changed by failed complete: before %+v after %+v", first, after)
	}
}

func TestLog_CompleteUnknownIsNotFound(t *testing.T) {
	l := executionlog.New()
	if _, err := l.Complete("nope", domain.Outcome{Cancelled: true}, base); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLog_CompleteWithInvalidResultLeavesRecordOpen(t *testing.T) {
	l := executionlog.New()
	l.Append(running("e1", "p1", base))
	_, err := l.Complete("e1", domain.Outcome{Result: &domain.ExecutionResult{Passed: 1, Total: 2}}, base.Add(time.Minute))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	e, _ := l.Get("e1")
	if !e.IsOpen() || e.Status != domain.StatusRunning {
		t.Errorf("expected record to stay open, got %+v", e)
	}
}

func TestLog_ListsNewestFirst(t *testing.T) {
	l := executionlog.New()
	l.Append(running("old", "p1", base.Add(-24*time.Hour)))
	l.Complete("old", domain.Outcome{Cancelled: true}, base.Add(-23*time.Hour))
	l.Append(running("mid", "p2", base.Add(-time.Hour)))
	l.Append(running("new", "p1", base))

	all := l.ListAll()
	if len(all) != 3 || all[0].ID != "new" || all[1].ID != "mid" || all[2].ID != "old" {
		t.Fatalf("unexpected order: %v", ids(all))
	}
	byPipeline := l.ListByPipeline("p1")
	if len(byPipeline) != 2 || byPipeline[0].ID != "new" {
		t.Errorf("unexpected pipeline listing: %v", ids(byPipeline))
	}
	if got := l.ListByStatus(domain.StatusCancelled); len(got) != 1 || got[0].ID != "old" {
		t.Errorf("unexpected status listing: %v", ids(got))
	}
	if got := l.Open(); len(got) != 2 {
		t.Errorf("expected 2 open executions, got %v", ids(got))
	}
}

func TestLog_PruneKeepsOpenAndRecent(t *testing.T) {
	l := executionlog.New()
	l.Append(running("old", "p1", base.Add(-48*time.Hour)))
	l.Complete("old", domain.Outcome{Cancelled: true}, base.Add(-47*time.Hour))
	l.Append(running("stuck", "p2", base.Add(-72*time.Hour)))
	l.Append(running("recent", "p3", base.Add(-time.Hour)))
	l.Complete("recent", domain.Outcome{Cancelled: true}, base)

	if n := l.Prune(base.Add(-24 * time.Hour)); n != 1 {
		t.Errorf("expected 1 pruned record, got %d", n)
	}
	if _, err := l.Get("old"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected old record to be pruned")
	}
	if _, err := l.Get("stuck"); err != nil {
		t.Error("open record must survive pruning")
	}
}

func ids(execs []domain.Execution) []string {
	out := make([]string, len(execs))
	for i, e := range execs {
		out[i] = e.ID
	}
	return out
}
