package registry

import (
	"strings"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/events"
	"github.com/waabox/testdeck/internal/executionlog"
	"go.uber.org/zap"
)

// Run starts a new execution of the pipeline and returns its id.
// A pipeline has at most one open execution; a second Run fails with a conflict.
func (r *Registry) Run(id, triggeredBy string) (string, error) {
	if strings.TrimSpace(triggeredBy) == "" {
		return "", &domain.ValidationError{Field: "triggeredBy", Reason: "must not be empty"}
	}

	r.mu.Lock()
	p, ok := r.pipelines[id]
	if !ok {
		r.mu.Unlock()
		return "", &domain.NotFoundError{Kind: "pipeline", ID: id}
	}
	if p.Status == domain.StatusRunning {
		r.mu.Unlock()
		return "", &domain.ConflictError{Kind: "pipeline", ID: id, Reason: "already running"}
	}
	if r.maxParallel > 0 && r.execs.OpenCount() >= r.maxParallel {
		r.mu.Unlock()
		return "", &domain.ConflictError{Kind: "pipeline", ID: id, Reason: "parallel limit reached"}
	}

	now := r.now()
	exec := domain.Execution{
		ID:           r.newID(),
		PipelineID:   id,
		PipelineName: p.Name,
		Status:       domain.StatusRunning,
		StartedAt:    now,
		TriggeredBy:  triggeredBy,
	}
	if err := r.execs.Append(exec); err != nil {
		r.mu.Unlock()
		return "", err
	}
	p.Status = domain.StatusRunning
	started := now
	p.LastRun = &started
	r.mu.Unlock()

	r.logger.Info("pipeline run started",
		zap.String("pipeline_id", id),
		zap.String("execution_id", exec.ID),
		zap.String("triggered_by", triggeredBy))
	r.publisher.Publish(events.Event{Type: events.ExecutionStarted, At: now, Execution: &exec})
	return exec.ID, nil
}

// Complete closes an open execution with the given outcome and mirrors the
// resulting status onto the pipeline if it still exists. lastRun is left alone.
func (r *Registry) Complete(executionID string, outcome domain.Outcome) (domain.Execution, error) {
	r.mu.Lock()
	exec, err := r.execs.Complete(executionID, outcome, r.now())
	if err != nil {
		r.mu.Unlock()
		return domain.Execution{}, err
	}
	if p, ok := r.pipelines[exec.PipelineID]; ok {
		p.Status = exec.Status
	}
	r.mu.Unlock()

	r.logger.Info("pipeline run completed",
		zap.String("pipeline_id", exec.PipelineID),
		zap.String("execution_id", exec.ID),
		zap.String("status", string(exec.Status)),
		zap.Int64p("duration_seconds", exec.Duration))
	r.publisher.Publish(events.Event{Type: events.ExecutionCompleted, At: *exec.CompletedAt, Execution: &exec})
	return exec, nil
}

// Cancel is Complete with a forced cancelled status and no result.
func (r *Registry) Cancel(executionID string) (domain.Execution, error) {
	return r.Complete(executionID, domain.Outcome{Cancelled: true})
}

// Execution returns a single execution, including those of deleted pipelines.
func (r *Registry) Execution(id string) (domain.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs.Get(id)
}

// Executions returns the whole history, most recent first.
func (r *Registry) Executions() []domain.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs.ListAll()
}

// ExecutionsByPipeline returns the history of one pipeline id, most recent first.
// It works for deleted pipelines too.
func (r *Registry) ExecutionsByPipeline(pipelineID string) []domain.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs.ListByPipeline(pipelineID)
}

// ExecutionsByStatus returns the executions in one status, most recent first.
func (r *Registry) ExecutionsByStatus(status domain.PipelineStatus) []domain.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs.ListByStatus(status)
}

// OpenExecutions returns the in-flight executions, most recent first.
func (r *Registry) OpenExecutions() []domain.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs.Open()
}

// PruneExecutions drops terminal executions completed before the cutoff.
func (r *Registry) PruneExecutions(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execs.Prune(before)
}

// Snapshot is a consistent view of pipelines and executions taken under one lock.
type Snapshot struct {
	Pipelines  []domain.Pipeline  `json:"pipelines"`
	Executions []domain.Execution `json:"executions"`
	TakenAt    time.Time          `json:"takenAt"`
}

// Snapshot returns pipelines and executions as of a single instant.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Pipelines:  r.listLocked(),
		Executions: r.execs.ListAll(),
		TakenAt:    r.now(),
	}
}

// Summary aggregates the whole history.
func (r *Registry) Summary() executionlog.Summary {
	return executionlog.Summarize(r.Executions())
}
