// Package executionlog keeps the append-only history of pipeline executions.
package executionlog

import (
	"sort"
	"sync"
	"time"

	"github.com/waabox/testdeck/internal/domain"
)

// Log stores executions independently of whether their pipeline still exists.
// Records are only ever appended, closed once, or pruned by retention.
type Log struct {
	mu      sync.RWMutex
	records map[string]*domain.Execution
	// open maps a pipeline id to the id of its in-flight execution.
	open map[string]string
}

// New creates an empty log.
func New() *Log {
	return &Log{
		records: make(map[string]*domain.Execution),
		open:    make(map[string]string),
	}
}

// Append adds a running execution.
// It fails with a validation error when the id is reused or the pipeline already has an open record.
func (l *Log) Append(e domain.Execution) error {
	if e.ID == "" {
		return &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if e.PipelineID == "" {
		return &domain.ValidationError{Field: "pipelineId", Reason: "must not be empty"}
	}
	if e.Status != domain.StatusRunning || e.CompletedAt != nil || e.Result != nil {
		return &domain.ValidationError{Field: "status", Reason: "appended executions must be running"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[e.ID]; exists {
		return &domain.ValidationError{Field: "id", Reason: "execution " + e.ID + " already exists"}
	}
	if openID, busy := l.open[e.PipelineID]; busy {
		return &domain.ValidationError{Field: "pipelineId", Reason: "pipeline " + e.PipelineID + " already has open execution " + openID}
	}
	rec := e.Clone()
	l.records[e.ID] = &rec
	l.open[e.PipelineID] = e.ID
	return nil
}

// Complete closes an open execution at the given time and returns the closed record.
func (l *Log) Complete(id string, outcome domain.Outcome, now time.Time) (domain.Execution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return domain.Execution{}, &domain.NotFoundError{Kind: "execution", ID: id}
	}
	if !rec.IsOpen() {
		return domain.Execution{}, &domain.ConflictError{Kind: "execution", ID: id, Reason: "already " + string(rec.Status)}
	}
	if err := outcome.Validate(); err != nil {
		return domain.Execution{}, err
	}

	if now.Before(rec.StartedAt) {
		now = rec.StartedAt
	}
	completed := now
	duration := domain.DurationSeconds(rec.StartedAt, completed)
	rec.CompletedAt = &completed
	rec.Duration = &duration
	rec.Status = outcome.Status()
	if outcome.Result != nil && !outcome.Cancelled {
		r := *outcome.Result
		rec.Result = &r
	}
	if len(outcome.Logs) > 0 {
		rec.Logs = append([]string(nil), outcome.Logs...)
	}
	delete(l.open, rec.PipelineID)
	return rec.Clone(), nil
}

// Get returns a single execution.
func (l *Log) Get(id string) (domain.Execution, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	if !ok {
		return domain.Execution{}, &domain.NotFoundError{Kind: "execution", ID: id}
	}
	return rec.Clone(), nil
}

// OpenFor returns the in-flight execution id of a pipeline, if any.
func (l *Log) OpenFor(pipelineID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.open[pipelineID]
	return id, ok
}

// OpenCount returns the number of in-flight executions.
func (l *Log) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.open)
}

// ListAll returns every execution, most recent first.
func (l *Log) ListAll() []domain.Execution {
	return l.collect(func(*domain.Execution) bool { return true })
}

// ListByPipeline returns the executions of one pipeline, most recent first.
func (l *Log) ListByPipeline(pipelineID string) []domain.Execution {
	return l.collect(func(e *domain.Execution) bool { return e.PipelineID == pipelineID })
}

// ListByStatus returns the executions in the given status, most recent first.
func (l *Log) ListByStatus(status domain.PipelineStatus) []domain.Execution {
	return l.collect(func(e *domain.Execution) bool { return e.Status == status })
}

// Open returns the in-flight executions, most recent first.
func (l *Log) Open() []domain.Execution {
	return l.collect(func(e *domain.Execution) bool { return e.IsOpen() })
}

// Prune removes terminal executions completed before the cutoff and returns how many were dropped.
// Open executions are never pruned.
func (l *Log) Prune(before time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, rec := range l.records {
		if rec.CompletedAt != nil && rec.CompletedAt.Before(before) {
			delete(l.records, id)
			n++
		}
	}
	return n
}

func (l *Log) collect(keep func(*domain.Execution) bool) []domain.Execution {
	l.mu.RLock()
	out := make([]domain.Execution, 0, len(l.records))
	for _, rec := range l.records {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	l.mu.RUnlock()
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders executions by startedAt descending, breaking ties by id.
func SortNewestFirst(execs []domain.Execution) {
	sort.SliceStable(execs, func(i, j int) bool {
		if !execs[i].StartedAt.Equal(execs[j].StartedAt) {
			return execs[i].StartedAt.After(execs[j].StartedAt)
		}
		return execs[i].ID > execs[j].ID
	})
}
