// Package registry owns the pipeline set and drives the run lifecycle.
package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/events"
	"github.com/waabox/testdeck/internal/executionlog"
	"go.uber.org/zap"
)

// Publisher receives lifecycle events after each successful mutation.
type Publisher interface {
	Publish(ev events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// Registry is the authoritative store of pipelines and their executions.
// A single lock covers both so that a pipeline is running exactly when it has an open execution,
// and readers never observe one without the other.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*domain.Pipeline
	order     []string
	execs     *executionlog.Log

	now         func() time.Time
	newID       func() string
	maxParallel int
	logger      *zap.Logger
	publisher   Publisher
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the UUID generator used for pipelines and executions.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithPublisher sets where lifecycle events go.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithMaxParallel limits how many executions may be open at once. Zero means no limit.
func WithMaxParallel(n int) Option {
	return func(r *Registry) { r.maxParallel = n }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		pipelines: make(map[string]*domain.Pipeline),
		execs:     executionlog.New(),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    zap.NewNop(),
		publisher: nopPublisher{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates def and stores a new idle pipeline.
func (r *Registry) Create(def domain.PipelineDefinition) (domain.Pipeline, error) {
	if err := def.Validate(); err != nil {
		return domain.Pipeline{}, err
	}

	r.mu.Lock()
	id := r.newID()
	if _, exists := r.pipelines[id]; exists {
		r.mu.Unlock()
		return domain.Pipeline{}, &domain.ConflictError{Kind: "pipeline", ID: id, Reason: "id already in use"}
	}
	now := r.now()
	p := &domain.Pipeline{
		ID:          id,
		Name:        strings.TrimSpace(def.Name),
		Description: def.Description,
		Type:        def.Type,
		Config:      def.Config.Clone(),
		CreatedBy:   def.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      domain.StatusIdle,
	}
	r.pipelines[id] = p
	r.order = append(r.order, id)
	out := p.Clone()
	r.mu.Unlock()

	r.logger.Info("pipeline created", zap.String("pipeline_id", id), zap.String("name", out.Name), zap.String("type", string(out.Type)))
	r.publishPipeline(events.PipelineCreated, out)
	return out, nil
}

// Update merges patch into the pipeline. Nothing changes when validation fails.
func (r *Registry) Update(id string, patch domain.PipelinePatch) (domain.Pipeline, error) {
	r.mu.Lock()
	p, ok := r.pipelines[id]
	if !ok {
		r.mu.Unlock()
		return domain.Pipeline{}, &domain.NotFoundError{Kind: "pipeline", ID: id}
	}
	merged, err := patch.Apply(*p)
	if err != nil {
		r.mu.Unlock()
		return domain.Pipeline{}, err
	}
	merged.Name = strings.TrimSpace(merged.Name)
	merged.UpdatedAt = r.now()
	if merged.UpdatedAt.Before(merged.CreatedAt) {
		merged.UpdatedAt = merged.CreatedAt
	}
	*p = merged
	out := p.Clone()
	r.mu.Unlock()

	r.logger.Info("pipeline updated", zap.String("pipeline_id", id))
	r.publishPipeline(events.PipelineUpdated, out)
	return out, nil
}

// Delete removes the pipeline. Its executions stay in the log.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	p, ok := r.pipelines[id]
	if !ok {
		r.mu.Unlock()
		return &domain.NotFoundError{Kind: "pipeline", ID: id}
	}
	delete(r.pipelines, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	out := p.Clone()
	r.mu.Unlock()

	r.logger.Info("pipeline deleted", zap.String("pipeline_id", id))
	r.publishPipeline(events.PipelineDeleted, out)
	return nil
}

// Get returns one pipeline.
func (r *Registry) Get(id string) (domain.Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[id]
	if !ok {
		return domain.Pipeline{}, &domain.NotFoundError{Kind: "pipeline", ID: id}
	}
	return p.Clone(), nil
}

// List returns all pipelines in insertion order.
func (r *Registry) List() []domain.Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []domain.Pipeline {
	out := make([]domain.Pipeline, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.pipelines[id].Clone())
	}
	return out
}

func (r *Registry) publishPipeline(t events.Type, p domain.Pipeline) {
	r.publisher.Publish(events.Event{Type: t, At: r.now(), Pipeline: &p})
}
