// Package supervisor cancels executions that outlive their timeout and prunes old history.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/waabox/testdeck/internal/domain"
	"go.uber.org/zap"
)

// Runs is the part of the registry the supervisor needs.
type Runs interface {
	OpenExecutions() []domain.Execution
	Get(id string) (domain.Pipeline, error)
	Cancel(executionID string) (domain.Execution, error)
	PruneExecutions(before time.Time) int
}

// Config tunes the supervisor. Zero DefaultTimeout means runs without their own timeout
// are never cancelled; zero Retention keeps history forever.
type Config struct {
	Schedule       string
	DefaultTimeout time.Duration
	Retention      time.Duration
}

const defaultSchedule = "@every 30s"

// Supervisor periodically sweeps open executions.
type Supervisor struct {
	runs Runs
	cfg  Config
	now  func() time.Time
	log  *zap.Logger
	cron *cron.Cron
}

// New creates a Supervisor. now may be nil to use time.Now.
func New(runs Runs, cfg Config, now func() time.Time, log *zap.Logger) *Supervisor {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{runs: runs, cfg: cfg, now: now, log: log}
}

// Start schedules the sweep. It returns an error for an invalid schedule expression.
func (s *Supervisor) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, s.tick); err != nil {
		return fmt.Errorf("scheduling supervisor %q: %w", s.cfg.Schedule, err)
	}
	s.cron = c
	c.Start()
	s.log.Info("supervisor started", zap.String("schedule", s.cfg.Schedule), zap.Duration("default_timeout", s.cfg.DefaultTimeout))
	return nil
}

// Stop halts scheduling and returns a context that is done once a running sweep finishes.
func (s *Supervisor) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

func (s *Supervisor) tick() {
	s.Sweep()
	s.Prune()
}

// Sweep cancels every open execution past its timeout and returns the cancelled ids.
func (s *Supervisor) Sweep() []string {
	now := s.now()
	var cancelled []string
	for _, e := range s.runs.OpenExecutions() {
		timeout := s.timeoutFor(e)
		if timeout <= 0 || now.Sub(e.StartedAt) < timeout {
			continue
		}
		if _, err := s.runs.Cancel(e.ID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// completed between the listing and the cancel
				continue
			}
			s.log.Warn("cancelling stuck execution failed", zap.String("execution_id", e.ID), zap.Error(err))
			continue
		}
		s.log.Warn("cancelled stuck execution",
			zap.String("execution_id", e.ID),
			zap.String("pipeline_id", e.PipelineID),
			zap.Duration("timeout", timeout))
		cancelled = append(cancelled, e.ID)
	}
	return cancelled
}

// Prune drops history older than the retention window.
func (s *Supervisor) Prune() int {
	if s.cfg.Retention <= 0 {
		return 0
	}
	n := s.runs.PruneExecutions(s.now().Add(-s.cfg.Retention))
	if n > 0 {
		s.log.Info("pruned execution history", zap.Int("count", n))
	}
	return n
}

func (s *Supervisor) timeoutFor(e domain.Execution) time.Duration {
	p, err := s.runs.Get(e.PipelineID)
	if err == nil {
		if t := p.Config.Timeout(); t > 0 {
			return t
		}
	}
	return s.cfg.DefaultTimeout
}
