// Package api exposes the pipeline registry over HTTP for the dashboard and
// for runner completion callbacks.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/events"
	"github.com/waabox/testdeck/internal/notify"
	"github.com/waabox/testdeck/internal/registry"
	"go.uber.org/zap"
)

// Registry is the subset of the pipeline registry the API drives.
type Registry interface {
	Create(def domain.PipelineDefinition) (domain.Pipeline, error)
	Update(id string, patch domain.PipelinePatch) (domain.Pipeline, error)
	Delete(id string) error
	Get(id string) (domain.Pipeline, error)
	List() []domain.Pipeline
	Run(id, triggeredBy string) (string, error)
	Complete(executionID string, outcome domain.Outcome) (domain.Execution, error)
	Cancel(executionID string) (domain.Execution, error)
	Execution(id string) (domain.Execution, error)
	ExecutionsByPipeline(pipelineID string) []domain.Execution
	Snapshot() registry.Snapshot
}

// Options wires a Server. Registry and Settings are required.
type Options struct {
	Registry Registry
	Settings *notify.Store
	// Broker feeds /api/events; the route is not registered when nil.
	Broker *events.Broker
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	// System is returned by GET /api/settings/system.
	System domain.SystemSettings
	// SaveSettings persists notification settings after a successful update.
	SaveSettings func(domain.NotificationSettings) error
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Server is the gin-based HTTP boundary.
type Server struct {
	engine       *gin.Engine
	registry     Registry
	settings     *notify.Store
	system       domain.SystemSettings
	broker       *events.Broker
	saveSettings func(domain.NotificationSettings) error
	now          func() time.Time
	log          *zap.Logger
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		registry:     opts.Registry,
		settings:     opts.Settings,
		system:       opts.System,
		broker:       opts.Broker,
		saveSettings: opts.SaveSettings,
		now:          opts.Clock,
		log:          opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), cors())

	api := r.Group("/api")
	api.GET("/pipelines", s.listPipelines)
	api.POST("/pipelines", s.createPipeline)
	api.GET("/pipelines/:id", s.getPipeline)
	api.PATCH("/pipelines/:id", s.updatePipeline)
	api.DELETE("/pipelines/:id", s.deletePipeline)
	api.POST("/pipelines/:id/run", s.runPipeline)
	api.GET("/pipelines/:id/executions", s.pipelineExecutions)

	api.GET("/executions", s.listExecutions)
	api.GET("/executions/summary", s.executionSummary)
	api.GET("/executions/:id", s.getExecution)
	api.POST("/executions/:id/complete", s.completeExecution)
	api.POST("/executions/:id/cancel", s.cancelExecution)

	api.GET("/dashboard", s.dashboard)
	api.GET("/settings/notifications", s.getSettings)
	api.PUT("/settings/notifications", s.putSettings)
	api.GET("/settings/system", s.getSystem)
	if s.broker != nil {
		api.GET("/events", s.streamEvents)
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	s.engine = r
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
