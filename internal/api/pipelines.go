package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/query"
)

// RunRequest is the body of POST /api/pipelines/:id/run.
type RunRequest struct {
	TriggeredBy string `json:"triggeredBy"`
}

// RunResponse is returned when a run starts.
type RunResponse struct {
	ExecutionID string           `json:"executionId"`
	Execution   domain.Execution `json:"execution"`
}

func (s *Server) listPipelines(c *gin.Context) {
	crit := query.PipelineCriteria{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	if err := crit.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, crit.Apply(s.registry.List()))
}

func (s *Server) createPipeline(c *gin.Context) {
	var def domain.PipelineDefinition
	if !s.bind(c, &def) {
		return
	}
	p, err := s.registry.Create(def)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getPipeline(c *gin.Context) {
	p, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updatePipeline(c *gin.Context) {
	var patch domain.PipelinePatch
	if !s.bind(c, &patch) {
		return
	}
	p, err := s.registry.Update(c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePipeline(c *gin.Context) {
	if err := s.registry.Delete(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) runPipeline(c *gin.Context) {
	var req RunRequest
	if !s.bind(c, &req) {
		return
	}
	id, err := s.registry.Run(c.Param("id"), req.TriggeredBy)
	if err != nil {
		s.fail(c, err)
		return
	}
	exec, err := s.registry.Execution(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, RunResponse{ExecutionID: id, Execution: exec})
}

func (s *Server) pipelineExecutions(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.registry.Get(id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.registry.ExecutionsByPipeline(id))
}

func (s *Server) dashboard(c *gin.Context) {
	snap := s.registry.Snapshot()
	c.JSON(http.StatusOK, query.BuildDashboard(snap.Pipelines, snap.Executions, s.now()))
}
