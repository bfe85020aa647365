package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
	"github.com/waabox/testdeck/internal/query"
)

func (s *Server) executionCriteria(c *gin.Context) (query.ExecutionCriteria, bool) {
	r, err := query.ParseDateRange(c.Query("range"))
	if err != nil {
		s.fail(c, err)
		return query.ExecutionCriteria{}, false
	}
	crit := query.ExecutionCriteria{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Range:  r,
	}
	if err := crit.Validate(); err != nil {
		s.fail(c, err)
		return query.ExecutionCriteria{}, false
	}
	return crit, true
}

func (s *Server) filteredExecutions(c *gin.Context) ([]domain.Execution, bool) {
	crit, ok := s.executionCriteria(c)
	if !ok {
		return nil, false
	}
	return crit.Apply(s.registry.Snapshot().Executions, s.now()), true
}

func (s *Server) listExecutions(c *gin.Context) {
	execs, ok := s.filteredExecutions(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, execs)
}

func (s *Server) executionSummary(c *gin.Context) {
	execs, ok := s.filteredExecutions(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, executionlog.Summarize(execs))
}

func (s *Server) getExecution(c *gin.Context) {
	e, err := s.registry.Execution(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) completeExecution(c *gin.Context) {
	var outcome domain.Outcome
	if !s.bind(c, &outcome) {
		return
	}
	e, err := s.registry.Complete(c.Param("id"), outcome)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) cancelExecution(c *gin.Context) {
	e, err := s.registry.Cancel(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
