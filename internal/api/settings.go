package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waabox/testdeck/internal/domain"
)

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Get())
}

func (s *Server) putSettings(c *gin.Context) {
	var next domain.NotificationSettings
	if !s.bind(c, &next) {
		return
	}
	if err := next.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if s.saveSettings != nil {
		if err := s.saveSettings(next); err != nil {
			s.fail(c, fmt.Errorf("saving settings: %w", err))
			return
		}
	}
	if err := s.settings.Update(next); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.settings.Get())
}

func (s *Server) getSystem(c *gin.Context) {
	c.JSON(http.StatusOK, s.system)
}
