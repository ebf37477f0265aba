package web

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) serverError(c *gin.Context, err error) {
	s.log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	_ = c.Error(err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (s *Server) notFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "error.html", &HTMLData{Title: "Page not found"})
	c.Abort()
}

func (s *Server) forbidden(c *gin.Context) {
	s.render(c, http.StatusForbidden, "error.html", &HTMLData{Title: "Access denied"})
	c.Abort()
}

// fail answers a service error: missing records are a 404, anything else a 500.
func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		s.notFound(c)
		return
	}
	s.serverError(c, err)
}

// recovery turns a panic into a logged 500.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		s.log.Error(c.Request.Context(), "panic", "path", c.Request.URL.Path, "panic", rec, "stack", string(debug.Stack()))
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
