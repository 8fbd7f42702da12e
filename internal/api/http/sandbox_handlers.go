package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SandboxStatus reports on the live headless context of a project: its
// generation, whether the document finished loading, and what it was not
// allowed to do
func (h *Handlers) SandboxStatus(c *gin.Context) {
	s, ok := h.project(c)
	if !ok {
		return
	}
	if !s.Sandboxed() {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	sc := s.Context()
	if sc == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": true, "context": nil})
		return
	}

	ready := false
	select {
	case <-sc.Ready():
		ready = true
	default:
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"context": gin.H{
			"generation":      sc.Generation(),
			"ready":           ready,
			"navigations":     sc.Navigations(),
			"skipped_scripts": sc.SkippedScripts(),
			"dropped":         sc.Dropped(),
		},
	})
}
