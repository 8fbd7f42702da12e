package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// retryTimeout bounds a synchronous transpiler re-initialization
const retryTimeout = 30 * time.Second

// TranspilerStatus reports the transpiler service state
func (h *Handlers) TranspilerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.transpiler.Status())
}

// RetryTranspiler fully re-initializes the transpiler service and reports
// the resulting state
func (h *Handlers) RetryTranspiler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), retryTimeout)
	defer cancel()

	if err := h.transpiler.Retry(ctx); err != nil {
		h.logger.Warn("Transpiler retry failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  err.Error(),
			"status": h.transpiler.Status(),
		})
		return
	}
	h.logger.Info("Transpiler re-initialized")
	c.JSON(http.StatusOK, h.transpiler.Status())
}

// RegistryStatus reports whether packages are fetched and how many are
// cached
func (h *Handlers) RegistryStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.registryStats())
}

// PurgeRegistry empties the package cache
func (h *Handlers) PurgeRegistry(c *gin.Context) {
	if h.packages == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "package registry disabled"})
		return
	}
	h.packages.Purge()
	c.Status(http.StatusNoContent)
}
