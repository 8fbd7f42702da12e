package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterMetrics mounts the Prometheus and JSON stats endpoints
func (h *Handlers) RegisterMetrics(r gin.IRouter) {
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	r.GET("/stats", h.Stats)
}
