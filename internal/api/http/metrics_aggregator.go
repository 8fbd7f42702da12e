package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/transpiler"
)

// StatsSnapshot represents a snapshot of server, build and dependency state
type StatsSnapshot struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Server     monitoring.MetricsSnapshot `json:"server"`
	Projects   int                        `json:"projects"`
	Transpiler transpiler.Status          `json:"transpiler"`
	Registry   RegistryStats              `json:"registry"`
	Summary    StatsSummary               `json:"summary"`
}

// RegistryStats describes the package cache
type RegistryStats struct {
	Enabled bool `json:"enabled"`
	Cached  int  `json:"cached"`
}

// StatsSummary provides high-level metrics
type StatsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	BuildP95Ms        float64 `json:"build_p95_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Stats returns the aggregated JSON snapshot
func (h *Handlers) Stats(c *gin.Context) {
	server := h.metrics.Snapshot()
	c.JSON(http.StatusOK, StatsSnapshot{
		Timestamp:  time.Now(),
		Server:     server,
		Projects:   h.projects.Len(),
		Transpiler: h.transpiler.Status(),
		Registry:   h.registryStats(),
		Summary:    summarize(server),
	})
}

func (h *Handlers) registryStats() RegistryStats {
	if h.packages == nil {
		return RegistryStats{}
	}
	return RegistryStats{Enabled: true, Cached: h.packages.Cached()}
}

// summarize computes high-level summary metrics
func summarize(snap monitoring.MetricsSnapshot) StatsSummary {
	var errorRate float64
	if snap.TotalRequests > 0 {
		errorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	return StatsSummary{
		TotalRequests:     snap.TotalRequests,
		AverageLatencyMs:  snap.AvgRequestMs,
		ErrorRate:         errorRate,
		ActiveConnections: snap.ActiveConnections,
		BuildP95Ms:        snap.Builds.P95,
		UptimeSeconds:     snap.UptimeSeconds,
	}
}
