package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves this instance's registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Snapshot returns current values for the JSON stats endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	if snap.RequestCount > 0 {
		snap.AvgRequestMs = snap.TotalDuration / float64(snap.RequestCount) * 1000
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	snap.Builds = m.builds.Summary()
	return snap
}
