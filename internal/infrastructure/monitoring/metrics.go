package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build outcome labels
const (
	BuildOK          = "ok"
	BuildCompileFail = "compile_error"
	BuildUnavailable = "unavailable"
	BuildFailed      = "failed"
	BuildCanceled    = "canceled"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// servers and tests can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Project metrics
	ProjectsActive prometheus.Gauge
	ProjectsTotal  prometheus.Counter

	// Build metrics
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	StageDuration *prometheus.HistogramVec

	// Transpiler metrics
	TranspileFiles  *prometheus.CounterVec
	TranspileErrors *prometheus.CounterVec

	// Registry metrics
	RegistryFetches  *prometheus.CounterVec
	RegistryDuration prometheus.Histogram

	// Sandbox metrics
	SandboxMessages *prometheus.CounterVec

	// Terminal metrics
	TerminalCommands *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
	builds    *BuildStats

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveProjects    int64   `json:"active_projects"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AvgRequestMs      float64 `json:"avg_request_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	Builds            Summary `json:"builds"`
}

// NewMetrics creates a new metrics collector on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		builds:    NewBuildStats(DefaultStatsWindow),

		// HTTP metrics
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Project metrics
		ProjectsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_projects_active",
				Help: "Number of in-memory projects",
			},
		),
		ProjectsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_projects_total",
				Help: "Total number of projects created",
			},
		),

		// Build metrics
		BuildsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_builds_total",
				Help: "Total number of preview builds by outcome",
			},
			[]string{"status"},
		),
		BuildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_build_duration_seconds",
				Help:    "End-to-end preview build duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_build_stage_duration_seconds",
				Help:    "Duration of individual build stages in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"stage", "status"},
		),

		// Transpiler metrics
		TranspileFiles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_transpile_files_total",
				Help: "Total number of files transpiled",
			},
			[]string{"backend"},
		),
		TranspileErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_transpile_errors_total",
				Help: "Total number of compilation errors",
			},
			[]string{"backend"},
		),

		// Registry metrics
		RegistryFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_registry_fetches_total",
				Help: "Total number of package fetches by outcome",
			},
			[]string{"status"},
		),
		RegistryDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_registry_fetch_duration_seconds",
				Help:    "Package preload duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		// Sandbox metrics
		SandboxMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_sandbox_messages_total",
				Help: "Messages received from preview contexts",
			},
			[]string{"status"},
		),

		// Terminal metrics
		TerminalCommands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_terminal_commands_total",
				Help: "Terminal commands executed",
			},
			[]string{"verb", "status"},
		),

		// WebSocket metrics
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "playground_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry for custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordBuild records one finished build
func (m *Metrics) RecordBuild(status string, duration time.Duration) {
	m.BuildsTotal.WithLabelValues(status).Inc()
	m.BuildDuration.Observe(duration.Seconds())
	if status == BuildOK {
		m.builds.Add(duration)
	}
}

// RecordStage records one build stage
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordTranspile records a compile pass over n files
func (m *Metrics) RecordTranspile(backend string, files int, failed bool) {
	m.TranspileFiles.WithLabelValues(backend).Add(float64(files))
	if failed {
		m.TranspileErrors.WithLabelValues(backend).Inc()
	}
}

// RecordRegistryFetch records a package preload
func (m *Metrics) RecordRegistryFetch(status string, duration time.Duration) {
	m.RegistryFetches.WithLabelValues(status).Inc()
	m.RegistryDuration.Observe(duration.Seconds())
}

// RecordSandboxMessage records a message from a preview context
func (m *Metrics) RecordSandboxMessage(accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	m.SandboxMessages.WithLabelValues(status).Inc()
}

// RecordTerminalCommand records an executed terminal command
func (m *Metrics) RecordTerminalCommand(verb string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.TerminalCommands.WithLabelValues(verb, status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetProjectsActive sets the number of in-memory projects
func (m *Metrics) SetProjectsActive(count int) {
	m.ProjectsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveProjects = int64(count)
	m.mu.Unlock()
}

// IncProjectsTotal increments the total projects counter
func (m *Metrics) IncProjectsTotal() {
	m.ProjectsTotal.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
