package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/transpiler"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// TranspilerControl is the part of transpiler.Service the API drives
type TranspilerControl interface {
	Status() transpiler.Status
	Retry(ctx context.Context) error
}

// PackageCache is the part of the registry client the API exposes. It is
// nil when the registry is disabled.
type PackageCache interface {
	Cached() int
	Purge()
}

// Handlers contains all HTTP handlers
type Handlers struct {
	projects   *playground.Manager
	transpiler TranspilerControl
	packages   PackageCache
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	projects *playground.Manager,
	transpiler TranspilerControl,
	packages PackageCache,
	metrics *monitoring.Metrics,
	tracer *tracing.Tracer,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = tracing.New("playground", logger)
	}
	return &Handlers{
		projects:   projects,
		transpiler: transpiler,
		packages:   packages,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/templates", h.ListTemplates)

	r.GET("/transpiler", h.TranspilerStatus)
	r.POST("/transpiler/retry", h.RetryTranspiler)
	r.GET("/registry", h.RegistryStatus)
	r.DELETE("/registry/cache", h.PurgeRegistry)

	p := r.Group("/projects")
	p.GET("", h.ListProjects)
	p.POST("", h.CreateProject)
	p.POST("/import", h.ImportProject)
	p.GET("/:id", h.GetProject)
	p.DELETE("/:id", h.DeleteProject)

	p.GET("/:id/files", h.ListFiles)
	p.GET("/:id/files/*path", h.GetFile)
	p.PUT("/:id/files/*path", h.PutFile)
	p.DELETE("/:id/files/*path", h.DeleteFile)
	p.POST("/:id/changes", h.ApplyChanges)
	p.GET("/:id/active", h.GetActive)
	p.PUT("/:id/active", h.SetActive)

	p.POST("/:id/build", h.Build)
	p.GET("/:id/preview", h.Preview)
	p.GET("/:id/logs", h.GetLogs)
	p.DELETE("/:id/logs", h.ClearLogs)
	p.POST("/:id/console", h.RelayConsole)
	p.POST("/:id/terminal", h.Execute)
	p.GET("/:id/sandbox", h.SandboxStatus)

	p.GET("/:id/export", h.Export)
	p.GET("/:id/manifest", h.Manifest)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Playground Service (Go)",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	st := h.transpiler.Status()
	status := "healthy"
	if st.State != transpiler.StateReady {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"projects":   h.projects.Len(),
		"transpiler": st,
		"registry":   gin.H{"enabled": h.packages != nil},
	})
}

// project resolves the :id parameter or aborts with 404
func (h *Handlers) project(c *gin.Context) (*playground.Session, bool) {
	s, err := h.projects.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return s, true
}
