// Package server wires the playground HTTP server together.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger, metrics and tracing
//  3. Start the transpiler backend in the background
//  4. Create the package registry client (optional)
//  5. Create the build engine and project manager
//  6. Setup HTTP routes and middleware
//  7. Serve until the context is canceled, then shut down gracefully
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/playground/internal/api/http"
	"github.com/GriffinCanCode/playground/internal/api/middleware"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/registry"
	"github.com/GriffinCanCode/playground/internal/sandbox"
	"github.com/GriffinCanCode/playground/internal/transpiler"
	"github.com/GriffinCanCode/playground/internal/typing"
	"github.com/GriffinCanCode/playground/internal/ws"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests
const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	projects   *playground.Manager
	transpiler *transpiler.Service
	packages   *registry.Client
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing playground server",
		zap.String("port", cfg.Server.Port),
		zap.String("transpiler", cfg.Transpiler.Backend),
		zap.Bool("registry", cfg.Registry.Enabled),
		zap.Bool("sandbox", cfg.Sandbox.Enabled),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("playground", logger.Logger)

	backend, err := newBackend(cfg.Transpiler)
	if err != nil {
		return nil, err
	}
	tr := transpiler.NewService(backend, logger.Named("transpiler"), func(name string, _ time.Duration, err error) {
		metrics.RecordTranspile(name, 1, err != nil)
	})

	var packages *registry.Client
	if cfg.Registry.Enabled {
		packages, err = newRegistry(cfg.Registry, metrics, logger.Named("registry"))
		if err != nil {
			return nil, err
		}
		logger.Info("Package registry enabled", zap.String("url", cfg.Registry.URL))
	}

	assembler := preview.NewAssembler(preview.Options{HostLibraries: cfg.Preview.HostLibraries})
	var engine *playground.Engine
	if packages != nil {
		engine = playground.NewEngine(tr, packages, assembler, metrics, logger.Named("engine"))
	} else {
		engine = playground.NewEngine(tr, nil, assembler, metrics, logger.Named("engine"))
	}

	projects := playground.NewManager(managerConfig(cfg), engine, metrics, logger.Named("projects"))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(middleware.CORS(cors))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limit.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limit))
	}

	var cache apihttp.PackageCache
	if packages != nil {
		cache = packages
	}
	handlers := apihttp.NewHandlers(projects, tr, cache, metrics, tracer, logger.Named("api"))
	handlers.Register(router)
	handlers.RegisterMetrics(router)

	wsHandler := ws.NewHandler(projects, metrics, logger.Named("ws"))
	router.GET("/projects/:id/stream", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:     router,
		projects:   projects,
		transpiler: tr,
		packages:   packages,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

func newBackend(cfg config.TranspilerConfig) (transpiler.Backend, error) {
	switch cfg.Backend {
	case "esbuild":
		return transpiler.NewESBuild(cfg.Target), nil
	case "remote":
		client := httpclient.New(httpclient.Options{
			Name:    "transpiler",
			BaseURL: cfg.URL,
			Timeout: cfg.Timeout,
		})
		return transpiler.NewRemote(client), nil
	}
	return nil, fmt.Errorf("unknown transpiler backend %q", cfg.Backend)
}

func newRegistry(cfg config.RegistryConfig, metrics *monitoring.Metrics, logger *zap.Logger) (*registry.Client, error) {
	client := httpclient.New(httpclient.Options{
		Name:       "registry",
		BaseURL:    cfg.URL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RPS:        cfg.RPS,
	})
	observe := func(_ string, elapsed time.Duration, err error) {
		status := "success"
		switch {
		case errors.Is(err, registry.ErrNotFound):
			status = "not_found"
		case err != nil:
			status = "error"
		}
		metrics.RecordRegistryFetch(status, elapsed)
	}
	packages, err := registry.New(registry.Config{
		BaseURL:     cfg.URL,
		CacheSize:   cfg.CacheSize,
		Concurrency: cfg.Concurrency,
		MaxBytes:    cfg.MaxBytes,
	}, client, logger, observe)
	if err != nil {
		return nil, fmt.Errorf("failed to create package registry: %w", err)
	}
	return packages, nil
}

func managerConfig(cfg *config.Config) playground.Config {
	mc := playground.Config{
		MaxProjects:   cfg.Projects.MaxProjects,
		IdleTTL:       cfg.Projects.IdleTTL,
		TemplateDir:   cfg.Projects.TemplateDir,
		MaxLogRecords: cfg.Projects.MaxLogRecords,
		Typing: typing.Config{
			CharsPerTick: cfg.Projects.TypingChars,
			Tick:         cfg.Projects.TypingTick,
		},
		Relay: cfg.Preview.Relay,
	}
	if cfg.Sandbox.Enabled {
		sb := sandbox.DefaultConfig()
		sb.Timeout = cfg.Sandbox.Timeout
		if cfg.Sandbox.MaxCallStack > 0 {
			sb.MaxCallStackSize = cfg.Sandbox.MaxCallStack
		}
		mc.Sandbox = &sb
	}
	return mc
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the transpiler and serves HTTP until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.transpiler.Start(ctx)
	go s.projects.Run(ctx)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close releases projects and flushes telemetry
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.projects.Close()
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
