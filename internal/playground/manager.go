package playground

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/projectfs"
	"github.com/GriffinCanCode/playground/internal/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
	"github.com/GriffinCanCode/playground/internal/typing"
)

// Config bounds the sessions a Manager keeps
type Config struct {
	MaxProjects int
	// IdleTTL evicts sessions unused for this long; 0 keeps them forever
	IdleTTL       time.Duration
	TemplateDir   string
	MaxLogRecords int
	Typing        typing.Config
	// Sandbox is nil when headless rendering is disabled
	Sandbox *sandbox.Config
	// Relay makes unframed previews beacon console output back to the
	// project's console endpoint
	Relay bool
}

// DefaultConfig returns the manager defaults
func DefaultConfig() Config {
	sb := sandbox.DefaultConfig()
	return Config{
		MaxProjects:   100,
		IdleTTL:       time.Hour,
		MaxLogRecords: 1000,
		Typing:        typing.DefaultConfig(),
		Sandbox:       &sb,
		Relay:         true,
	}
}

// RelayPath is the console relay endpoint of a project
func RelayPath(pid id.ProjectID) string {
	return "/projects/" + pid.String() + "/console"
}

// Manager owns every live session
type Manager struct {
	cfg     Config
	engine  *Engine
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[id.ProjectID]*Session
}

// NewManager creates a manager
func NewManager(cfg Config, engine *Engine, metrics *monitoring.Metrics, logger *zap.Logger) *Manager {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
		sessions: make(map[id.ProjectID]*Session),
	}
}

// Engine returns the shared build engine
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Create opens a new session from explicit files, a named template, or
// the starter project, in that order of preference
func (m *Manager) Create(ctx context.Context, req types.CreateProjectRequest) (*Session, error) {
	files, err := m.seed(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.MaxProjects > 0 && len(m.sessions) >= m.cfg.MaxProjects {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyProjects, m.cfg.MaxProjects)
	}

	pid := id.NewProjectID()
	opts := SessionOptions{
		MaxLogRecords: m.cfg.MaxLogRecords,
		Typing:        m.cfg.Typing,
		Sandbox:       m.cfg.Sandbox,
	}
	if m.cfg.Relay {
		opts.RelayURL = RelayPath(pid)
	}
	s, err := NewSession(pid, files, m.engine, opts, m.metrics, m.logger.Named("session"))
	if err != nil {
		return nil, err
	}
	m.sessions[pid] = s

	m.metrics.IncProjectsTotal()
	m.metrics.SetProjectsActive(len(m.sessions))
	m.logger.Info("Project created",
		zap.String("project_id", pid.String()),
		zap.Int("files", len(s.store.List())),
		zap.String("template", req.Template))
	return s, nil
}

func (m *Manager) seed(ctx context.Context, req types.CreateProjectRequest) ([]types.ProjectFile, error) {
	if len(req.Files) > 0 {
		total := 0
		for _, f := range req.Files {
			if err := projectfs.CheckContent(f.Path, []byte(f.Content)); err != nil {
				return nil, err
			}
			total += len(f.Content)
		}
		if err := utils.ValidateProjectSize(len(req.Files), total); err != nil {
			return nil, err
		}
		return req.Files, nil
	}
	if req.Template != "" {
		return m.template(ctx, req.Template)
	}
	return nil, nil
}

func (m *Manager) template(ctx context.Context, name string) ([]types.ProjectFile, error) {
	if m.cfg.TemplateDir == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	loaded, err := projectfs.LoadDir(ctx, filepath.Join(m.cfg.TemplateDir, name), nil)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, err
	}
	for _, sk := range loaded.Skipped {
		m.logger.Warn("Template file skipped",
			zap.String("template", name),
			zap.String("path", sk.Path),
			zap.String("reason", sk.Reason))
	}
	return loaded.Files, nil
}

// Templates lists the template names available to Create
func (m *Manager) Templates() ([]string, error) {
	if m.cfg.TemplateDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(m.cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Get returns a session by ID
func (m *Manager) Get(raw string) (*Session, error) {
	pid, err := id.ParseProjectID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, raw)
	}
	m.mu.RLock()
	s, ok := m.sessions[pid]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, raw)
	}
	return s, nil
}

// Delete closes and forgets a session
func (m *Manager) Delete(raw string) error {
	s, err := m.Get(raw)
	if err != nil {
		return err
	}
	m.remove(s.ID)
	return nil
}

func (m *Manager) remove(pid id.ProjectID) {
	m.mu.Lock()
	s, ok := m.sessions[pid]
	delete(m.sessions, pid)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.metrics.SetProjectsActive(n)
		m.logger.Info("Project closed", zap.String("project_id", pid.String()))
	}
}

// List returns every session in creation order
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle since before now minus IdleTTL
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.IdleTTL)

	m.mu.RLock()
	var idle []id.ProjectID
	for pid, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, pid)
		}
	}
	m.mu.RUnlock()

	for _, pid := range idle {
		m.remove(pid)
	}
	if len(idle) > 0 {
		m.logger.Info("Evicted idle projects", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	interval := m.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[id.ProjectID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.metrics.SetProjectsActive(0)
}
