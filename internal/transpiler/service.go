package transpiler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is a point-in-time view of the service
type Status struct {
	State   State     `json:"state"`
	Backend string    `json:"backend"`
	Error   string    `json:"error,omitempty"`
	Since   time.Time `json:"since"`
}

// Observer receives one call per Transform
type Observer func(backend string, elapsed time.Duration, err error)

// Service tracks the lifecycle of one backend
type Service struct {
	backend  Backend
	logger   *zap.Logger
	observe  Observer
	initWait time.Duration

	mu     sync.RWMutex
	status Status
	cancel context.CancelFunc
	gen    uint64
}

// NewService creates a service in the loading state. Call Start or Init.
func NewService(backend Backend, logger *zap.Logger, observe Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:  backend,
		logger:   logger,
		observe:  observe,
		initWait: 30 * time.Second,
		status:   Status{State: StateLoading, Backend: backend.Name(), Since: time.Now()},
	}
}

// Status returns the current status
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Ready reports whether Transform will be attempted
func (s *Service) Ready() bool {
	return s.Status().State == StateReady
}

// Init initializes the backend synchronously
func (s *Service) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.initWait)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	s.setState(gen, StateLoading, nil)

	err := s.backend.Init(ctx)
	if err != nil {
		if !s.setState(gen, StateFailed, err) {
			return err
		}
		s.logger.Warn("Transpiler failed to initialize",
			zap.String("backend", s.backend.Name()), zap.Error(err))
		return err
	}
	if !s.setState(gen, StateReady, nil) {
		return errors.New("superseded by a newer initialization")
	}
	s.logger.Info("Transpiler ready", zap.String("backend", s.backend.Name()))
	return nil
}

// Start initializes the backend in the background
func (s *Service) Start(ctx context.Context) {
	go func() { _ = s.Init(ctx) }()
}

// Retry fully reinitializes the backend, whatever its current state
func (s *Service) Retry(ctx context.Context) error {
	return s.Init(ctx)
}

// Transform transpiles one file if the service is ready
func (s *Service) Transform(ctx context.Context, req Request) (Result, error) {
	st := s.Status()
	if st.State != StateReady {
		return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, st.State)
	}

	start := time.Now()
	res, err := s.backend.Transform(ctx, req)
	if s.observe != nil {
		s.observe(s.backend.Name(), time.Since(start), err)
	}
	return res, err
}

// setState applies a transition unless a newer Init has started
func (s *Service) setState(gen uint64, state State, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.status.State = state
	s.status.Since = time.Now()
	s.status.Error = ""
	if err != nil {
		s.status.Error = err.Error()
	}
	return true
}
