package sandbox

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Sink receives accepted console records
type Sink func(types.LogRecord)

// Observer is told the fate of every message a document posts
type Observer func(accepted bool)

// Host owns the current sandbox context of one project. Each render
// replaces the context wholesale; messages from replaced contexts are
// dropped by generation.
type Host struct {
	cfg     Config
	logger  *zap.Logger
	sink    Sink
	observe Observer

	mu      sync.Mutex
	gen     uint64
	current *Context
}

// NewHost creates a host delivering console records to sink
func NewHost(cfg Config, logger *zap.Logger, sink Sink, observe Observer) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		cfg:     cfg,
		logger:  logger,
		sink:    sink,
		observe: observe,
	}
}

// Render detaches the current context and renders doc in a new one. The
// returned context loads asynchronously; see Context.Ready.
func (h *Host) Render(doc *types.PreviewDocument) *Context {
	h.mu.Lock()
	old := h.current
	h.gen++
	c := newContext(h.cfg, h.logger, h.gen)
	h.current = c
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
	h.logger.Debug("Rendering preview",
		zap.String("build", doc.BuildID),
		zap.Uint64("generation", c.gen))

	go h.pump(c)
	c.start(doc.HTML)
	return c
}

// Current returns the live context, or nil before the first render
func (h *Host) Current() *Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Generation returns the generation of the live context
func (h *Host) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// Detach closes the live context without replacing it
func (h *Host) Detach() {
	h.mu.Lock()
	old := h.current
	h.current = nil
	h.gen++
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Receive decodes one console message, from a sandbox context or from a
// browser frame relaying through the API, and hands it to the sink
func (h *Host) Receive(data []byte) bool {
	rec, ok := DecodeConsole(data)
	if h.observe != nil {
		h.observe(ok)
	}
	if !ok {
		return false
	}
	if h.sink != nil {
		h.sink(rec)
	}
	return true
}

func (h *Host) pump(c *Context) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			// delivery holds mu so nothing from a detached context lands
			// after Detach or Render returns
			h.mu.Lock()
			if c.gen != h.gen {
				if h.observe != nil {
					h.observe(false)
				}
			} else {
				h.Receive(data)
			}
			h.mu.Unlock()
			c.pending.Add(-1)
		}
	}
}
