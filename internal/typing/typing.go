// Package typing produces the "being typed" animation of generated files as
// a cancelable stream of partial snapshots.
//
// Files are typed one after another in order, a fixed number of characters
// per tick. Each frame holds every file typed so far plus the current file
// cut at the cursor; the active file follows the cursor. The last frame of
// a sequence that runs to completion holds the complete file set and has
// Done set. Consumers build only from that frame.
package typing

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Config controls the animation speed
type Config struct {
	CharsPerTick int
	// Tick is the delay between frames; 0 emits frames as fast as they are
	// consumed
	Tick time.Duration
}

// DefaultConfig types five characters every ten milliseconds
func DefaultConfig() Config {
	return Config{CharsPerTick: 5, Tick: 10 * time.Millisecond}
}

// Frame is one snapshot of the animation
type Frame struct {
	Files  []types.ProjectFile `json:"files"`
	Active string              `json:"active"`
	Done   bool                `json:"done"`
}

// Animator streams typing sequences. Starting a new sequence cancels the
// one in flight.
type Animator struct {
	cfg Config

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates an animator
func New(cfg Config) *Animator {
	if cfg.CharsPerTick <= 0 {
		cfg.CharsPerTick = DefaultConfig().CharsPerTick
	}
	if cfg.Tick < 0 {
		cfg.Tick = 0
	}
	return &Animator{cfg: cfg}
}

// Stream starts a fresh sequence over files. The channel is closed after
// the Done frame, or early and without one when ctx is canceled or another
// sequence starts.
func (a *Animator) Stream(ctx context.Context, files []types.ProjectFile) <-chan Frame {
	ctx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.mu.Unlock()

	snapshot := append([]types.ProjectFile(nil), files...)
	out := make(chan Frame)
	go func() {
		defer close(out)
		defer cancel()
		a.run(ctx, snapshot, out)
	}()
	return out
}

// Stop cancels the sequence in flight, if any
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Animator) run(ctx context.Context, files []types.ProjectFile, out chan<- Frame) {
	var tick <-chan time.Time
	if a.cfg.Tick > 0 {
		t := time.NewTicker(a.cfg.Tick)
		defer t.Stop()
		tick = t.C
	}

	c := newCursor(files, a.cfg.CharsPerTick)
	for {
		frame, more := c.next()
		if tick != nil && !frame.Done {
			select {
			case <-tick:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
		if !more {
			return
		}
	}
}

// cursor walks the files rune by rune
type cursor struct {
	files []types.ProjectFile
	runes [][]rune
	step  int
	file  int
	pos   int
}

func newCursor(files []types.ProjectFile, step int) *cursor {
	runes := make([][]rune, len(files))
	for i, f := range files {
		runes[i] = []rune(f.Content)
	}
	return &cursor{files: files, runes: runes, step: step}
}

// next advances one tick and returns the frame and whether more follow
func (c *cursor) next() (Frame, bool) {
	if c.file >= len(c.files) {
		return c.final(), false
	}

	c.pos += c.step
	if c.pos > len(c.runes[c.file]) {
		c.pos = len(c.runes[c.file])
	}

	frame := Frame{
		Files:  make([]types.ProjectFile, 0, c.file+1),
		Active: c.files[c.file].Path,
	}
	frame.Files = append(frame.Files, c.files[:c.file]...)
	frame.Files = append(frame.Files, types.ProjectFile{
		Path:    c.files[c.file].Path,
		Content: string(c.runes[c.file][:c.pos]),
	})

	if c.pos >= len(c.runes[c.file]) {
		c.file++
		c.pos = 0
	}
	return frame, true
}

func (c *cursor) final() Frame {
	active := ""
	if len(c.files) > 0 {
		active = c.files[len(c.files)-1].Path
	}
	return Frame{
		Files:  append([]types.ProjectFile(nil), c.files...),
		Active: active,
		Done:   true,
	}
}
