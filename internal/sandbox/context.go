package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Context is one isolated rendering of a preview document. All JavaScript
// runs on the context's own loop goroutine; other goroutines reach it only
// by queuing tasks.
type Context struct {
	cfg    Config
	logger *zap.Logger
	gen    uint64

	vm  *goja.Runtime
	dom *dom

	tasks chan func()
	out   chan []byte
	done  chan struct{}
	ready chan struct{}
	once  sync.Once

	pending atomic.Int64
	dropped atomic.Int64

	// loop-owned
	timers     map[int64]*timer
	nextTimer  int64
	rejections []*goja.Promise
	reporting  bool

	mu      sync.Mutex
	navs    []Navigation
	skipped []string
}

func newContext(cfg Config, logger *zap.Logger, gen uint64) *Context {
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = DefaultConfig().OutboxSize
	}
	vm := goja.New()
	if cfg.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(cfg.MaxCallStackSize)
	}
	c := &Context{
		cfg:    cfg,
		logger: logger.With(zap.Uint64("generation", gen)),
		gen:    gen,
		vm:     vm,
		tasks:  make(chan func(), 256),
		out:    make(chan []byte, cfg.OutboxSize),
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
		timers: make(map[int64]*timer),
	}
	vm.SetPromiseRejectionTracker(c.trackRejection)
	return c
}

// start parses markup and runs the document on a new loop goroutine
func (c *Context) start(markup string) {
	go c.loop(markup)
}

func (c *Context) loop(markup string) {
	c.load(markup)
	close(c.ready)
	for {
		select {
		case <-c.done:
			return
		case fn := <-c.tasks:
			if c.closed() {
				return
			}
			fn()
		}
	}
}

// load builds the DOM, runs inline scripts in document order and fires the
// lifecycle events
func (c *Context) load(markup string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		c.logger.Warn("Failed to parse preview document", zap.Error(err))
		return
	}
	c.dom = newDOM(c, doc)
	c.installGlobals()
	if _, err := c.vm.RunScript("bootstrap.js", bootstrap); err != nil {
		c.logger.Error("Sandbox bootstrap failed", zap.Error(err))
		return
	}

	for i, script := range doc.Find("script").Nodes {
		if c.closed() {
			return
		}
		if !runnableType(attrOf(script, "type")) {
			continue
		}
		if src, ok := attrValue(script, "src"); ok {
			c.mu.Lock()
			c.skipped = append(c.skipped, src)
			c.mu.Unlock()
			c.logger.Debug("Skipping external script", zap.String("src", src))
			continue
		}
		name := fmt.Sprintf("inline-script-%d.js", i)
		code := rawText(script)
		c.run(name, func() error {
			_, err := c.vm.RunScript(name, code)
			return err
		})
	}

	if c.closed() {
		return
	}
	c.dom.readyState = "interactive"
	c.run("DOMContentLoaded", func() error {
		_, err := c.dom.dispatch(c.dom.root, c.dom.newEvent("Event", "DOMContentLoaded", true, false))
		return err
	})
	c.dom.readyState = "complete"
	c.run("load", func() error {
		_, err := c.dom.dispatch(windowKey{}, c.dom.newEvent("Event", "load", false, false))
		return err
	})
}

func runnableType(t string) bool {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "", "module", "text/javascript", "application/javascript",
		"text/ecmascript", "application/ecmascript", "text/jsx":
		return true
	}
	return false
}

// guard runs fn with the optional task timeout and flushes unhandled
// rejections afterwards. It returns fn's error untouched.
func (c *Context) guard(what string, fn func() error) error {
	if c.cfg.Timeout > 0 {
		t := time.AfterFunc(c.cfg.Timeout, func() {
			c.vm.Interrupt(fmt.Sprintf("%s exceeded %s", what, c.cfg.Timeout))
		})
		defer t.Stop()
	}
	err := fn()
	if !c.closed() {
		c.vm.ClearInterrupt()
		c.flushRejections()
	}
	return err
}

// run is guard for work started by the document itself: exceptions become
// window error events, interrupts are logged
func (c *Context) run(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Sandbox task panicked", zap.String("task", what), zap.Any("panic", r))
		}
	}()
	err := c.guard(what, fn)
	if err == nil {
		return
	}

	var interrupted *goja.InterruptedError
	var ex *goja.Exception
	switch {
	case errors.As(err, &interrupted):
		c.logger.Debug("Sandbox task interrupted", zap.String("task", what), zap.Error(err))
	case errors.As(err, &ex):
		c.reportException(ex)
	default:
		c.logger.Warn("Sandbox task failed", zap.String("task", what), zap.Error(err))
	}
}

// reportException dispatches an uncaught exception as a window error event
func (c *Context) reportException(ex *goja.Exception) {
	if c.reporting || c.dom == nil {
		c.logger.Debug("Uncaught exception while reporting", zap.String("error", ex.Error()))
		return
	}
	c.reporting = true
	defer func() { c.reporting = false }()

	evt := c.dom.newEvent("ErrorEvent", "error", false, true)
	value := ex.Value()
	_ = evt.Set("error", value)
	_ = evt.Set("message", "Uncaught "+exceptionMessage(value))
	if _, err := c.dom.dispatch(windowKey{}, evt); err != nil {
		c.logger.Debug("Error event dispatch aborted", zap.Error(err))
	}
}

func exceptionMessage(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		name := obj.Get("name")
		msg := obj.Get("message")
		if msg != nil && !goja.IsUndefined(msg) {
			if name != nil && !goja.IsUndefined(name) {
				return name.String() + ": " + msg.String()
			}
			return msg.String()
		}
	}
	return v.String()
}

func (c *Context) trackRejection(p *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		c.rejections = append(c.rejections, p)
	case goja.PromiseRejectionHandle:
		for i, q := range c.rejections {
			if q == p {
				c.rejections = append(c.rejections[:i], c.rejections[i+1:]...)
				break
			}
		}
	}
}

func (c *Context) flushRejections() {
	if len(c.rejections) == 0 || c.dom == nil {
		return
	}
	pending := c.rejections
	c.rejections = nil
	for _, p := range pending {
		evt := c.dom.newEvent("Event", "unhandledrejection", false, true)
		_ = evt.Set("reason", p.Result())
		_ = evt.Set("promise", p)
		if _, err := c.dom.dispatch(windowKey{}, evt); err != nil {
			return
		}
	}
}

// ============================================================================
// Host-facing API
// ============================================================================

// Generation is the host generation this context was created for
func (c *Context) Generation() uint64 { return c.gen }

// Ready is closed once the document has loaded
func (c *Context) Ready() <-chan struct{} { return c.ready }

// Done is closed when the context is detached
func (c *Context) Done() <-chan struct{} { return c.done }

func (c *Context) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close detaches the context and interrupts whatever it is running
func (c *Context) Close() {
	c.once.Do(func() {
		close(c.done)
		c.vm.Interrupt(ErrClosed.Error())
	})
}

// Navigations returns the navigation attempts recorded so far
func (c *Context) Navigations() []Navigation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Navigation(nil), c.navs...)
}

// SkippedScripts returns the external script URLs the context did not load
func (c *Context) SkippedScripts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.skipped...)
}

// Dropped returns how many outgoing messages were dropped on a full outbox
func (c *Context) Dropped() int64 { return c.dropped.Load() }

func (c *Context) navigate(kind NavigationKind, url string) {
	c.mu.Lock()
	c.navs = append(c.navs, Navigation{Kind: kind, URL: url, At: time.Now()})
	c.mu.Unlock()
	c.logger.Debug("Navigation attempt blocked", zap.String("kind", string(kind)), zap.String("url", url))
}

// post hands a cloned message to the host
func (c *Context) post(data []byte) {
	c.pending.Add(1)
	select {
	case c.out <- data:
	default:
		c.pending.Add(-1)
		c.dropped.Add(1)
	}
}

// enqueue queues fn on the loop; it reports false once the context is closed
func (c *Context) enqueue(fn func()) bool {
	select {
	case c.tasks <- fn:
		return true
	case <-c.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it. Errors, including
// JavaScript exceptions, are returned to the caller instead of being
// reported inside the document.
func (c *Context) Do(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	if c.closed() {
		return ErrClosed
	}
	select {
	case <-c.ready:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	res := make(chan error, 1)
	task := func() {
		res <- c.guard("task", func() error { return fn(c.vm) })
	}
	select {
	case c.tasks <- task:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-res:
		return err
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Eval evaluates code in the document's global scope and exports the result
func (c *Context) Eval(ctx context.Context, code string) (interface{}, error) {
	var out interface{}
	err := c.Do(ctx, func(vm *goja.Runtime) error {
		v, err := vm.RunString(code)
		if err != nil {
			return err
		}
		out = v.Export()
		return nil
	})
	return out, err
}

// Click dispatches a user click on the first element matching selector,
// including the click's default action
func (c *Context) Click(ctx context.Context, selector string) error {
	return c.Do(ctx, func(*goja.Runtime) error {
		if c.dom == nil {
			return fmt.Errorf("%w: no document loaded", ErrNoElement)
		}
		nodes := c.dom.doc.Find(selector).Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("%w: %q", ErrNoElement, selector)
		}
		return c.dom.activate(nodes[0])
	})
}

// WaitIdle waits until the document has loaded and every message it posted
// has been handed to the host
func (c *Context) WaitIdle(ctx context.Context) error {
	if err := c.Do(ctx, func(*goja.Runtime) error { return nil }); err != nil {
		return err
	}
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for c.pending.Load() > 0 {
		select {
		case <-ticker.C:
		case <-c.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
