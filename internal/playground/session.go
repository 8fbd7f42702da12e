package playground

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/logbook"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
	"github.com/GriffinCanCode/playground/internal/terminal"
	"github.com/GriffinCanCode/playground/internal/typing"
	"github.com/GriffinCanCode/playground/internal/vfs"
)

// Info summarizes a session for listings
type Info struct {
	ID         id.ProjectID `json:"id"`
	Files      int          `json:"files"`
	Active     string       `json:"active"`
	Build      string       `json:"build,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
}

// Session is one in-memory project
type Session struct {
	ID        id.ProjectID
	CreatedAt time.Time

	store    *vfs.Store
	log      *logbook.Book
	term     *terminal.Terminal
	host     *sandbox.Host
	anim     *typing.Animator
	engine   *Engine
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	relayURL string

	buildSeq atomic.Uint64

	mu       sync.RWMutex
	active   string
	doc      *types.PreviewDocument
	buildErr error
	touched  time.Time
}

// SessionOptions configures a session
type SessionOptions struct {
	MaxLogRecords int
	Typing        typing.Config
	// Sandbox is nil when headless rendering is disabled
	Sandbox *sandbox.Config
	// RelayURL is where unframed previews beacon console output
	RelayURL string
}

// NewSession creates a session seeded with files; empty seeds open the
// starter project
func NewSession(pid id.ProjectID, files []types.ProjectFile, engine *Engine, opts SessionOptions, metrics *monitoring.Metrics, logger *zap.Logger) (*Session, error) {
	store, err := vfs.New(files)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("project_id", pid.String()))

	now := time.Now()
	s := &Session{
		ID:        pid,
		CreatedAt: now,
		store:     store,
		log:       logbook.New(opts.MaxLogRecords),
		anim:      typing.New(opts.Typing),
		engine:    engine,
		metrics:   metrics,
		logger:    logger,
		relayURL:  opts.RelayURL,
		active:    initialActive(store.List()),
		touched:   now,
	}
	s.term = terminal.New(store, s.log, s, logger.Named("terminal"))
	if opts.Sandbox != nil {
		s.host = sandbox.NewHost(*opts.Sandbox, logger.Named("sandbox"), s.console, metrics.RecordSandboxMessage)
	}
	return s, nil
}

// initialActive opens the first script, else the first file
func initialActive(files []types.ProjectFile) string {
	for _, f := range files {
		if types.KindOf(f.Path) == types.KindScript {
			return f.Path
		}
	}
	if len(files) > 0 {
		return files[0].Path
	}
	return ""
}

func (s *Session) console(rec types.LogRecord) {
	s.log.Add(rec)
	logging.Console(s.logger, rec)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touched
}

// Info summarizes the session
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		ID:         s.ID,
		Files:      s.store.Len(),
		Active:     s.active,
		CreatedAt:  s.CreatedAt,
		LastActive: s.touched,
	}
	if s.doc != nil {
		info.Build = s.doc.BuildID
	}
	return info
}

// ============================================================================
// Files
// ============================================================================

// Files returns the current snapshot
func (s *Session) Files() []types.ProjectFile {
	s.touch()
	return s.store.List()
}

// Tree returns the file tree of the current snapshot
func (s *Session) Tree() *vfs.Node {
	return vfs.BuildTree(s.Files())
}

// File returns one file
func (s *Session) File(p string) (types.ProjectFile, error) {
	s.touch()
	return s.store.Get(p)
}

// Write creates or overwrites one file from the editor
func (s *Session) Write(p, content string) (types.ProjectFile, error) {
	s.touch()
	if err := utils.ValidateFileContent(p, content); err != nil {
		if errors.Is(err, utils.ErrTooLarge) {
			return types.ProjectFile{}, err
		}
		return types.ProjectFile{}, fmt.Errorf("%w: %v", vfs.ErrInvalidPath, err)
	}
	return s.store.Upsert(p, content)
}

// Delete removes a file or directory and moves focus off removed files
func (s *Session) Delete(p string) ([]string, error) {
	s.touch()
	removed, err := s.store.Delete(p)
	if err != nil {
		return nil, err
	}
	s.refocus()
	return removed, nil
}

// Apply applies a batch edit atomically
func (s *Session) Apply(cs types.ChangeSet) ([]vfs.FileDiff, error) {
	s.touch()
	diffs, err := s.store.Apply(cs)
	if err != nil {
		return nil, err
	}
	s.refocus()
	return diffs, nil
}

// Replace swaps the whole file set
func (s *Session) Replace(files []types.ProjectFile) error {
	s.touch()
	if err := s.store.Replace(files); err != nil {
		return err
	}
	s.refocus()
	return nil
}

// refocus moves focus to the first file when the active file is gone
func (s *Session) refocus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != "" && s.store.Exists(s.active) {
		return
	}
	s.active = initialActive(s.store.List())
}

// Active returns the file open in the editor
func (s *Session) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive opens p in the editor
func (s *Session) SetActive(p string) {
	s.mu.Lock()
	s.active = p
	s.mu.Unlock()
}

// ============================================================================
// Log and terminal
// ============================================================================

// Log returns the session log
func (s *Session) Log() *logbook.Book {
	return s.log
}

// Execute runs one terminal line
func (s *Session) Execute(line string) *terminal.Result {
	s.touch()
	res := s.term.Execute(line)
	if res != nil {
		s.metrics.RecordTerminalCommand(metricVerb(res), res.OK())
	}
	return res
}

// metricVerb keeps unknown verbs out of the label set
func metricVerb(res *terminal.Result) string {
	switch {
	case res.Verb == "":
		return "invalid"
	case errors.Is(res.Err, terminal.ErrCommandNotFound):
		return "unknown"
	}
	return res.Verb
}

// Receive accepts a console message relayed by a browser frame
func (s *Session) Receive(data []byte) bool {
	s.touch()
	if s.host != nil {
		return s.host.Receive(data)
	}
	rec, ok := sandbox.DecodeConsole(data)
	s.metrics.RecordSandboxMessage(ok)
	if ok {
		s.console(rec)
	}
	return ok
}

// ============================================================================
// Build and preview
// ============================================================================

// Build detaches the previous sandbox context, clears the log and builds
// the current snapshot. On success the document is rendered headless when
// a sandbox is configured. A build that
// finishes after a newer one started returns ErrSuperseded.
func (s *Session) Build(ctx context.Context) (*types.PreviewDocument, error) {
	s.touch()
	seq := s.buildSeq.Add(1)
	if s.host != nil {
		s.host.Detach()
	}
	s.log.Clear()

	files := s.store.List()
	doc, err := s.engine.Build(ctx, files, s.log, s.relayURL)

	s.mu.Lock()
	if seq != s.buildSeq.Load() {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	var cerr *preview.CompilationError
	switch {
	case err == nil:
		s.doc, s.buildErr = doc, nil
	case errors.As(err, &cerr):
		s.doc, s.buildErr = nil, err
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("Build failed", zap.Error(err))
		return nil, err
	}
	if s.host != nil {
		s.host.Render(doc)
	}
	if ce := s.logger.Check(zap.DebugLevel, "Build rendered"); ce != nil {
		ce.Write(
			zap.String("build", doc.BuildID),
			zap.String("snapshot", utils.Short(utils.DefaultHasher().HashFiles(files))),
			zap.String("document", utils.Short(doc.Hash)))
	}
	return doc, nil
}

// Document returns the last built document, or the compilation error that
// replaced it. Both are nil before the first build.
func (s *Session) Document() (*types.PreviewDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.buildErr
}

// Sandboxed reports whether builds are rendered headless
func (s *Session) Sandboxed() bool { return s.host != nil }

// Context returns the live sandbox context, or nil
func (s *Session) Context() *sandbox.Context {
	if s.host == nil {
		return nil
	}
	return s.host.Current()
}

// Animate types files into the editor frame by frame, then replaces the
// project with them and builds. onFrame runs on the calling goroutine.
func (s *Session) Animate(ctx context.Context, files []types.ProjectFile, onFrame func(typing.Frame)) (*types.PreviewDocument, error) {
	s.touch()
	var last typing.Frame
	for frame := range s.anim.Stream(ctx, files) {
		s.SetActive(frame.Active)
		if onFrame != nil {
			onFrame(frame)
		}
		last = frame
	}
	if !last.Done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrAnimationCanceled
	}
	if err := s.Replace(last.Files); err != nil {
		return nil, err
	}
	s.SetActive(last.Active)
	return s.Build(ctx)
}

// StopAnimation cancels the typing sequence in flight
func (s *Session) StopAnimation() {
	s.anim.Stop()
}

// Close detaches the sandbox and stops any animation
func (s *Session) Close() {
	s.anim.Stop()
	if s.host != nil {
		s.host.Detach()
	}
}
