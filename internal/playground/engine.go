package playground

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/registry"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/transpiler"
)

// Transpiler is the part of transpiler.Service a build needs
type Transpiler interface {
	preview.Transformer
	Status() transpiler.Status
}

// Packages preloads bare imports
type Packages interface {
	Preload(ctx context.Context, names []string) []registry.Package
}

// Log receives build output
type Log interface {
	Append(level types.Level, message string) types.LogRecord
}

// Engine runs the build pipeline. It holds no per-project state and is
// shared by every session.
type Engine struct {
	transpiler Transpiler
	compiler   *preview.Compiler
	packages   Packages
	assembler  *preview.Assembler
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewEngine creates an engine. A nil packages disables preloading: every
// bare import is left unresolved.
func NewEngine(t Transpiler, packages Packages, assembler *preview.Assembler, metrics *monitoring.Metrics, logger *zap.Logger) *Engine {
	if assembler == nil {
		assembler = preview.NewAssembler(preview.Options{})
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		transpiler: t,
		compiler:   preview.NewCompiler(t),
		packages:   packages,
		assembler:  assembler,
		metrics:    metrics,
		logger:     logger,
	}
}

// TranspilerStatus reports the transpiler service state
func (e *Engine) TranspilerStatus() transpiler.Status {
	return e.transpiler.Status()
}

// Build turns one snapshot into a preview document. Compilation errors and
// transpiler unavailability are written to log and returned; package
// failures are written to log as warnings and the build continues.
func (e *Engine) Build(ctx context.Context, files []types.ProjectFile, log Log, relayURL string) (*types.PreviewDocument, error) {
	start := time.Now()
	doc, err := e.build(ctx, files, log, relayURL)
	e.metrics.RecordBuild(buildStatus(err), time.Since(start))
	return doc, err
}

func (e *Engine) build(ctx context.Context, files []types.ProjectFile, log Log, relayURL string) (*types.PreviewDocument, error) {
	if st := e.transpiler.Status(); st.State != transpiler.StateReady {
		msg := fmt.Sprintf("Transpiler not ready (%s)", st.State)
		if st.Error != "" {
			msg += ": " + st.Error
		}
		log.Append(types.LevelError, msg)
		return nil, fmt.Errorf("%w: %s", transpiler.ErrUnavailable, st.State)
	}

	timer := monitoring.NewTimer(e.metrics, "scan")
	names := preview.Scan(files)
	timer.Stop("ok")

	timer = monitoring.NewTimer(e.metrics, "compile")
	modules, err := e.compiler.Compile(ctx, files)
	if err != nil {
		timer.Stop("error")
		var cerr *preview.CompilationError
		switch {
		case errors.As(err, &cerr):
			log.Append(types.LevelError, fmt.Sprintf("Compilation error in %s:\n%s", cerr.Path, cerr.Message))
		case errors.Is(err, transpiler.ErrUnavailable):
			log.Append(types.LevelError, "Transpiler not ready")
		default:
			log.Append(types.LevelError, err.Error())
		}
		return nil, err
	}
	timer.Stop("ok")

	externals := e.preload(ctx, names, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer = monitoring.NewTimer(e.metrics, "assemble")
	doc, err := e.assembler.Assemble(preview.Input{
		Files:     files,
		Modules:   modules,
		Externals: externals,
		RelayURL:  relayURL,
	})
	if err != nil {
		timer.Stop("error")
		log.Append(types.LevelError, "Failed to assemble preview: "+err.Error())
		return nil, err
	}
	timer.Stop("ok")

	e.logger.Debug("Preview assembled",
		zap.String("build", doc.BuildID),
		zap.Int("modules", len(modules)),
		zap.Strings("packages", doc.Packages))
	return doc, nil
}

func (e *Engine) preload(ctx context.Context, names []string, log Log) []registry.Package {
	if len(names) == 0 {
		return nil
	}

	var pkgs []registry.Package
	if e.packages == nil {
		pkgs = make([]registry.Package, len(names))
		for i, name := range names {
			pkgs[i] = registry.Package{Name: name, Err: ErrRegistryDisabled}
		}
	} else {
		timer := monitoring.NewTimer(e.metrics, "preload")
		pkgs = e.packages.Preload(ctx, names)
		timer.Stop("ok")
	}

	for _, p := range pkgs {
		if !p.OK() {
			log.Append(types.LevelWarn, fmt.Sprintf("Failed to load package %s: %v", p.Name, p.Err))
		}
	}
	return pkgs
}

func buildStatus(err error) string {
	var cerr *preview.CompilationError
	switch {
	case err == nil:
		return monitoring.BuildOK
	case errors.As(err, &cerr):
		return monitoring.BuildCompileFail
	case errors.Is(err, transpiler.ErrUnavailable):
		return monitoring.BuildUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return monitoring.BuildCanceled
	}
	return monitoring.BuildFailed
}
