package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/transpiler"
)

// CompilationError aborts a build: the named file did not transpile
type CompilationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (e *CompilationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile %s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("compile %s: %s", e.Path, e.Message)
}

// Transformer is the part of transpiler.Service the compiler needs
type Transformer interface {
	Transform(ctx context.Context, req transpiler.Request) (transpiler.Result, error)
}

// Compiler transpiles every script file of a snapshot
type Compiler struct {
	t Transformer
}

// NewCompiler creates a compiler over t
func NewCompiler(t Transformer) *Compiler {
	return &Compiler{t: t}
}

// Compile transpiles script files one at a time in snapshot order and stops
// at the first failure; there is no partial result
func (c *Compiler) Compile(ctx context.Context, files []types.ProjectFile) (map[string]types.CompiledModule, error) {
	modules := make(map[string]types.CompiledModule)

	for _, f := range files {
		if types.KindOf(f.Path) != types.KindScript {
			continue
		}
		res, err := c.t.Transform(ctx, transpiler.Request{
			Source:   f.Content,
			Filename: f.Path,
			Dialects: transpiler.DialectsFor(f.Path),
		})
		if err != nil {
			return nil, compileFailure(f.Path, err)
		}
		modules[f.Path] = types.CompiledModule{Path: f.Path, Code: res.Code}
	}
	return modules, nil
}

// compileFailure keeps infrastructure errors as they are and turns
// everything else into a CompilationError
func compileFailure(p string, err error) error {
	if errors.Is(err, transpiler.ErrUnavailable) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("compile %s: %w", p, err)
	}
	var d *transpiler.Diagnostic
	if errors.As(err, &d) {
		return &CompilationError{Path: p, Message: d.Message, Line: d.Line, Column: d.Column}
	}
	return &CompilationError{Path: p, Message: err.Error()}
}
