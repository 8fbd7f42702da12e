package transpiler

import "context"

// Backend performs transpilation
type Backend interface {
	// Name identifies the backend in logs and metrics
	Name() string
	// Init prepares the backend; the service is ready once it returns nil
	Init(ctx context.Context) error
	// Transform converts one file. Syntax errors are *Diagnostic.
	Transform(ctx context.Context, req Request) (Result, error)
}
