package transpiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
)

// ErrUnavailable is returned while the service is loading or failed
var ErrUnavailable = errors.New("transpiler unavailable")

// Dialect is a syntax extension the transpiler must accept
type Dialect string

const (
	DialectJSX        Dialect = "jsx"
	DialectTypeScript Dialect = "typescript"
)

// DialectsFor returns the dialects for a script path: jsx for .js/.jsx,
// typescript for .ts and typescript plus jsx for .tsx. Plain .ts keeps
// angle-bracket type assertions parseable.
func DialectsFor(p string) []Dialect {
	switch paths.Ext(p) {
	case ".ts":
		return []Dialect{DialectTypeScript}
	case ".tsx":
		return []Dialect{DialectTypeScript, DialectJSX}
	default:
		return []Dialect{DialectJSX}
	}
}

// Request is one file to transpile
type Request struct {
	Source   string    `json:"source"`
	Filename string    `json:"filename"`
	Dialects []Dialect `json:"dialects"`
}

func (r Request) has(d Dialect) bool {
	for _, x := range r.Dialects {
		if x == d {
			return true
		}
	}
	return false
}

// Result is the CommonJS output for one file
type Result struct {
	Code string `json:"code"`
}

// Diagnostic is a syntax error reported by a backend
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	LineText string `json:"lineText,omitempty"`
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.File)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d:%d", d.Line, d.Column)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// State is the lifecycle state of a Service
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)
