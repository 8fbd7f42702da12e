package terminal

import (
	"errors"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// ErrCommandNotFound is reported for unknown verbs
var ErrCommandNotFound = errors.New("command not found")

// FileSystem is the part of the file store the terminal works on
type FileSystem interface {
	List() []types.ProjectFile
	Get(p string) (types.ProjectFile, error)
	IsDir(dir string) bool
	Create(p, content string) (types.ProjectFile, error)
	Mkdir(dir string) (types.ProjectFile, error)
	Delete(p string) ([]string, error)
}

// Log receives command output
type Log interface {
	Append(level types.Level, message string) types.LogRecord
	Clear()
}

// Focus tracks the file open in the editor
type Focus interface {
	Active() string
	SetActive(p string)
}

// Result describes one executed line
type Result struct {
	Verb    string            `json:"verb"`
	Records []types.LogRecord `json:"records"`
	Cleared bool              `json:"cleared,omitempty"`
	// Err is the failure behind any error record, for callers that count
	// or classify them; it has already been reported to the log
	Err error `json:"-"`
}

// OK reports whether the command succeeded
func (r *Result) OK() bool { return r.Err == nil }

type command struct {
	usage   string
	summary string
	// minArgs is the number of arguments below which usage is printed
	minArgs int
	run     func(t *Terminal, res *Result, args []string)
}
