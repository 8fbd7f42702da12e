// Package id generates the identifiers used by the playground.
//
// Every identifier is a prefixed ULID (proj_*, build_*, conn_*):
//   - K-sortable: project listings come out in creation order
//   - Prefixed: logs and URLs show what kind of thing an ID names
//   - Typed: a BuildID cannot be passed where a ProjectID is expected
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// ProjectID identifies an in-memory playground project
type ProjectID string

// BuildID identifies one preview build of a project
type BuildID string

// ConnID identifies a streaming connection
type ConnID string

const (
	ProjectPrefix = "proj"
	BuildPrefix   = "build"
	ConnPrefix    = "conn"
)

// ErrMalformed is returned when a prefixed ID cannot be parsed
var ErrMalformed = errors.New("malformed id")

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand, made monotonic so
// IDs generated within the same millisecond still sort in creation order
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewProjectID generates a new project ID
func NewProjectID() ProjectID {
	return ProjectID(Default().GenerateWithPrefix(ProjectPrefix))
}

// NewBuildID generates a new build ID
func NewBuildID() BuildID {
	return BuildID(Default().GenerateWithPrefix(BuildPrefix))
}

// NewConnID generates a new connection ID
func NewConnID() ConnID {
	return ConnID(Default().GenerateWithPrefix(ConnPrefix))
}

func (id ProjectID) String() string { return string(id) }
func (id BuildID) String() string   { return string(id) }
func (id ConnID) String() string    { return string(id) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid bare ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a bare ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// ParsePrefixed splits "prefix_ULID" and checks both halves
func ParsePrefixed(s, prefix string) (ulid.ULID, error) {
	p, raw, ok := strings.Cut(s, "_")
	if !ok || p != prefix {
		return ulid.ULID{}, fmt.Errorf("%w: %q is not a %s id", ErrMalformed, s, prefix)
	}
	u, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return u, nil
}

// ParseProjectID validates a project ID received from a client
func ParseProjectID(s string) (ProjectID, error) {
	if _, err := ParsePrefixed(s, ProjectPrefix); err != nil {
		return "", err
	}
	return ProjectID(s), nil
}

// Timestamp extracts the creation time from a bare or prefixed ULID
func Timestamp(id string) (time.Time, error) {
	if _, raw, ok := strings.Cut(id, "_"); ok {
		id = raw
	}
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
