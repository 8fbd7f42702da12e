package sandbox

import (
	"errors"
	"time"
)

var (
	// ErrClosed is returned for work submitted to a closed context
	ErrClosed = errors.New("sandbox context closed")
	// ErrNoElement is returned when a selector matches nothing
	ErrNoElement = errors.New("no matching element")
)

// Config defines sandbox configuration
type Config struct {
	// Timeout bounds each task run on the loop; 0 means no limit
	Timeout time.Duration
	// MaxCallStackSize bounds JS recursion depth
	MaxCallStackSize int
	// OutboxSize is the number of undelivered messages a context may hold
	// before further messages are dropped
	OutboxSize int
}

// DefaultConfig returns the default sandbox configuration
func DefaultConfig() Config {
	return Config{
		Timeout:          0,
		MaxCallStackSize: 1024,
		OutboxSize:       1024,
	}
}

// NavigationKind says how a context tried to leave the document
type NavigationKind string

const (
	NavLink       NavigationKind = "link"
	NavForm       NavigationKind = "form"
	NavWindowOpen NavigationKind = "window.open"
	NavLocation   NavigationKind = "location"
)

// Navigation is a recorded, never-performed navigation attempt
type Navigation struct {
	Kind NavigationKind `json:"kind"`
	URL  string         `json:"url"`
	At   time.Time      `json:"at"`
}
