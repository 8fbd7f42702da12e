package types

import "time"

// Level is the console entry point a record came from.
type Level string

const (
	LevelLog   Level = "log"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Valid reports whether l is one of the four console levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLog, LevelWarn, LevelError, LevelInfo:
		return true
	}
	return false
}

// LogRecord is one line of the terminal pane.
type LogRecord struct {
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewLogRecord stamps a record with the current time.
func NewLogRecord(level Level, message string) LogRecord {
	return LogRecord{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
}
