package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Payload limits (in bytes)
const (
	MaxFileSize       = 1 * 1024 * 1024 // single project file
	MaxProjectSize    = 8 * 1024 * 1024 // sum of all file contents
	MaxConsoleMessage = 64 * 1024       // one relayed console message
)

// ErrTooLarge is wrapped by every size and count check
var ErrTooLarge = errors.New("limit exceeded")

// Count and length limits
const (
	MaxFiles         = 500
	MaxPathLength    = 512
	MaxCommandLength = 1024
)

// ValidateFileContent checks one file against the per-file limits
func ValidateFileContent(path, content string) error {
	if len(path) > MaxPathLength {
		return fmt.Errorf("path must not exceed %d characters", MaxPathLength)
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains invalid characters")
	}
	if len(content) > MaxFileSize {
		return fmt.Errorf("%w: %s: size %d bytes exceeds maximum %d bytes", ErrTooLarge, path, len(content), MaxFileSize)
	}
	return nil
}

// ValidateProjectSize checks the aggregate limits of a file set
func ValidateProjectSize(count, totalBytes int) error {
	if count > MaxFiles {
		return fmt.Errorf("%w: project has %d files, maximum is %d", ErrTooLarge, count, MaxFiles)
	}
	if totalBytes > MaxProjectSize {
		return fmt.Errorf("%w: project size %d bytes exceeds maximum %d bytes", ErrTooLarge, totalBytes, MaxProjectSize)
	}
	return nil
}

// ValidateCommand checks a terminal command line
func ValidateCommand(line string) error {
	if !utf8.ValidString(line) {
		return fmt.Errorf("command is not valid UTF-8")
	}
	if len(line) > MaxCommandLength {
		return fmt.Errorf("command must not exceed %d characters", MaxCommandLength)
	}
	if strings.ContainsAny(line, "\x00\n\r") {
		return fmt.Errorf("command must be a single line")
	}
	return nil
}

// ValidateSize checks a raw payload against a limit
func ValidateSize(data []byte, max int) error {
	if len(data) > max {
		return fmt.Errorf("%w: payload size %d bytes exceeds maximum %d bytes", ErrTooLarge, len(data), max)
	}
	return nil
}
