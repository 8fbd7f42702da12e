package vfs

import (
	"errors"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
)

var (
	// ErrLastFile rejects an operation that would leave the store empty
	ErrLastFile = errors.New("cannot remove the last file in the project")
	// ErrPathExists rejects a create that collides with an existing path
	ErrPathExists = errors.New("file exists")
	// ErrNotFound is returned when neither a file nor a directory matches
	ErrNotFound = errors.New("no such file or directory")
	// ErrInvalidPath is returned for empty or root-escaping paths
	ErrInvalidPath = paths.ErrInvalid
)
