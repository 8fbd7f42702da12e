package playground

import "errors"

var (
	// ErrProjectNotFound is returned for unknown or malformed project IDs
	ErrProjectNotFound = errors.New("project not found")
	// ErrTooManyProjects is returned when the session limit is reached
	ErrTooManyProjects = errors.New("too many projects")
	// ErrTemplateNotFound is returned for unknown template names
	ErrTemplateNotFound = errors.New("template not found")
	// ErrAnimationCanceled is returned when a typing sequence is replaced
	// before it completes
	ErrAnimationCanceled = errors.New("animation canceled")
	// ErrRegistryDisabled marks packages that were never fetched
	ErrRegistryDisabled = errors.New("package registry disabled")
	// ErrSuperseded is returned by a build that finished after a newer one
	// started; its document is not rendered
	ErrSuperseded = errors.New("build superseded")
)
