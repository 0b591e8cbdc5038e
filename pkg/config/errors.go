package config

import (
	"fmt"

	"github.com/fulmenhq/navkit/pkg/safeio"
)

// PreconditionError means a job could not start: a required directory or file
// is missing, or a dependency is unreachable. Nothing has been mutated when it
// is returned.
type PreconditionError struct {
	What string
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.What, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// RequireDir returns a PreconditionError unless path is an existing directory.
func RequireDir(what, path string) error {
	if !safeio.IsDir(path) {
		return &PreconditionError{What: what, Path: path}
	}
	return nil
}
