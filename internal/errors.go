package internal

import (
	"errors"
	"fmt"
	iofs "io/fs"
)

var (
	ErrRootRequired   = errors.New("root folder is required")
	ErrRootNotFound   = errors.New("root folder does not exist")
	ErrRootNotDir     = errors.New("root is not a directory")
	ErrScanInProgress = errors.New("a scan is already in progress")
)

// ConfigError is reported before any traversal starts.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileError describes a single file skipped during the walk.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// ExportError is returned when an export cannot be serialized or persisted.
type ExportError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Permission() {
		return fmt.Sprintf("export %s %s: permission denied: %v", e.Op, e.Path, e.Err)
	}
	if e.Path == "" {
		return fmt.Sprintf("export %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Permission reports whether the failure was caused by missing permissions.
func (e *ExportError) Permission() bool {
	return errors.Is(e.Err, iofs.ErrPermission)
}
