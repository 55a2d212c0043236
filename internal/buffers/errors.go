package buffers

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/sokinpui/itfcore/internal/files"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidEncoding   = errors.New("file is not valid UTF-8 text")
	ErrEditorUnavailable = errors.New("editor is unavailable")
	ErrNotRegular        = errors.New("not a regular file")
)

// ResolveError is returned when the content of a file cannot be obtained.
type ResolveError struct {
	Path files.AbsFilePath
	Op   string
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// WriteError is returned when new content could not be stored.
type WriteError struct {
	Path files.AbsFilePath
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// classify tags filesystem errors with one of the package sentinels while
// keeping the original error in the chain.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	default:
		return err
	}
}

func editorErr(err error) error {
	return fmt.Errorf("%w: %w", ErrEditorUnavailable, err)
}
