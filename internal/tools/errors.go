// Package tools holds what every model-facing tool shares: the error
// taxonomy and panic recovery.
package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sokinpui/itfcore/internal/buffers"
	"github.com/sokinpui/itfcore/internal/edit"
	"github.com/sokinpui/itfcore/internal/files"
)

// ErrorKind classifies why a tool failed.
type ErrorKind int

const (
	// KindInternal is an unexpected fault, such as a recovered panic.
	KindInternal ErrorKind = iota
	// KindResolution means the file could not be found, read, or reached.
	KindResolution
	// KindMatch means the model's input did not fit the file. The model
	// should retry with better input.
	KindMatch
	// KindApply means the new content could not be stored.
	KindApply
	// KindCancelled means the user aborted the request.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindResolution:
		return "resolution"
	case KindMatch:
		return "match"
	case KindApply:
		return "apply"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// AbortMessage is the result text of a tool the user aborted.
const AbortMessage = "The user aborted this tool request."

// ErrAborted is the cause carried by a cancelled ToolError.
var ErrAborted = errors.New("aborted by user")

// ToolError is a classified tool failure. Message is what the model sees.
type ToolError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error { return e.Err }

// Cancelled returns the error for a user abort.
func Cancelled() *ToolError {
	return &ToolError{Kind: KindCancelled, Message: AbortMessage, Err: ErrAborted}
}

// IsRetryable reports whether the model can fix the failure by changing its
// input.
func IsRetryable(err error) bool {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind == KindMatch
	}
	return false
}

// Classify wraps err in a ToolError of the matching kind. A ToolError is
// returned unchanged.
func Classify(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	kind := KindInternal
	var (
		resolveErr *buffers.ResolveError
		writeErr   *buffers.WriteError
		detailed   *DetailedError
	)
	switch {
	case errors.Is(err, ErrAborted), errors.Is(err, context.Canceled):
		return Cancelled()
	case errors.Is(err, edit.ErrNoMatch):
		kind = KindMatch
	case errors.As(err, &writeErr):
		kind = KindApply
	case errors.As(err, &resolveErr),
		errors.Is(err, files.ErrOutsideWorkspace),
		errors.Is(err, buffers.ErrEditorUnavailable):
		kind = KindResolution
	case errors.As(err, &detailed):
		kind = KindInternal
	}
	return &ToolError{Kind: kind, Message: err.Error(), Err: err}
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error { return e.Err }

// Recover converts a panic in the calling goroutine into a DetailedError
// stored in *errp. Use it as `defer tools.Recover(&err)`.
func Recover(errp *error) {
	if r := recover(); r != nil {
		*errp = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}
