// Package buffertest provides an in-memory editor for tests.
package buffertest

import (
	"context"
	"sync"

	"github.com/sokinpui/itfcore/internal/files"
)

// Editor is a fake host editor. Buffers are keyed by absolute path.
type Editor struct {
	mu      sync.Mutex
	Dir     string
	buffers map[files.AbsFilePath][]string
	// Err, when set, is returned from every call.
	Err error
	// Writes counts SetBufferLines calls.
	Writes int
}

// New returns an editor whose working directory is dir.
func New(dir string) *Editor {
	return &Editor{Dir: dir, buffers: make(map[files.AbsFilePath][]string)}
}

// Open loads lines into a buffer for path, like :edit followed by an
// in-editor change.
func (e *Editor) Open(path files.AbsFilePath, lines ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffers[path] = append([]string(nil), lines...)
}

// Close unloads the buffer for path.
func (e *Editor) Close(path files.AbsFilePath) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.buffers, path)
}

// Lines returns a copy of the buffer for path.
func (e *Editor) Lines(path files.AbsFilePath) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines, ok := e.buffers[path]
	return append([]string(nil), lines...), ok
}

func (e *Editor) Cwd(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	return e.Dir, nil
}

func (e *Editor) BufferLines(ctx context.Context, path files.AbsFilePath) ([]string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, false, e.Err
	}
	lines, ok := e.buffers[path]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), lines...), true, nil
}

func (e *Editor) SetBufferLines(ctx context.Context, path files.AbsFilePath, lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.buffers[path] = append([]string(nil), lines...)
	e.Writes++
	return nil
}
