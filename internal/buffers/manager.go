// Package buffers decides, for any file, whether the editor buffer or the
// file on disk is authoritative, and tracks when its content last changed.
package buffers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/internal/snapshot"
	"github.com/sokinpui/itfcore/model"
)

// Editor is the part of the host editor the manager talks to.
type Editor interface {
	// Cwd returns the editor's working directory.
	Cwd(ctx context.Context) (string, error)
	// BufferLines returns the lines of the loaded buffer for path. open is
	// false when no buffer holds the file.
	BufferLines(ctx context.Context, path files.AbsFilePath) (lines []string, open bool, err error)
	// SetBufferLines replaces the whole content of the buffer for path.
	SetBufferLines(ctx context.Context, path files.AbsFilePath, lines []string) error
}

// FileContents is the authoritative content of a file together with the
// earliest message at which that content was already current.
type FileContents struct {
	Content     string
	MessageID   model.MessageID
	RelFilePath files.RelFilePath
	Source      snapshot.Source
}

// Manager resolves file content from buffers or disk. It owns the snapshot
// store; nothing else reads or writes it.
type Manager struct {
	// mu makes each read-compare-update of the store a single step.
	mu       sync.Mutex
	editor   Editor
	store    *snapshot.Store
	resolver files.Resolver
	log      *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithResolver sets the path resolution policy.
func WithResolver(r files.Resolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// New creates a Manager talking to editor.
func New(editor Editor, opts ...Option) *Manager {
	m := &Manager{
		editor: editor,
		store:  snapshot.New(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cwd returns the editor's working directory.
func (m *Manager) Cwd(ctx context.Context) (string, error) {
	cwd, err := m.editor.Cwd(ctx)
	if err != nil {
		return "", &ResolveError{Op: "getcwd", Err: editorErr(err)}
	}
	return cwd, nil
}

// ResolvePath turns a caller-supplied path into a file identity.
func (m *Manager) ResolvePath(ctx context.Context, p files.UnresolvedFilePath) (files.AbsFilePath, error) {
	cwd, err := m.Cwd(ctx)
	if err != nil {
		return "", err
	}
	abs, err := m.resolver.Resolve(cwd, p)
	if err != nil {
		return "", &ResolveError{Path: abs, Op: "resolve", Err: err}
	}
	return abs, nil
}

// GetFileContents returns the current content of path. The returned
// MessageID is callerID when the content changed since the last call for
// this path, and the earlier id otherwise.
func (m *Manager) GetFileContents(ctx context.Context, path files.AbsFilePath, callerID model.MessageID) (FileContents, error) {
	cwd, err := m.Cwd(ctx)
	if err != nil {
		return FileContents{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obs, changed, err := m.observe(ctx, path, callerID)
	if err != nil {
		m.log.Debug("resolve failed", zap.String("path", string(path)), zap.Error(err))
		return FileContents{}, err
	}
	m.log.Debug("resolve",
		zap.String("path", string(path)),
		zap.Int("caller_id", int(callerID)),
		zap.Int("as_of", int(obs.OriginID)),
		zap.Stringer("source", obs.Source),
		zap.Bool("changed", changed),
	)
	return FileContents{
		Content:     obs.Content,
		MessageID:   obs.OriginID,
		RelFilePath: files.Rel(cwd, path),
		Source:      obs.Source,
	}, nil
}

func (m *Manager) observe(ctx context.Context, path files.AbsFilePath, callerID model.MessageID) (snapshot.Observation, bool, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.Observation{}, false, err
	}

	lines, open, err := m.editor.BufferLines(ctx, path)
	if err != nil {
		return snapshot.Observation{}, false, &ResolveError{Path: path, Op: "read buffer", Err: editorErr(err)}
	}
	prev, seen := m.store.Get(path)

	if open {
		content := strings.Join(lines, "\n")
		if seen && (prev.Content == content || prev.Source == snapshot.SourceDisk && sameText(prev.Content, content)) {
			if prev.Source != snapshot.SourceBuffer {
				prev.Content = content
				prev.Source = snapshot.SourceBuffer
				prev.ModTime = time.Time{}
				prev = m.store.Put(path, prev)
			}
			return prev, false, nil
		}
		return m.store.Put(path, snapshot.Observation{
			Content:  content,
			OriginID: callerID,
			Source:   snapshot.SourceBuffer,
		}), true, nil
	}

	info, err := os.Stat(string(path))
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			// A file that comes back later is a new file.
			m.store.Delete(path)
		}
		return snapshot.Observation{}, false, &ResolveError{Path: path, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		return snapshot.Observation{}, false, &ResolveError{Path: path, Op: "stat", Err: ErrNotRegular}
	}
	if seen && prev.Source == snapshot.SourceDisk && prev.ModTime.Equal(info.ModTime()) {
		return prev, false, nil
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		return snapshot.Observation{}, false, &ResolveError{Path: path, Op: "read", Err: classify(err)}
	}
	if !utf8.Valid(data) {
		return snapshot.Observation{}, false, &ResolveError{Path: path, Op: "read", Err: ErrInvalidEncoding}
	}
	content := string(data)

	// The buffer was just closed: only a content change counts.
	if seen && prev.Source == snapshot.SourceBuffer && sameText(prev.Content, content) {
		prev.Content = content
		prev.Source = snapshot.SourceDisk
		prev.ModTime = info.ModTime()
		return m.store.Put(path, prev), false, nil
	}

	// A new mtime advances the origin even if the bytes are identical.
	return m.store.Put(path, snapshot.Observation{
		Content:  content,
		OriginID: callerID,
		Source:   snapshot.SourceDisk,
		ModTime:  info.ModTime(),
	}), true, nil
}

// sameText compares a buffer and a file rendition of the same text. Buffer
// lines carry no final newline, so one trailing "\n" is ignored.
func sameText(a, b string) bool {
	return a == b || strings.TrimSuffix(a, "\n") == strings.TrimSuffix(b, "\n")
}

// WriteFileContents replaces the whole content of path in its authoritative
// representation: the open buffer if there is one, the file otherwise. The
// stored observation is updated so the write is not reported as an external
// change later.
func (m *Manager) WriteFileContents(ctx context.Context, path files.AbsFilePath, content string, messageID model.MessageID) (snapshot.Source, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.SourceDisk, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, open, err := m.editor.BufferLines(ctx, path)
	if err != nil {
		return snapshot.SourceDisk, &ResolveError{Path: path, Op: "read buffer", Err: editorErr(err)}
	}

	if open {
		if err := m.editor.SetBufferLines(ctx, path, strings.Split(content, "\n")); err != nil {
			return snapshot.SourceBuffer, &WriteError{Path: path, Err: editorErr(err)}
		}
		m.store.Put(path, snapshot.Observation{
			Content:  content,
			OriginID: messageID,
			Source:   snapshot.SourceBuffer,
		})
		m.log.Info("write", zap.String("path", string(path)), zap.String("source", "buffer"), zap.Int("bytes", len(content)))
		return snapshot.SourceBuffer, nil
	}

	if err := writeFileAtomic(string(path), content); err != nil {
		return snapshot.SourceDisk, &WriteError{Path: path, Err: classify(err)}
	}
	obs := snapshot.Observation{
		Content:  content,
		OriginID: messageID,
		Source:   snapshot.SourceDisk,
	}
	if info, err := os.Stat(string(path)); err == nil {
		obs.ModTime = info.ModTime()
	}
	m.store.Put(path, obs)
	m.log.Info("write", zap.String("path", string(path)), zap.String("source", "disk"), zap.Int("bytes", len(content)))
	return snapshot.SourceDisk, nil
}

// writeFileAtomic writes content next to path and renames it into place,
// keeping the original permissions.
func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".itf-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
