package files

import (
	"errors"
	"path/filepath"
	"strings"
)

// UnresolvedFilePath is a path exactly as a caller (usually the model) gave it.
type UnresolvedFilePath string

// AbsFilePath is a cleaned absolute path. It is the identity key for all
// per-file tracking.
type AbsFilePath string

// RelFilePath is a path relative to the editor's working directory, used for
// display.
type RelFilePath string

// ErrOutsideWorkspace is returned when a path resolves outside the working
// directory and such access is not allowed.
var ErrOutsideWorkspace = errors.New("path is outside the working directory")

// Resolve turns p into an absolute path. Relative paths are taken relative
// to cwd.
func Resolve(cwd string, p UnresolvedFilePath) AbsFilePath {
	path := string(p)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	return AbsFilePath(filepath.Clean(path))
}

// Rel returns p relative to cwd, or p itself if no relative form exists.
func Rel(cwd string, p AbsFilePath) RelFilePath {
	rel, err := filepath.Rel(cwd, string(p))
	if err != nil {
		return RelFilePath(p)
	}
	return RelFilePath(rel)
}

// Within reports whether p is cwd or lies below it.
func Within(cwd string, p AbsFilePath) bool {
	root := filepath.Clean(cwd)
	path := filepath.Clean(string(p))
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// Resolver resolves caller paths against a working directory and enforces
// the workspace boundary.
type Resolver struct {
	AllowOutside bool
}

// Resolve is like the package-level Resolve but fails with
// ErrOutsideWorkspace for paths escaping cwd.
func (r Resolver) Resolve(cwd string, p UnresolvedFilePath) (AbsFilePath, error) {
	if p == "" {
		return "", errors.New("empty file path")
	}
	abs := Resolve(cwd, p)
	if !r.AllowOutside && !Within(cwd, abs) {
		return abs, ErrOutsideWorkspace
	}
	return abs, nil
}
