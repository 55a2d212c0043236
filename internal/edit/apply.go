package edit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/buffers"
	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/internal/snapshot"
	"github.com/sokinpui/itfcore/model"
)

// FileStore reads and writes the authoritative content of files.
// *buffers.Manager implements it.
type FileStore interface {
	ResolvePath(ctx context.Context, p files.UnresolvedFilePath) (files.AbsFilePath, error)
	GetFileContents(ctx context.Context, path files.AbsFilePath, callerID model.MessageID) (buffers.FileContents, error)
	WriteFileContents(ctx context.Context, path files.AbsFilePath, content string, messageID model.MessageID) (snapshot.Source, error)
}

// Request is one find/replace edit.
type Request struct {
	FilePath files.UnresolvedFilePath
	// Find is the exact text to replace. Empty means the whole file.
	Find    string
	Replace string
}

// Outcome describes an applied edit.
type Outcome struct {
	Path     files.AbsFilePath
	RelPath  files.RelFilePath
	Before   string
	After    string
	Location Location
	Source   snapshot.Source
	Preview  string
}

// Applier applies requests against a FileStore.
type Applier struct {
	store FileStore
	opts  PreviewOptions
	log   *zap.Logger
}

// NewApplier returns an Applier writing through store. A nil logger
// discards output.
func NewApplier(store FileStore, opts PreviewOptions, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{store: store, opts: opts, log: log}
}

// PreviewOptions returns the bounds used for previews.
func (a *Applier) PreviewOptions() PreviewOptions {
	return a.opts
}

// Apply resolves the request's file, replaces the first occurrence of Find
// (or everything, for an empty Find) and writes the result back. Nothing is
// written when Find does not occur.
func (a *Applier) Apply(ctx context.Context, req Request, messageID model.MessageID) (Outcome, error) {
	path, err := a.store.ResolvePath(ctx, req.FilePath)
	if err != nil {
		return Outcome{}, err
	}
	current, err := a.store.GetFileContents(ctx, path, messageID)
	if err != nil {
		return Outcome{}, err
	}

	loc, err := Locate(current.Content, req.Find)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return Outcome{}, &MatchError{Path: string(req.FilePath), Find: req.Find}
		}
		return Outcome{}, err
	}
	if loc.Occurrences > 1 {
		a.log.Info("find text is ambiguous, replacing first occurrence",
			zap.String("path", string(path)),
			zap.Int("occurrences", loc.Occurrences),
		)
	}

	after := Splice(current.Content, loc, req.Replace)
	src, err := a.store.WriteFileContents(ctx, path, after, messageID)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Path:     path,
		RelPath:  current.RelFilePath,
		Before:   current.Content,
		After:    after,
		Location: loc,
		Source:   src,
		Preview:  Preview(string(req.FilePath), req.Find, req.Replace, a.opts),
	}, nil
}
