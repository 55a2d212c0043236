// Package snapshot holds the last observed content of each tracked file.
package snapshot

import (
	"time"

	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/model"
)

// Source says which representation a content observation came from.
type Source int

const (
	SourceDisk Source = iota
	SourceBuffer
)

func (s Source) String() string {
	switch s {
	case SourceDisk:
		return "disk"
	case SourceBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Observation is the last known content of a file.
type Observation struct {
	Content string
	// OriginID is the message at which Content was first seen. It never
	// decreases for a given path.
	OriginID model.MessageID
	Source   Source
	// ModTime is the file's modification time when Content was read from
	// disk. Zero for buffer observations.
	ModTime time.Time
}

// Store maps file identities to observations. It is not safe for concurrent
// use; the owner serialises access.
type Store struct {
	entries map[files.AbsFilePath]Observation
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[files.AbsFilePath]Observation)}
}

// Get returns the observation for path, if any.
func (s *Store) Get(path files.AbsFilePath) (Observation, bool) {
	obs, ok := s.entries[path]
	return obs, ok
}

// Put records obs for path. An OriginID lower than the stored one is raised
// to the stored value, so ids only move forward. The stored observation is
// returned.
func (s *Store) Put(path files.AbsFilePath, obs Observation) Observation {
	if prev, ok := s.entries[path]; ok && prev.OriginID > obs.OriginID {
		obs.OriginID = prev.OriginID
	}
	s.entries[path] = obs
	return obs
}

// Delete forgets path.
func (s *Store) Delete(path files.AbsFilePath) {
	delete(s.entries, path)
}

// Len returns the number of tracked paths.
func (s *Store) Len() int {
	return len(s.entries)
}
