// Package journal keeps an append-only record of the edits applied to the
// workspace.
package journal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DirName  = ".itf"
	FileName = "journal.yaml"
)

// Entry records one applied edit.
type Entry struct {
	Timestamp    time.Time `yaml:"timestamp"`
	ThreadID     int       `yaml:"thread_id"`
	MessageID    int       `yaml:"message_id"`
	RequestID    string    `yaml:"request_id"`
	Tool         string    `yaml:"tool"`
	Path         string    `yaml:"path"`
	Source       string    `yaml:"source"`
	BeforeSHA256 string    `yaml:"before_sha256"`
	AfterSHA256  string    `yaml:"after_sha256"`
	LinesRemoved int       `yaml:"lines_removed"`
	LinesAdded   int       `yaml:"lines_added"`
}

// Journal appends entries to a YAML stream, one document per entry.
type Journal struct {
	mu   sync.Mutex
	path string
}

// FindRoot returns the git top level containing dir, or dir itself outside
// a repository.
func FindRoot(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return dir
	}
	return strings.TrimSpace(string(output))
}

// Open prepares the journal inside stateDir, creating the directory.
func Open(stateDir string) (*Journal, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create journal directory: %w", err)
	}
	return &Journal{path: filepath.Join(stateDir, FileName)}, nil
}

// OpenAt opens the journal for the workspace containing dir.
func OpenAt(dir string) (*Journal, error) {
	return Open(filepath.Join(FindRoot(dir), DirName))
}

// Path returns the journal file.
func (j *Journal) Path() string {
	return j.path
}

// Append writes e at the end of the journal. A zero timestamp is set to now.
func (j *Journal) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := yaml.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(data)
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Entries reads every entry back in the order written.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	dec := yaml.NewDecoder(f)
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return entries, fmt.Errorf("invalid journal %s: %w", j.path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Hash returns the hex SHA256 of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
