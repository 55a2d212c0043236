package itf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sokinpui/itfcore/internal/buffers/buffertest"
	"github.com/sokinpui/itfcore/internal/config"
	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/internal/journal"
	"github.com/sokinpui/itfcore/internal/source"
	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/itf"
	"github.com/sokinpui/itfcore/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	app     *itf.App
	editor  *buffertest.Editor
	journal *journal.Journal
	dir     string
}

func newFixture(t *testing.T, contents map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range contents {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	j, err := journal.Open(filepath.Join(t.TempDir(), journal.DirName))
	require.NoError(t, err)

	editor := buffertest.New(dir)
	app, err := itf.New(itf.Options{Config: config.Default(), Editor: editor, Journal: j})
	require.NoError(t, err)
	return fixture{app: app, editor: editor, journal: j, dir: dir}
}

func (f fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestNewRequiresEditor(t *testing.T) {
	_, err := itf.New(itf.Options{})
	assert.Error(t, err)
}

func TestRunRecordsJournal(t *testing.T) {
	f := newFixture(t, map[string]string{"pkg/a.go": "package pkg\n\nvar x = 1\n"})

	tool := f.app.Run(context.Background(), "toolu_1", replace.Input{
		FilePath: "pkg/a.go",
		Find:     "var x = 1",
		Replace:  "var x = 2\nvar y = 3",
	}, 7, f.app.NextMessageID())

	res := tool.GetToolResult()
	require.False(t, res.Result.IsError(), res.Result.Error)
	assert.Equal(t, "package pkg\n\nvar x = 2\nvar y = 3\n", f.read(t, "pkg/a.go"))

	entries, err := f.journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "toolu_1", e.RequestID)
	assert.Equal(t, 7, e.ThreadID)
	assert.Equal(t, 1, e.MessageID)
	assert.Equal(t, "pkg/a.go", e.Path)
	assert.Equal(t, "disk", e.Source)
	assert.Equal(t, journal.Hash("package pkg\n\nvar x = 1\n"), e.BeforeSHA256)
	assert.Equal(t, journal.Hash("package pkg\n\nvar x = 2\nvar y = 3\n"), e.AfterSHA256)
	assert.Equal(t, 1, e.LinesRemoved)
	assert.Equal(t, 2, e.LinesAdded)
}

func TestRunFailureSkipsJournal(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "package a\n"})

	tool := f.app.Run(context.Background(), "toolu_2", replace.Input{FilePath: "a.go", Find: "missing", Replace: "x"}, 1, f.app.NextMessageID())
	require.True(t, tool.GetToolResult().Result.IsError())

	entries, err := f.journal.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunEditsOpenBuffer(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "disk\n"})
	f.editor.Open(files.AbsFilePath(filepath.Join(f.dir, "a.go")), "buffer", "line")

	tool := f.app.Run(context.Background(), "toolu_3", replace.Input{FilePath: "a.go", Find: "line", Replace: "LINE"}, 1, f.app.NextMessageID())
	require.False(t, tool.GetToolResult().Result.IsError())

	lines, _ := f.editor.Lines(files.AbsFilePath(filepath.Join(f.dir, "a.go")))
	assert.Equal(t, []string{"buffer", "LINE"}, lines)
	assert.Equal(t, "disk\n", f.read(t, "a.go"))
}

func TestRunCancelledContext(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := f.app.Run(ctx, "toolu_4", replace.Input{FilePath: "a.go", Find: "x", Replace: "y"}, 1, f.app.NextMessageID())
	assert.Equal(t, model.Err("The user aborted this tool request."), tool.GetToolResult().Result)
	assert.False(t, f.app.Abort("toolu_4"), "finished tools are not tracked")
}

func TestMessageIDsAreMonotonic(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "x"})
	assert.Equal(t, model.MessageID(1), f.app.NextMessageID())

	f.app.NewReplace("ext", replace.Input{FilePath: "a.go"}, 1, 10, nil).Abort()
	assert.Equal(t, model.MessageID(11), f.app.NextMessageID())
}

func TestAbortRunningTool(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "x"})
	results := make(chan model.ToolResult, 1)
	tool := f.app.NewReplace("toolu_5", replace.Input{FilePath: "a.go", Find: "x", Replace: "y"}, 1, f.app.NextMessageID(), func(r model.ToolResult) {
		results <- r
	})

	assert.True(t, f.app.Abort("toolu_5"))
	r := <-results
	assert.Equal(t, "The user aborted this tool request.", r.Result.Error)
	assert.Equal(t, replace.StatusDone, tool.Status())
	assert.Equal(t, "x", f.read(t, "a.go"))
}

func TestDuplicateRequestID(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "x", "b.go": "y"})

	firstDone := make(chan model.ToolResult, 1)
	first := f.app.NewReplace("dup", replace.Input{FilePath: "a.go", Find: "x", Replace: "1"}, 1, f.app.NextMessageID(), func(r model.ToolResult) {
		firstDone <- r
	})
	second := f.app.NewReplace("dup", replace.Input{FilePath: "b.go", Find: "y", Replace: "2"}, 1, f.app.NextMessageID(), nil)

	first.Start(context.Background())
	require.False(t, (<-firstDone).Result.IsError())
	assert.Equal(t, "1", f.read(t, "a.go"))

	assert.True(t, f.app.Abort("dup"), "the newer tool is still reachable")
	assert.Equal(t, replace.StatusDone, second.Status())
	assert.Equal(t, "y", f.read(t, "b.go"))
	assert.False(t, f.app.Abort("dup"))
}

func TestRunAll(t *testing.T) {
	f := newFixture(t, map[string]string{"a.go": "one two", "b.go": "three"})
	reqs, err := source.ParseRequests(`[
  {"id":"r1","filePath":"a.go","find":"one","replace":"1"},
  {"id":"r2","filePath":"a.go","find":"two","replace":"2"},
  {"id":"r3","filePath":"b.go","find":"","replace":"3"}
]`)
	require.NoError(t, err)

	var calls []int
	ran := f.app.RunAll(context.Background(), reqs, 1, func(current, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, current)
	})
	require.Len(t, ran, 3)
	for _, tool := range ran {
		assert.False(t, tool.GetToolResult().Result.IsError(), tool.GetToolResult().Result.Error)
	}
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, "1 2", f.read(t, "a.go"))
	assert.Equal(t, "3", f.read(t, "b.go"))

	entries, err := f.journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Less(t, entries[0].MessageID, entries[1].MessageID)
}

func TestApplyWithoutRequests(t *testing.T) {
	ran, err := itf.Apply(context.Background(), "nothing to see here", config.Default(), nil)
	assert.ErrorIs(t, err, source.ErrNoRequest)
	assert.Nil(t, ran)
}
