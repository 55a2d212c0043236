package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/itfcore/internal/buffers"
	"github.com/sokinpui/itfcore/internal/edit"
	"github.com/sokinpui/itfcore/internal/files"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"no match", &edit.MatchError{Path: "a.go", Find: "x"}, KindMatch},
		{"missing file", &buffers.ResolveError{Path: "/w/a.go", Op: "stat", Err: buffers.ErrNotFound}, KindResolution},
		{"outside workspace", fmt.Errorf("resolve: %w", files.ErrOutsideWorkspace), KindResolution},
		{"editor down", fmt.Errorf("%w: eof", buffers.ErrEditorUnavailable), KindResolution},
		{"write failed", &buffers.WriteError{Path: "/w/a.go", Err: buffers.ErrPermission}, KindApply},
		{"context cancelled", context.Canceled, KindCancelled},
		{"panic", &DetailedError{Err: errors.New("boom")}, KindInternal},
		{"unknown", errors.New("weird"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind, "kind %s", got.Kind)
		})
	}
}

func TestClassifyKeepsMessage(t *testing.T) {
	err := &edit.MatchError{Path: "a.go", Find: "needle"}
	te := Classify(err)
	assert.Equal(t, err.Error(), te.Message)
	assert.ErrorIs(t, te, edit.ErrNoMatch)
	assert.True(t, IsRetryable(te))
}

func TestClassifyToolErrorUnchanged(t *testing.T) {
	te := &ToolError{Kind: KindApply, Message: "disk full"}
	assert.Same(t, te, Classify(fmt.Errorf("wrapped: %w", te)))
	assert.Nil(t, Classify(nil))
}

func TestCancelled(t *testing.T) {
	te := Cancelled()
	assert.Equal(t, KindCancelled, te.Kind)
	assert.Equal(t, "The user aborted this tool request.", te.Error())
	assert.ErrorIs(t, te, ErrAborted)
	assert.False(t, IsRetryable(te))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		panic("kaboom")
	}

	err := run()
	var de *DetailedError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Error(), "kaboom")
	assert.NotEmpty(t, de.Stack)
}
