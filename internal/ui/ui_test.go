package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/sokinpui/itfcore/model"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Output, color.NoColor
	Output, color.NoColor = &buf, true
	t.Cleanup(func() { Output, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestPrintEditSummary(t *testing.T) {
	buf := capture(t)
	PrintEditSummary(model.Summary{Path: "main.go", Removed: 1, Added: 2, Preview: "-a\n+b\n+c"})

	out := buf.String()
	assert.Contains(t, out, "Edited main.go [-1 / +2]")
	assert.Contains(t, out, "  -a\n  +b\n  +c\n")
}

func TestPrintEditSummaryFailed(t *testing.T) {
	buf := capture(t)
	PrintEditSummary(model.Summary{Path: "main.go", Failed: true, Message: "Unable to find text"})

	out := buf.String()
	assert.Contains(t, out, "Failed to edit main.go:")
	assert.Contains(t, out, "Unable to find text")
}

func TestPrintBatchSummary(t *testing.T) {
	buf := capture(t)
	PrintBatchSummary(nil, nil)
	assert.Contains(t, buf.String(), "No files were updated.")

	buf.Reset()
	PrintBatchSummary([]string{"a.go"}, []string{"b.go"})
	assert.Contains(t, buf.String(), "Edited 1 file(s):\n  - a.go")
	assert.Contains(t, buf.String(), "Failed to edit 1 file(s):\n  - b.go")
}

func TestProgressBar(t *testing.T) {
	buf := capture(t)
	p := NewProgressBar(2, "Applying")
	p.Start()
	p.Increment()
	p.Increment()
	p.Finish()
	assert.Contains(t, buf.String(), "[2/2] 100.0%")
}
