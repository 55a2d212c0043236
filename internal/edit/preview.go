package edit

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

const ellipsis = "..."

// PreviewOptions bounds the diff preview.
type PreviewOptions struct {
	ContextLines  int
	MaxLines      int
	MaxLineLength int
}

// DefaultPreviewOptions returns the standard preview bounds.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{ContextLines: 2, MaxLines: 10, MaxLineLength: 80}
}

// Preview renders a unified diff between find and replace for display. The
// file headers and the first hunk header are dropped. If the diff is longer
// than MaxLines only its tail is kept, behind an ellipsis line, and long
// lines are cut.
func Preview(path, find, replace string, opts PreviewOptions) string {
	if path == "" {
		// difflib omits the file headers without a name.
		path = "file"
	}
	diff := difflib.UnifiedDiff{
		A:        splitLines(find),
		B:        splitLines(replace),
		FromFile: path,
		FromDate: "before",
		ToFile:   path,
		ToDate:   "after",
		Context:  opts.ContextLines,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || out == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	// --- / +++ / first @@
	if len(lines) <= 3 {
		return ""
	}
	lines = lines[3:]

	truncated := false
	if opts.MaxLines > 0 && len(lines) > opts.MaxLines {
		lines = lines[len(lines)-opts.MaxLines:]
		truncated = true
	}
	for i, line := range lines {
		lines[i] = truncateLine(line, opts.MaxLineLength)
	}

	result := strings.Join(lines, "\n")
	if truncated {
		result = ellipsis + "\n" + result
	}
	return result
}

// splitLines splits s into newline-terminated lines. A missing newline at
// the end of s is ignored.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(strings.TrimSuffix(s, "\n"))
}

func truncateLine(line string, max int) string {
	if max <= 0 || utf8.RuneCountInString(line) <= max {
		return line
	}
	runes := []rune(line)
	return string(runes[:max]) + ellipsis
}

// CountLines counts lines the way the status view does: one more than the
// number of newlines.
func CountLines(s string) int {
	return strings.Count(s, "\n") + 1
}
