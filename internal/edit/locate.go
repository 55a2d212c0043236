// Package edit finds the target of a find/replace request, applies it, and
// renders a short diff preview.
package edit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch means the find text does not occur in the content.
var ErrNoMatch = errors.New("no match")

// MatchError reports a find text that could not be located in a file.
type MatchError struct {
	Path string
	Find string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("Unable to find text in file `%s`. The find text must match the file content exactly, including whitespace and indentation:\n```\n%s\n```", e.Path, e.Find)
}

func (e *MatchError) Unwrap() error { return ErrNoMatch }

// Location is a byte span of content selected for replacement.
type Location struct {
	Start int
	End   int
	// Whole is set when the request targets the entire content.
	Whole bool
	// Occurrences is how many non-overlapping matches the content holds.
	// Only the first is selected.
	Occurrences int
}

// Locate returns the span of the first occurrence of find in content. An
// empty find selects the whole content.
func Locate(content, find string) (Location, error) {
	if find == "" {
		return Location{Start: 0, End: len(content), Whole: true, Occurrences: 1}, nil
	}
	idx := strings.Index(content, find)
	if idx < 0 {
		return Location{}, ErrNoMatch
	}
	return Location{
		Start:       idx,
		End:         idx + len(find),
		Occurrences: strings.Count(content, find),
	}, nil
}

// Splice replaces the located span of content.
func Splice(content string, loc Location, replacement string) string {
	return content[:loc.Start] + replacement + content[loc.End:]
}
