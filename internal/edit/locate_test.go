package edit

import (
	"errors"
	"strings"
	"testing"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		find    string
		want    Location
		wantErr error
	}{
		{
			name:    "single match",
			content: "alpha beta gamma",
			find:    "beta",
			want:    Location{Start: 6, End: 10, Occurrences: 1},
		},
		{
			name:    "first match wins",
			content: "x = 1\ny = 2\nx = 1\n",
			find:    "x = 1",
			want:    Location{Start: 0, End: 5, Occurrences: 2},
		},
		{
			name:    "whitespace is significant",
			content: "func f() {\n\treturn\n}",
			find:    "    return",
			wantErr: ErrNoMatch,
		},
		{
			name:    "empty find selects everything",
			content: "line one\nline two\n",
			find:    "",
			want:    Location{Start: 0, End: 18, Whole: true, Occurrences: 1},
		},
		{
			name:    "empty find on empty content",
			content: "",
			find:    "",
			want:    Location{Whole: true, Occurrences: 1},
		},
		{
			name:    "absent",
			content: "abc",
			find:    "abd",
			wantErr: ErrNoMatch,
		},
		{
			name:    "regex metacharacters are literal",
			content: "a.b a*b",
			find:    "a*b",
			want:    Location{Start: 4, End: 7, Occurrences: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.content, tt.find)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Locate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Locate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpliceFirstOccurrenceOnly(t *testing.T) {
	content := "foo()\nbar()\nfoo()\n"
	loc, err := Locate(content, "foo()")
	if err != nil {
		t.Fatal(err)
	}
	got := Splice(content, loc, "baz()")
	if got != "baz()\nbar()\nfoo()\n" {
		t.Errorf("Splice() = %q", got)
	}
	if !strings.HasSuffix(got, "\nfoo()\n") {
		t.Error("second occurrence was modified")
	}
}

func TestSpliceWholeFile(t *testing.T) {
	content := strings.Repeat("some long line of text\n", 500)
	loc, err := Locate(content, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := Splice(content, loc, "tiny"); got != "tiny" {
		t.Errorf("Splice() = %q, want %q", got, "tiny")
	}
}

func TestMatchError(t *testing.T) {
	err := error(&MatchError{Path: "a.go", Find: "needle"})
	if !errors.Is(err, ErrNoMatch) {
		t.Error("MatchError should unwrap to ErrNoMatch")
	}
	if !strings.Contains(err.Error(), "a.go") || !strings.Contains(err.Error(), "needle") {
		t.Errorf("message lacks context: %q", err.Error())
	}
}
