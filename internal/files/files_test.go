package files

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		cwd  string
		in   UnresolvedFilePath
		want AbsFilePath
	}{
		{"relative", "/work", "src/main.go", "/work/src/main.go"},
		{"dot segments", "/work", "./a/../b.txt", "/work/b.txt"},
		{"absolute", "/work", "/etc/hosts", "/etc/hosts"},
		{"absolute unclean", "/work", "/work//x/./y", "/work/x/y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.cwd, tt.in); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.cwd, tt.in, got, tt.want)
			}
		})
	}
}

func TestIdentityEquality(t *testing.T) {
	a := Resolve("/work", "node/poem.txt")
	b := Resolve("/work/node", "poem.txt")
	c := Resolve("/", "work/node/../node/poem.txt")
	if a != b || b != c {
		t.Fatalf("expected equal identities, got %q %q %q", a, b, c)
	}
}

func TestRel(t *testing.T) {
	if got := Rel("/work", "/work/a/b.txt"); got != "a/b.txt" {
		t.Errorf("Rel = %q, want a/b.txt", got)
	}
	if got := Rel("/work", "/other/c.txt"); got != "../other/c.txt" {
		t.Errorf("Rel = %q, want ../other/c.txt", got)
	}
}

func TestWithin(t *testing.T) {
	if !Within("/work", "/work") {
		t.Error("cwd itself should be within")
	}
	if !Within("/work", "/work/x") {
		t.Error("child should be within")
	}
	if Within("/work", "/workspace/x") {
		t.Error("sibling with shared prefix must not be within")
	}
}

func TestResolverBoundary(t *testing.T) {
	r := Resolver{}
	if _, err := r.Resolve("/work", "../escape.txt"); !errors.Is(err, ErrOutsideWorkspace) {
		t.Fatalf("expected ErrOutsideWorkspace, got %v", err)
	}
	if _, err := r.Resolve("/work", ""); err == nil {
		t.Fatal("expected error for empty path")
	}

	r.AllowOutside = true
	got, err := r.Resolve("/work", "../escape.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/escape.txt" {
		t.Errorf("got %q", got)
	}
}
