package snapshot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPutGet(t *testing.T) {
	s := New()
	if _, ok := s.Get("/a"); ok {
		t.Fatal("empty store returned an entry")
	}

	now := time.Unix(1700000000, 0)
	want := Observation{Content: "hello", OriginID: 3, Source: SourceDisk, ModTime: now}
	s.Put("/a", want)

	got, ok := s.Get("/a")
	if !ok {
		t.Fatal("entry missing after Put")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observation mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestPutNeverLowersOrigin(t *testing.T) {
	s := New()
	s.Put("/a", Observation{Content: "v1", OriginID: 7})

	stored := s.Put("/a", Observation{Content: "v2", OriginID: 4, Source: SourceBuffer})
	if stored.OriginID != 7 {
		t.Errorf("OriginID = %d, want 7", stored.OriginID)
	}
	got, _ := s.Get("/a")
	want := Observation{Content: "v2", OriginID: 7, Source: SourceBuffer}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observation mismatch (-want +got):\n%s", diff)
	}

	stored = s.Put("/a", Observation{Content: "v3", OriginID: 9})
	if stored.OriginID != 9 {
		t.Errorf("OriginID = %d, want 9", stored.OriginID)
	}
}

func TestDelete(t *testing.T) {
	s := New()
	s.Put("/a", Observation{Content: "x", OriginID: 1})
	s.Delete("/a")
	if _, ok := s.Get("/a"); ok {
		t.Fatal("entry survived Delete")
	}
}

func TestSourceString(t *testing.T) {
	if SourceDisk.String() != "disk" || SourceBuffer.String() != "buffer" {
		t.Errorf("unexpected names %q %q", SourceDisk, SourceBuffer)
	}
}
