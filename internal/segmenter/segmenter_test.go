package segmenter

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeProber struct {
	failOn map[string]bool
}

func (f *fakeProber) Probe(path string) error {
	if f.failOn != nil && f.failOn[filepath.Base(path)] {
		return os.ErrInvalid
	}
	return nil
}

func writeSegment(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write fixture segment: %v", err)
	}
}

func TestValidateOrdersAndAccepts(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "0001.mkv", 2048)
	writeSegment(t, dir, "0000.mkv", 2048)

	got, err := Validate(dir, &fakeProber{})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	want := []string{filepath.Join(dir, "0000.mkv"), filepath.Join(dir, "0001.mkv")}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestValidateRejectsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Validate(dir, &fakeProber{}); err == nil {
		t.Fatal("expected error for empty segment directory")
	}
}

func TestValidateRejectsUndersizedSegment(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "0000.mkv", 100)
	if _, err := Validate(dir, &fakeProber{}); err == nil {
		t.Fatal("expected error for undersized segment")
	}
}

func TestValidateRejectsProbeFailure(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "0000.mkv", 2048)
	prober := &fakeProber{failOn: map[string]bool{"0000.mkv": true}}
	if _, err := Validate(dir, prober); err == nil {
		t.Fatal("expected error when prober fails")
	}
}

func TestSegmentRejectsNonPositiveLength(t *testing.T) {
	if _, err := Segment(nil, "in.mp4", t.TempDir(), 0, &fakeProber{}); err == nil {
		t.Fatal("expected error for non-positive segment length")
	}
}
