package workspace

import (
	"os"
	"testing"
)

func TestCreateAndTeardown(t *testing.T) {
	base := t.TempDir()
	ws, err := Create(base, "job1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, dir := range []string{ws.Root, ws.Audio, ws.Segments, ws.Encoded, ws.Temp, ws.Logs} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
	if err := ws.Teardown(); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Fatalf("expected workspace root to be removed after teardown")
	}
	// Idempotent.
	if err := ws.Teardown(); err != nil {
		t.Fatalf("expected second Teardown to be a no-op, got %v", err)
	}
}

func TestSegmentAndEncodedPaths(t *testing.T) {
	ws := &Workspace{Segments: "/tmp/segs", Encoded: "/tmp/enc"}
	if got := ws.SegmentPath(7); got != "/tmp/segs/0007.mkv" {
		t.Fatalf("got %s", got)
	}
	if got := ws.EncodedPath(7); got != "/tmp/enc/0007.mkv" {
		t.Fatalf("got %s", got)
	}
}
