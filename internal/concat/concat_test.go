package concat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildManifestOrdersLexicographically(t *testing.T) {
	dir := t.TempDir()
	segs := []string{
		filepath.Join(dir, "0002.mkv"),
		filepath.Join(dir, "0000.mkv"),
		filepath.Join(dir, "0001.mkv"),
	}

	path, err := BuildManifest(dir, segs)
	if err != nil {
		t.Fatalf("BuildManifest failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "0000.mkv") || !strings.Contains(lines[1], "0001.mkv") || !strings.Contains(lines[2], "0002.mkv") {
		t.Fatalf("manifest not in lexicographic order: %v", lines)
	}
}

func TestEscapeSingleQuotes(t *testing.T) {
	got := escapeSingleQuotes("it's/a/path.mkv")
	want := `it'\''s/a/path.mkv`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
