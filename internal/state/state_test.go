package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/drapto2/internal/model"
)

func TestLoadSegmentsInitializesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	segs, err := tr.LoadSegments()
	if err != nil {
		t.Fatalf("LoadSegments failed: %v", err)
	}
	if len(segs) != 0 {
		t.Fatalf("expected empty default segment map, got %d entries", len(segs))
	}
	if _, err := os.Stat(filepath.Join(dir, segmentsFileName)); err != nil {
		t.Fatalf("expected segments.json to be written on init, got %v", err)
	}
}

func TestSaveAndLoadSegmentsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	segs := map[int]*model.Segment{
		0: {Index: 0, InputPath: "in0.mkv", OutputPath: "out0.mkv", Status: model.SegmentCompleted},
	}
	if err := tr.SaveSegments(segs); err != nil {
		t.Fatalf("SaveSegments failed: %v", err)
	}

	got, err := tr.LoadSegments()
	if err != nil {
		t.Fatalf("LoadSegments failed: %v", err)
	}
	if len(got) != 1 || got[0].Status != model.SegmentCompleted {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadJobRecoversFromMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, encodingFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	job, err := tr.LoadJob("job-1")
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}
	if job.Status != model.JobPending {
		t.Fatalf("expected recovery to default JobPending, got %v", job.Status)
	}
}

func TestSaveJobPreservesCreatedAt(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	created := time.Now().Add(-time.Hour)

	job := &model.EncodingJob{ID: "job-1", Status: model.JobEncoding}
	if err := tr.SaveJob(job, created); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, encodingFileName))
	if err != nil {
		t.Fatalf("failed to read encoding.json: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected encoding.json to be non-empty")
	}
	var f encodingFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("failed to parse encoding.json: %v", err)
	}
	if !f.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", f.CreatedAt, created)
	}
}

func TestLoadProgressInitializesZeroValue(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTracker(dir)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	p, err := tr.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress failed: %v", err)
	}
	if p.Percent != 0 || p.CurrentFrame != 0 {
		t.Fatalf("expected zero-value progress, got %+v", p)
	}
}
