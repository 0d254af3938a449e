package chunkencoder

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/five82/drapto2/internal/model"
)

// fakeRunner succeeds on the configured tier name (or every tier if empty)
// and writes a small non-empty payload to p.OutputPath when it succeeds.
type fakeRunner struct {
	succeedOnTier string
	callCount     atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, p AttemptParams) error {
	f.callCount.Add(1)
	if f.succeedOnTier != "" && p.Tier.Name != f.succeedOnTier {
		return os.ErrInvalid
	}
	return os.WriteFile(p.OutputPath, []byte("data"), 0644)
}

type alwaysFailRunner struct{}

func (alwaysFailRunner) Run(ctx context.Context, p AttemptParams) error { return os.ErrInvalid }

func newSegment(dir string, idx int) *model.Segment {
	return &model.Segment{
		Index:      idx,
		InputPath:  filepath.Join(dir, "in.mkv"),
		OutputPath: filepath.Join(dir, "out.mkv"),
	}
}

func TestEncodeSegmentSucceedsOnTier1(t *testing.T) {
	dir := t.TempDir()
	seg := newSegment(dir, 0)
	runner := &fakeRunner{}

	err := EncodeSegment(context.Background(), runner, seg, model.QualitySettings{}, "", 93, 3, 1)
	if err != nil {
		t.Fatalf("EncodeSegment failed: %v", err)
	}
	if seg.Status != model.SegmentCompleted {
		t.Fatalf("expected SegmentCompleted, got %v", seg.Status)
	}
	if seg.Attempts() != 1 {
		t.Fatalf("expected 1 attempt, got %d", seg.Attempts())
	}
}

func TestEncodeSegmentEscalatesToTier3(t *testing.T) {
	dir := t.TempDir()
	seg := newSegment(dir, 0)
	runner := &fakeRunner{succeedOnTier: "tier3"}

	err := EncodeSegment(context.Background(), runner, seg, model.QualitySettings{}, "", 93, 3, 1)
	if err != nil {
		t.Fatalf("EncodeSegment failed: %v", err)
	}
	if seg.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got %d", seg.Attempts())
	}
	if seg.StrategiesTried[2] != "tier3" {
		t.Fatalf("expected final strategy tier3, got %v", seg.StrategiesTried)
	}
}

func TestEncodeSegmentExhaustsAllTiers(t *testing.T) {
	dir := t.TempDir()
	seg := newSegment(dir, 0)

	err := EncodeSegment(context.Background(), alwaysFailRunner{}, seg, model.QualitySettings{}, "", 93, 3, 1)
	if err == nil {
		t.Fatal("expected error after exhausting all tiers")
	}
	if seg.Status != model.SegmentFailed {
		t.Fatalf("expected SegmentFailed, got %v", seg.Status)
	}
	if seg.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got %d", seg.Attempts())
	}
}

func TestEncodeSegmentSkipsIfOutputAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	seg := newSegment(dir, 0)
	if err := os.WriteFile(seg.OutputPath, []byte("already encoded"), 0644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}
	runner := &fakeRunner{}

	err := EncodeSegment(context.Background(), runner, seg, model.QualitySettings{}, "", 93, 3, 1)
	if err != nil {
		t.Fatalf("EncodeSegment failed: %v", err)
	}
	if runner.callCount.Load() != 0 {
		t.Fatalf("expected runner not to be called for an already-encoded segment, got %d calls", runner.callCount.Load())
	}
}

func TestPoolStopsDispatchingAfterExhaustion(t *testing.T) {
	dir := t.TempDir()
	var segments []*model.Segment
	for i := 0; i < 4; i++ {
		seg := newSegment(filepath.Join(dir, "seg"), i)
		seg.OutputPath = filepath.Join(dir, "seg", "out"+string(rune('0'+i))+".mkv")
		segments = append(segments, seg)
	}

	pool := &Pool{
		Runner:               alwaysFailRunner{},
		TargetVMAF:           93,
		ConfiguredSamples:    3,
		ConfiguredSampleSecs: 1,
		PoolSize:             1,
	}

	err := pool.EncodeAll(context.Background(), segments)
	if err == nil {
		t.Fatal("expected an EncodeRetriesExhausted error to surface")
	}
	for _, seg := range segments[1:] {
		if seg.Attempts() != 0 || seg.Status != model.SegmentPending {
			t.Fatalf("expected segment %d not to be dispatched, got %d attempts, status %v", seg.Index, seg.Attempts(), seg.Status)
		}
	}
}

func TestTiersTable(t *testing.T) {
	tiers := Tiers(93, 3, 1)
	if tiers[0].Samples != 3 || tiers[0].SampleDurationSecs != 1 || tiers[0].MinVMAF != 93 {
		t.Fatalf("unexpected tier1: %+v", tiers[0])
	}
	if tiers[1].Samples != 6 || tiers[1].SampleDurationSecs != 2 || tiers[1].MinVMAF != 93 {
		t.Fatalf("unexpected tier2: %+v", tiers[1])
	}
	if tiers[2].Samples != 6 || tiers[2].SampleDurationSecs != 2 || tiers[2].MinVMAF != 91 {
		t.Fatalf("unexpected tier3: %+v", tiers[2])
	}
}
