package crop

import (
	"context"
	"testing"

	"github.com/five82/drapto2/internal/model"
)

type fakeSampler struct {
	sequence []candidate
	ok       []bool
	calls    int
}

func (f *fakeSampler) Sample(ctx context.Context, inputPath string, startSecs float64, threshold int) (candidate, bool, error) {
	i := f.calls
	f.calls++
	if i >= len(f.sequence) {
		return candidate{}, false, nil
	}
	return f.sequence[i], f.ok[i], nil
}

func TestDetectDisabled(t *testing.T) {
	info := &model.VideoStreamInfo{Width: 1920, Height: 1080, DurationSecs: 600}
	got, err := Detect(context.Background(), &fakeSampler{}, "in.mkv", info, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Enabled {
		t.Fatalf("expected crop disabled")
	}
}

func TestDetectMostFrequentWins(t *testing.T) {
	info := &model.VideoStreamInfo{Width: 1920, Height: 1080, DurationSecs: 600}
	sampler := &fakeSampler{
		sequence: []candidate{
			{1920, 800, 0, 140},
			{1920, 1080, 0, 0},
			{1920, 800, 0, 140},
		},
		ok: []bool{true, true, true},
	}
	got, err := Detect(context.Background(), sampler, "in.mkv", info, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Enabled || got.Height != 800 {
		t.Fatalf("expected crop to 1920x800, got %+v", got)
	}
}

func TestDetectDisabledForSmallInsets(t *testing.T) {
	info := &model.VideoStreamInfo{Width: 1920, Height: 1080, DurationSecs: 600}
	sampler := &fakeSampler{
		sequence: []candidate{{1914, 1074, 3, 3}},
		ok:       []bool{true},
	}
	got, err := Detect(context.Background(), sampler, "in.mkv", info, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Enabled {
		t.Fatalf("expected crop disabled for sub-10px insets on both axes")
	}
}

func TestBlackLevelThreshold(t *testing.T) {
	cases := []struct {
		r    model.DynamicRange
		want int
	}{
		{model.RangeSDR, 24},
		{model.RangeHDR10, 64},
		{model.RangeHLG, 56},
		{model.RangeSMPTE428, 48},
		{model.RangeDolbyVision, 48},
	}
	for _, c := range cases {
		if got := blackLevelThreshold(c.r); got != c.want {
			t.Errorf("blackLevelThreshold(%v) = %d, want %d", c.r, got, c.want)
		}
	}
}

func TestCreditsSkipWindowBoundaries(t *testing.T) {
	cases := []struct {
		name         string
		durationSecs float64
		wantHead     float64
		wantTail     float64
	}{
		{"at 1800s boundary (short band)", 1800, 30, 60},
		{"just over 1800s (medium band)", 1800.001, 60, 120},
		{"at 3600s boundary (medium band)", 3600, 60, 120},
		{"just over 3600s (long band)", 3600.001, 120, 180},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			head, tail := creditsSkipWindow(c.durationSecs)
			if head != c.wantHead || tail != c.wantTail {
				t.Fatalf("creditsSkipWindow(%v) = (%v, %v), want (%v, %v)",
					c.durationSecs, head, tail, c.wantHead, c.wantTail)
			}
		})
	}
}

func TestSampleOffsetsRetainedInterior(t *testing.T) {
	// Short band: 1000s duration skips 30s head / 60s tail, leaving
	// [30, 940) sampled every 5s.
	offsets := sampleOffsets(1000)
	if len(offsets) == 0 {
		t.Fatal("expected at least one sample offset")
	}
	if offsets[0] != 30 {
		t.Errorf("first offset = %v, want 30 (head skip)", offsets[0])
	}
	last := offsets[len(offsets)-1]
	if last < 30 || last >= 940 {
		t.Errorf("last offset = %v, want within [30, 940)", last)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i]-offsets[i-1] != sampleIntervalSecs {
			t.Fatalf("offsets not spaced by %vs: %v -> %v", sampleIntervalSecs, offsets[i-1], offsets[i])
		}
	}
}

func TestSampleOffsetsFallsBackWhenIntervalTooShort(t *testing.T) {
	// A very short clip leaves no room for even one 5s interior sample
	// after the head/tail skip; must still return one sample.
	offsets := sampleOffsets(10)
	if len(offsets) != 1 {
		t.Fatalf("expected exactly one fallback offset, got %v", offsets)
	}
	if offsets[0] < 0 || offsets[0] > 10 {
		t.Fatalf("fallback offset %v out of bounds", offsets[0])
	}
}
