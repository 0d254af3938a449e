package quality

import "testing"

func TestPlanCRFThreshold(t *testing.T) {
	crf1080, _, _, _, _ := Plan(1920, 1080, 24, 6)
	if crf1080 != 25 {
		t.Fatalf("expected CRF 25 at 1080p, got %d", crf1080)
	}
	crf4k, _, _, _, _ := Plan(3840, 2160, 24, 6)
	if crf4k != 29 {
		t.Fatalf("expected CRF 29 above 1080p, got %d", crf4k)
	}
}

func TestPlanBitrateCeilings(t *testing.T) {
	for _, tt := range []struct {
		width  int
		fps    float64
		want   int
	}{
		{1280, 24, 4_000_000},
		{1920, 24, 8_000_000},
		{3840, 24, 16_000_000},
		{3840, 60, 24_000_000},
	} {
		_, _, maxBitrate, bufSize, _ := Plan(tt.width, 1080, tt.fps, 6)
		if maxBitrate != tt.want {
			t.Fatalf("width=%d fps=%v: got bitrate %d, want %d", tt.width, tt.fps, maxBitrate, tt.want)
		}
		if bufSize != maxBitrate*2 {
			t.Fatalf("expected bufsize = 2x max bitrate")
		}
	}
}

func TestClampPreset(t *testing.T) {
	if ClampPreset(-1) != 0 {
		t.Fatalf("expected clamp to 0")
	}
	if ClampPreset(20) != 13 {
		t.Fatalf("expected clamp to 13")
	}
	if ClampPreset(6) != 6 {
		t.Fatalf("expected 6 unchanged")
	}
}

func TestCategory(t *testing.T) {
	for _, tt := range []struct {
		width int
		want  string
	}{
		{1280, "SD"},
		{1920, "HD"},
		{2560, "HD"},
		{3840, "UHD"},
		{7680, "UHD"},
	} {
		if got := Category(tt.width); got != tt.want {
			t.Fatalf("Category(%d) = %s, want %s", tt.width, got, tt.want)
		}
	}
}
