package config

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig("in.mkv", "out.mkv")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if c.TargetVMAF != DefaultTargetVMAF {
		t.Fatalf("expected default target vmaf %g, got %g", DefaultTargetVMAF, c.TargetVMAF)
	}
	if c.Preset != DefaultPreset {
		t.Fatalf("expected default preset %d, got %d", DefaultPreset, c.Preset)
	}
}

func TestValidateRejectsOutOfRangePreset(t *testing.T) {
	c := NewConfig("in.mkv", "out.mkv")
	c.Preset = 14
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for preset > 13")
	}
}

func TestValidateRejectsOutOfRangeTargetVMAF(t *testing.T) {
	c := NewConfig("in.mkv", "out.mkv")
	c.TargetVMAF = 101
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for target-vmaf > 100")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	c := NewConfig("in.mkv", "out.mkv")
	c.LogLevel = "TRACE"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestValidateRejectsNonPositiveSegmentLength(t *testing.T) {
	c := NewConfig("in.mkv", "out.mkv")
	c.SegmentLength = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-positive segment length")
	}
}
