package drapto2

import "testing"

func TestOptionsApply(t *testing.T) {
	e, err := New(
		WithTargetVMAF(95),
		WithPreset(3),
		WithDisableCrop(),
		WithDisableChunked(),
		WithSegmentLength(10),
		WithVMAFSampling(5, 2),
		WithTempDir("/tmp/scratch"),
		WithWorkingDir("/tmp/work"),
		WithLogging("DEBUG", "/tmp/run.log"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c := e.config
	if c.TargetVMAF != 95 {
		t.Errorf("TargetVMAF = %v, want 95", c.TargetVMAF)
	}
	if c.Preset != 3 {
		t.Errorf("Preset = %v, want 3", c.Preset)
	}
	if !c.DisableCrop {
		t.Error("DisableCrop = false, want true")
	}
	if !c.DisableChunked {
		t.Error("DisableChunked = false, want true")
	}
	if c.SegmentLength != 10 {
		t.Errorf("SegmentLength = %v, want 10", c.SegmentLength)
	}
	if c.VMAFSampleCount != 5 || c.VMAFSampleLength != 2 {
		t.Errorf("VMAF sampling = %d/%d, want 5/2", c.VMAFSampleCount, c.VMAFSampleLength)
	}
	if c.TempDir != "/tmp/scratch" {
		t.Errorf("TempDir = %q, want /tmp/scratch", c.TempDir)
	}
	if c.WorkingDir != "/tmp/work" {
		t.Errorf("WorkingDir = %q, want /tmp/work", c.WorkingDir)
	}
	if c.LogLevel != "DEBUG" || c.LogFile != "/tmp/run.log" {
		t.Errorf("logging = %s/%s, want DEBUG//tmp/run.log", c.LogLevel, c.LogFile)
	}
}

func TestNewAppliesSpecDefaults(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.config.TargetVMAF != 93 {
		t.Errorf("default TargetVMAF = %v, want 93", e.config.TargetVMAF)
	}
	if e.config.Preset != 6 {
		t.Errorf("default Preset = %v, want 6", e.config.Preset)
	}
}
