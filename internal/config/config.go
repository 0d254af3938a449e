// Package config holds the run configuration for a single invocation of the
// encode command, along with its defaults and validation.
package config

import "fmt"

// Defaults for the CLI flag table.
const (
	DefaultTargetVMAF       float64 = 93
	DefaultPreset           uint8   = 6
	DefaultSegmentLength    int     = 15
	DefaultVMAFSampleCount  int     = 3
	DefaultVMAFSampleLength int     = 1
	DefaultLogLevel         string  = "INFO"

	MaxSVTAV1Preset uint8 = 13
)

// LogLevels lists the accepted --log-level values.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

// Config is the fully resolved, validated run configuration built from CLI
// flags. It is immutable once Validate succeeds and is the source for the
// EncodingContext handed to the orchestrator.
type Config struct {
	InputPath  string
	OutputPath string

	TargetVMAF       float64
	Preset           uint8
	DisableCrop      bool
	DisableChunked   bool
	SegmentLength    int
	VMAFSampleCount  int
	VMAFSampleLength int

	TempDir    string
	WorkingDir string

	LogLevel string
	LogFile  string
}

// NewConfig returns a Config populated with the documented defaults.
func NewConfig(inputPath, outputPath string) *Config {
	return &Config{
		InputPath:        inputPath,
		OutputPath:       outputPath,
		TargetVMAF:       DefaultTargetVMAF,
		Preset:           DefaultPreset,
		SegmentLength:    DefaultSegmentLength,
		VMAFSampleCount:  DefaultVMAFSampleCount,
		VMAFSampleLength: DefaultVMAFSampleLength,
		LogLevel:         DefaultLogLevel,
	}
}

// Validate checks range constraints on every flag-derived field.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.TargetVMAF < 0 || c.TargetVMAF > 100 {
		return fmt.Errorf("target-vmaf must be between 0 and 100, got %g", c.TargetVMAF)
	}
	if c.Preset > MaxSVTAV1Preset {
		return fmt.Errorf("preset must be between 0 and %d, got %d", MaxSVTAV1Preset, c.Preset)
	}
	if c.SegmentLength <= 0 {
		return fmt.Errorf("segment-length must be greater than 0, got %d", c.SegmentLength)
	}
	if c.VMAFSampleCount <= 0 {
		return fmt.Errorf("vmaf-sample-count must be greater than 0, got %d", c.VMAFSampleCount)
	}
	if c.VMAFSampleLength <= 0 {
		return fmt.Errorf("vmaf-sample-length must be greater than 0, got %d", c.VMAFSampleLength)
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("log-level must be one of %v, got %q", LogLevels, c.LogLevel)
	}
	return nil
}

func validLogLevel(level string) bool {
	for _, l := range LogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// GetTempDir returns the temp directory, falling back to WorkingDir when
// unset.
func (c *Config) GetTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return c.WorkingDir
}
