// Package drapto2 is an embeddable library wrapping the chunked AV1/Opus
// transcoding pipeline: probe, crop, quality planning, segmentation,
// VMAF-guided chunk encoding, concatenation, audio, mux, and output
// validation.
//
// Basic usage:
//
//	encoder, err := drapto2.New(
//	    drapto2.WithTargetVMAF(95),
//	    drapto2.WithPreset(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := encoder.Encode(ctx, "input.mkv", "output/", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("encoded %s, reduction %.1f%%\n", result.OutputFile, result.SizeReductionPercent)
package drapto2

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/five82/drapto2/internal/config"
	"github.com/five82/drapto2/internal/discovery"
	"github.com/five82/drapto2/internal/logging"
	"github.com/five82/drapto2/internal/orchestrator"
	"github.com/five82/drapto2/internal/reporter"
	"github.com/five82/drapto2/internal/util"
)

// Reporter re-exports the progress/event sink interface so callers embedding
// this package never need to import internal/reporter directly.
type Reporter = reporter.Reporter

// NullReporter is a Reporter that discards every event.
type NullReporter = reporter.NullReporter

// Encoder is the embeddable entry point for video encoding.
type Encoder struct {
	config *config.Config
}

// Option configures an Encoder's run configuration.
type Option func(*config.Config)

// New creates an Encoder with the documented defaults, overridden by opts.
func New(opts ...Option) (*Encoder, error) {
	cfg := config.NewConfig("", "")
	for _, opt := range opts {
		opt(cfg)
	}
	return &Encoder{config: cfg}, nil
}

// WithTargetVMAF sets the VMAF quality floor (0-100, default 93).
func WithTargetVMAF(vmaf float64) Option {
	return func(c *config.Config) { c.TargetVMAF = vmaf }
}

// WithPreset sets the SVT-AV1 encoder preset (0-13, default 6).
func WithPreset(preset uint8) Option {
	return func(c *config.Config) { c.Preset = preset }
}

// WithDisableCrop skips crop analysis.
func WithDisableCrop() Option {
	return func(c *config.Config) { c.DisableCrop = true }
}

// WithDisableChunked forces the single-pass encoding branch.
func WithDisableChunked() Option {
	return func(c *config.Config) { c.DisableChunked = true }
}

// WithSegmentLength sets the chunk duration in seconds (default 15).
func WithSegmentLength(seconds int) Option {
	return func(c *config.Config) { c.SegmentLength = seconds }
}

// WithVMAFSampling sets the sample count and per-sample duration (in
// seconds) used by each VMAF probe.
func WithVMAFSampling(count, sampleSeconds int) Option {
	return func(c *config.Config) {
		c.VMAFSampleCount = count
		c.VMAFSampleLength = sampleSeconds
	}
}

// WithTempDir overrides the scratch root (default: input's parent directory).
func WithTempDir(dir string) Option {
	return func(c *config.Config) { c.TempDir = dir }
}

// WithWorkingDir overrides the workspace root (default: output's parent
// directory, work/).
func WithWorkingDir(dir string) Option {
	return func(c *config.Config) { c.WorkingDir = dir }
}

// WithLogging sets the log level (DEBUG, INFO, WARNING, ERROR) and
// optional log file path.
func WithLogging(level, file string) Option {
	return func(c *config.Config) {
		c.LogLevel = level
		c.LogFile = file
	}
}

// Result is the outcome of encoding one file.
type Result struct {
	OutputFile           string
	OriginalSize         uint64
	EncodedSize          uint64
	SizeReductionPercent float64
	ValidationPassed     bool
	EncodingSpeed        float32
}

// BatchResult is the outcome of encoding a batch of files.
type BatchResult struct {
	Results               []Result
	SuccessfulCount       int
	TotalFiles            int
	TotalSizeReduction    float64
	ValidationPassedCount int
}

// Encode encodes a single file. rep may be nil, in which case progress
// events are discarded.
func (e *Encoder) Encode(ctx context.Context, input, outputDir string, rep Reporter) (*Result, error) {
	batch, err := e.encode(ctx, []string{input}, outputDir, rep)
	if err != nil {
		return nil, err
	}
	if len(batch.Results) == 0 {
		return nil, fmt.Errorf("file was not encoded")
	}
	return &batch.Results[0], nil
}

// EncodeBatch encodes every input, writing results into outputDir. rep may
// be nil, in which case progress events are discarded.
func (e *Encoder) EncodeBatch(ctx context.Context, inputs []string, outputDir string, rep Reporter) (*BatchResult, error) {
	return e.encode(ctx, inputs, outputDir, rep)
}

func (e *Encoder) encode(ctx context.Context, inputs []string, outputDir string, rep Reporter) (*BatchResult, error) {
	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	cfg := *e.config
	if cfg.TempDir == "" && len(inputs) > 0 {
		cfg.TempDir = filepath.Dir(inputs[0])
	}
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = filepath.Join(outputDir, "work")
	}
	if err := util.EnsureDirectory(cfg.WorkingDir); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	pairs := make([]orchestrator.FilePair, len(inputs))
	for i, in := range inputs {
		pairs[i] = orchestrator.FilePair{
			InputPath:  in,
			OutputPath: util.ResolveOutputPath(in, outputDir, ""),
		}
	}

	if rep == nil {
		rep = reporter.NullReporter{}
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	log, err := logging.New("", level, cfg.LogFile, false)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = log.Close() }()

	results, err := orchestrator.ProcessFiles(ctx, &cfg, pairs, log, rep)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{TotalFiles: len(inputs)}
	var totalIn, totalOut uint64
	for _, r := range results {
		batch.Results = append(batch.Results, Result{
			OutputFile:           util.ResolveOutputPath(r.Filename, outputDir, ""),
			OriginalSize:         r.InputSize,
			EncodedSize:          r.OutputSize,
			SizeReductionPercent: util.CalculateSizeReduction(r.InputSize, r.OutputSize),
			ValidationPassed:     r.ValidationPassed,
			EncodingSpeed:        r.EncodingSpeed,
		})
		totalIn += r.InputSize
		totalOut += r.OutputSize
		if r.ValidationPassed {
			batch.ValidationPassedCount++
		}
	}
	batch.SuccessfulCount = len(results)
	batch.TotalSizeReduction = util.CalculateSizeReduction(totalIn, totalOut)

	return batch, nil
}

// FindVideos finds video files in a directory, per the CLI's directory-mode
// discovery rules.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}
