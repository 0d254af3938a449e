// Package orchestrator ties every pipeline stage together: Probe & Classify,
// Crop Analyzer, Quality Planner, Workspace Manager, Resource Monitor,
// Segmenter, Chunk Encoder, Concatenator, Audio Encoder, Muxer, Output
// Validator, and the State Tracker, reporting progress throughout.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/drapto2/internal/audio"
	"github.com/five82/drapto2/internal/chunkencoder"
	"github.com/five82/drapto2/internal/concat"
	"github.com/five82/drapto2/internal/config"
	"github.com/five82/drapto2/internal/crop"
	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/logging"
	"github.com/five82/drapto2/internal/model"
	"github.com/five82/drapto2/internal/mux"
	"github.com/five82/drapto2/internal/probe"
	"github.com/five82/drapto2/internal/quality"
	"github.com/five82/drapto2/internal/reporter"
	"github.com/five82/drapto2/internal/resources"
	"github.com/five82/drapto2/internal/segmenter"
	"github.com/five82/drapto2/internal/singlepass"
	"github.com/five82/drapto2/internal/state"
	"github.com/five82/drapto2/internal/util"
	"github.com/five82/drapto2/internal/validation"
	"github.com/five82/drapto2/internal/workspace"
)

// footprintBufferFactor pads the projected chunked-encode disk footprint to
// absorb estimation error before the admission check runs.
const footprintBufferFactor = 1.2

// FilePair is one resolved input/output path, as produced by the CLI's
// directory-mode discovery and output-path resolution.
type FilePair struct {
	InputPath  string
	OutputPath string
}

// Result is the outcome of encoding one file.
type Result struct {
	Filename          string
	Duration          time.Duration
	InputSize         uint64
	OutputSize        uint64
	VideoDurationSecs float64
	EncodingSpeed     float32
	ValidationPassed  bool
	ValidationSteps   []validation.ValidationStep
}

// ProcessFiles runs the full pipeline for each file in files, in order,
// reporting batch-level events when there is more than one file.
func ProcessFiles(ctx context.Context, cfg *config.Config, files []FilePair, log *logging.Logger, rep reporter.Reporter) ([]Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	sysInfo := util.GetSystemInfo()
	rep.Hardware(reporter.HardwareSummary{Hostname: sysInfo.Hostname})

	if len(files) > 1 {
		var names []string
		for _, f := range files {
			names = append(names, util.GetFilename(f.InputPath))
		}
		rep.BatchStarted(reporter.BatchStartInfo{
			TotalFiles: len(files),
			FileList:   names,
			OutputDir:  filepath.Dir(files[0].OutputPath),
		})
	}

	var results []Result
	for i, pair := range files {
		if ctx.Err() != nil {
			rep.Warning(fmt.Sprintf("encoding cancelled: %v", ctx.Err()))
			break
		}
		if len(files) > 1 {
			rep.FileProgress(reporter.FileProgressContext{CurrentFile: i + 1, TotalFiles: len(files)})
		}

		result, err := processOne(ctx, cfg, log, rep, pair)
		if err != nil {
			rep.Error(reporter.ReporterError{
				Title:      "Encoding Error",
				Message:    fmt.Sprintf("could not encode %s: %v", util.GetFilename(pair.InputPath), err),
				Context:    fmt.Sprintf("File: %s", pair.InputPath),
				Suggestion: "Check the run log for the failing stage",
			})
			continue
		}
		results = append(results, result)
	}

	emitSummary(rep, results, len(files))
	return results, nil
}

func processOne(ctx context.Context, cfg *config.Config, log *logging.Logger, rep reporter.Reporter, pair FilePair) (Result, error) {
	inputPath, outputPath := pair.InputPath, pair.OutputPath
	inputFilename := util.GetFilename(inputPath)

	if util.FileExists(outputPath) {
		rep.Warning(fmt.Sprintf("output file already exists: %s. Skipping encode.", outputPath))
		return Result{}, errors.NewInvalidInputError("output already exists")
	}

	log.Info("starting encode of %s", inputFilename)

	info, audioStreams, err := probe.Classify(probe.DefaultProber{}, inputPath)
	if err != nil {
		return Result{}, errors.Wrap(errors.InvalidStream, "failed to probe "+inputFilename, err)
	}

	category := quality.Category(info.Width)
	rep.Initialization(reporter.InitializationSummary{
		InputFile:        inputFilename,
		OutputFile:       util.GetFilename(outputPath),
		Duration:         util.FormatDuration(info.DurationSecs),
		Resolution:       fmt.Sprintf("%dx%d", info.Width, info.Height),
		Category:         category,
		DynamicRange:     formatDynamicRange(info.IsHDR),
		AudioDescription: formatAudioDescription(audioStreams),
	})

	cropInfo, err := crop.Detect(ctx, crop.DefaultSampler{}, inputPath, info, cfg.DisableCrop)
	if err != nil {
		return Result{}, errors.Wrap(errors.InvalidStream, "crop detection failed", err)
	}
	cropFilter := cropInfo.FilterString()
	rep.CropResult(reporter.CropSummary{
		Message:  fmt.Sprintf("%dx%d source", info.Width, info.Height),
		Crop:     cropFilter,
		Required: cropInfo.Enabled,
		Disabled: cfg.DisableCrop,
	})

	crf, preset, maxBitrate, bufSize, svtParams := quality.Plan(info.Width, info.Height, info.FPS(), int(cfg.Preset))
	qualitySettings := model.QualitySettings{CRF: crf, Preset: preset, MaxBitrate: maxBitrate, BufSize: bufSize, SVTParams: svtParams}

	inputSize, _ := util.GetFileSize(inputPath)

	strategy := model.StrategyChunked
	if info.IsDolbyVision || cfg.DisableChunked {
		strategy = model.StrategySinglePass
	}

	if strategy == model.StrategyChunked {
		footprint := resources.ProjectedFootprint(inputSize, cfg.SegmentLength, footprintBufferFactor)
		if err := resources.CheckAdmission(cfg.GetTempDir(), footprint, resources.Thresholds{}); err != nil {
			return Result{}, err
		}
	}

	jobID := util.GetFileStem(inputPath)
	ws, err := workspace.Create(cfg.GetTempDir(), jobID)
	if err != nil {
		return Result{}, err
	}
	stopSignals := ws.WatchSignals()
	defer stopSignals()
	defer ws.Teardown()

	tracker, err := state.NewTracker(filepath.Join(ws.Root, "state"))
	if err != nil {
		return Result{}, err
	}
	job := &model.EncodingJob{ID: jobID, InputPath: inputPath, OutputPath: outputPath, Strategy: strategy, Status: model.JobPreparing}
	createdAt := time.Now()
	if err := tracker.SaveJob(job, createdAt); err != nil {
		return Result{}, err
	}

	rep.EncodingConfig(reporter.EncodingConfigSummary{
		Encoder:            "SVT-AV1",
		Preset:             fmt.Sprintf("%d", preset),
		Tune:               "0",
		Quality:            fmt.Sprintf("CRF %d", crf),
		PixelFormat:        "yuv420p10le",
		MatrixCoefficients: matrixCoefficients(info),
		AudioCodec:         "Opus",
		AudioDescription:   formatAudioDescription(audioStreams),
		SVTAV1Params:       svtParams,
		VMAFTier:           "tier1",
		VMAFTierSettings: [][2]string{
			{"target VMAF", fmt.Sprintf("%g", cfg.TargetVMAF)},
			{"samples", fmt.Sprintf("%d", cfg.VMAFSampleCount)},
			{"sample length", fmt.Sprintf("%ds", cfg.VMAFSampleLength)},
		},
	})

	startTime := time.Now()
	job.Status = model.JobEncoding
	_ = tracker.SaveJob(job, createdAt)
	rep.EncodingStarted(0)

	var videoOutPath string
	if strategy == model.StrategySinglePass {
		videoOutPath = filepath.Join(ws.Encoded, "video.mkv")
		if err := singlepass.Encode(ctx, singlepass.DefaultRunner{}, singlepass.Params{
			InputPath:  inputPath,
			OutputPath: videoOutPath,
			CropFilter: cropFilter,
			Quality:    qualitySettings,
			HWAccel:    hwAccelFlag(),
		}); err != nil {
			job.Status = model.JobFailed
			job.Error = err.Error()
			_ = tracker.SaveJob(job, createdAt)
			return Result{}, err
		}
	} else {
		segmentPaths, err := segmenter.Segment(ctx, inputPath, ws.Segments, cfg.SegmentLength, nil)
		if err != nil {
			job.Status = model.JobFailed
			job.Error = err.Error()
			_ = tracker.SaveJob(job, createdAt)
			return Result{}, err
		}

		segments := make([]*model.Segment, len(segmentPaths))
		for i, p := range segmentPaths {
			segments[i] = &model.Segment{
				Index:      i,
				InputPath:  p,
				OutputPath: ws.EncodedPath(i),
			}
		}
		if err := tracker.SaveSegments(segmentsToMap(segments)); err != nil {
			return Result{}, err
		}

		pool := &chunkencoder.Pool{
			Runner:               chunkencoder.DefaultRunner{},
			Quality:              qualitySettings,
			CropFilter:           cropFilter,
			TargetVMAF:           cfg.TargetVMAF,
			ConfiguredSamples:    cfg.VMAFSampleCount,
			ConfiguredSampleSecs: cfg.VMAFSampleLength,
			PoolSize:             util.LogicalCores(),
		}
		if err := pool.EncodeAll(ctx, segments); err != nil {
			job.Status = model.JobFailed
			job.Error = err.Error()
			_ = tracker.SaveJob(job, createdAt)
			_ = tracker.SaveSegments(segmentsToMap(segments))
			return Result{}, err
		}
		_ = tracker.SaveSegments(segmentsToMap(segments))

		encodedPaths := make([]string, len(segments))
		for i, seg := range segments {
			encodedPaths[i] = seg.OutputPath
		}

		job.Status = model.JobFinalizing
		_ = tracker.SaveJob(job, createdAt)

		videoOutPath = filepath.Join(ws.Temp, "concat.mkv")
		if err := concat.Concat(ctx, ws.Encoded, videoOutPath, encodedPaths); err != nil {
			job.Status = model.JobFailed
			job.Error = err.Error()
			_ = tracker.SaveJob(job, createdAt)
			return Result{}, err
		}
	}

	audioOutPath := filepath.Join(ws.Audio, "audio.mka")
	layout, err := audio.Encode(ctx, audio.DefaultProber{}, inputPath, audioOutPath)
	if err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
		_ = tracker.SaveJob(job, createdAt)
		return Result{}, err
	}

	if err := mux.Mux(ctx, videoOutPath, audioOutPath, inputPath, outputPath); err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
		_ = tracker.SaveJob(job, createdAt)
		return Result{}, err
	}

	elapsed := time.Since(startTime)
	outputSize, _ := util.GetFileSize(outputPath)
	expectedWidth, expectedHeight := outputDimensions(info, cropInfo)
	expectedAudioTracks := 1
	isHDR := info.IsHDR

	validationResult, verr := validation.ValidateOutputVideo(inputPath, outputPath, validation.Options{
		ExpectedDimensions:  &[2]uint32{uint32(expectedWidth), uint32(expectedHeight)},
		ExpectedDuration:    &info.DurationSecs,
		ExpectedHDR:         &isHDR,
		ExpectedAudioTracks: &expectedAudioTracks,
	})

	var validationPassed bool
	var validationSteps []validation.ValidationStep
	if verr != nil {
		validationSteps = []validation.ValidationStep{{Name: "Validation", Passed: false, Details: verr.Error()}}
	} else {
		validationPassed = validationResult.IsValid()
		validationSteps = validationResult.GetValidationSteps()
	}

	var repSteps []reporter.ValidationStep
	for _, s := range validationSteps {
		repSteps = append(repSteps, reporter.ValidationStep{Name: s.Name, Passed: s.Passed, Details: s.Details})
	}
	rep.ValidationComplete(reporter.ValidationSummary{Passed: validationPassed, Steps: repSteps})

	speed := float32(0)
	if elapsed.Seconds() > 0 {
		speed = float32(info.DurationSecs / elapsed.Seconds())
	}

	rep.EncodingComplete(reporter.EncodingOutcome{
		InputFile:    inputFilename,
		OutputFile:   util.GetFilename(outputPath),
		OriginalSize: inputSize,
		EncodedSize:  outputSize,
		VideoStream:  fmt.Sprintf("AV1 (libsvtav1), %dx%d", expectedWidth, expectedHeight),
		AudioStream:  formatAudioResult(layout),
		TotalTime:    elapsed,
		AverageSpeed: speed,
		OutputPath:   outputPath,
	})

	job.Status = model.JobCompleted
	_ = tracker.SaveJob(job, createdAt)
	log.Info("completed encode of %s in %s", inputFilename, elapsed)

	return Result{
		Filename:          inputFilename,
		Duration:          elapsed,
		InputSize:         inputSize,
		OutputSize:        outputSize,
		VideoDurationSecs: info.DurationSecs,
		EncodingSpeed:     speed,
		ValidationPassed:  validationPassed,
		ValidationSteps:   validationSteps,
	}, nil
}

func segmentsToMap(segments []*model.Segment) map[int]*model.Segment {
	m := make(map[int]*model.Segment, len(segments))
	for _, s := range segments {
		m[s.Index] = s
	}
	return m
}

func outputDimensions(info *model.VideoStreamInfo, cropInfo model.CropInfo) (int, int) {
	if cropInfo.Enabled {
		return cropInfo.Width, cropInfo.Height
	}
	return info.Width, info.Height
}

func matrixCoefficients(info *model.VideoStreamInfo) string {
	if info.IsHDR {
		if info.ColorSpace != "" {
			return info.ColorSpace
		}
		return "bt2020nc"
	}
	return "bt709"
}

func hwAccelFlag() string {
	if resources.HardwareDecodeAvailable() {
		return "auto"
	}
	return ""
}

func formatDynamicRange(isHDR bool) string {
	if isHDR {
		return "HDR"
	}
	return "SDR"
}

func emitSummary(rep reporter.Reporter, results []Result, totalFiles int) {
	switch len(results) {
	case 0:
		rep.Warning("no files were successfully encoded")
	case 1:
		rep.OperationComplete(fmt.Sprintf("successfully encoded %s", results[0].Filename))
	default:
		var totalDuration time.Duration
		var totalOriginalSize, totalEncodedSize uint64
		var totalVideoDuration float64
		var fileResults []reporter.FileResult
		validationPassedCount := 0

		for _, r := range results {
			totalDuration += r.Duration
			totalOriginalSize += r.InputSize
			totalEncodedSize += r.OutputSize
			totalVideoDuration += r.VideoDurationSecs
			fileResults = append(fileResults, reporter.FileResult{
				Filename:  r.Filename,
				Reduction: util.CalculateSizeReduction(r.InputSize, r.OutputSize),
			})
			if r.ValidationPassed {
				validationPassedCount++
			}
		}

		avgSpeed := float32(0)
		if totalDuration.Seconds() > 0 {
			avgSpeed = float32(totalVideoDuration / totalDuration.Seconds())
		}

		rep.BatchComplete(reporter.BatchSummary{
			SuccessfulCount:       len(results),
			TotalFiles:            totalFiles,
			TotalOriginalSize:     totalOriginalSize,
			TotalEncodedSize:      totalEncodedSize,
			TotalDuration:         totalDuration,
			AverageSpeed:          avgSpeed,
			FileResults:           fileResults,
			ValidationPassedCount: validationPassedCount,
			ValidationFailedCount: len(results) - validationPassedCount,
		})
	}
}
