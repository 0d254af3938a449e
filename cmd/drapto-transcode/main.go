// Command drapto-transcode is the CLI entry point for the transcoding
// pipeline: probe, crop, plan, segment/encode, concat, mux, validate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/drapto2/internal/config"
	"github.com/five82/drapto2/internal/discovery"
	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/logging"
	"github.com/five82/drapto2/internal/orchestrator"
	"github.com/five82/drapto2/internal/reporter"
	"github.com/five82/drapto2/internal/util"
)

const appVersion = "0.1.0"

// exit codes: 0 success, 1 generic failure, 2 invalid arguments/paths.
const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:           "drapto-transcode",
		Short:         "Chunked AV1/Opus video transcoder",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newEncodeCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.IsKind(err, errors.InvalidInput) {
			return exitInvalidInput
		}
		return exitFailure
	}
	return exitOK
}

type encodeFlags struct {
	targetVMAF       float64
	preset           uint8
	disableCrop      bool
	disableChunked   bool
	segmentLength    int
	vmafSampleCount  int
	vmafSampleLength int
	tempDir          string
	workingDir       string
	logLevel         string
	logFile          string
}

func newEncodeCmd() *cobra.Command {
	var f encodeFlags

	cmd := &cobra.Command{
		Use:   "encode <input> <output>",
		Short: "Encode a video file or directory of video files to AV1/Opus Matroska",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd.Context(), args[0], args[1], f)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&f.targetVMAF, "target-vmaf", config.DefaultTargetVMAF, "Quality floor (0-100)")
	flags.Uint8Var(&f.preset, "preset", config.DefaultPreset, "Encoder speed/quality preset (0-13)")
	flags.BoolVar(&f.disableCrop, "disable-crop", false, "Skip crop analysis")
	flags.BoolVar(&f.disableChunked, "disable-chunked", false, "Force single-pass encoding")
	flags.IntVar(&f.segmentLength, "segment-length", config.DefaultSegmentLength, "Chunk duration in seconds")
	flags.IntVar(&f.vmafSampleCount, "vmaf-sample-count", config.DefaultVMAFSampleCount, "Samples per VMAF probe")
	flags.IntVar(&f.vmafSampleLength, "vmaf-sample-length", config.DefaultVMAFSampleLength, "Seconds per VMAF sample")
	flags.StringVar(&f.tempDir, "temp-dir", "", "Scratch root override (default: input's parent directory)")
	flags.StringVar(&f.workingDir, "working-dir", "", "Workspace override (default: output's parent directory, work/)")
	flags.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log verbosity: DEBUG, INFO, WARNING, ERROR")
	flags.StringVar(&f.logFile, "log-file", "", "Log destination (default: timestamped file under <working-dir>/logs)")

	return cmd
}

func runEncode(ctx context.Context, inputArg, outputArg string, f encodeFlags) error {
	inputPath, err := filepath.Abs(inputArg)
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("invalid input path: %v", err))
	}
	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("input path does not exist: %s", inputPath))
	}

	outputArgAbs, err := filepath.Abs(outputArg)
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("invalid output path: %v", err))
	}
	// filepath.Abs strips a trailing separator; ResolveOutputArg needs it to
	// tell "treat as directory" apart from "treat as filename".
	if outputArg != "." && (len(outputArg) > 0 && (outputArg[len(outputArg)-1] == '/' || outputArg[len(outputArg)-1] == os.PathSeparator)) {
		outputArgAbs += string(os.PathSeparator)
	}

	pairs, err := resolveFilePairs(inputPath, inputInfo, outputArgAbs)
	if err != nil {
		return err
	}

	cfg := config.NewConfig(inputPath, outputArgAbs)
	cfg.TargetVMAF = f.targetVMAF
	cfg.Preset = f.preset
	cfg.DisableCrop = f.disableCrop
	cfg.DisableChunked = f.disableChunked
	cfg.SegmentLength = f.segmentLength
	cfg.VMAFSampleCount = f.vmafSampleCount
	cfg.VMAFSampleLength = f.vmafSampleLength
	cfg.LogLevel = f.logLevel
	cfg.LogFile = f.logFile

	cfg.TempDir = f.tempDir
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Dir(inputPath)
	}
	cfg.WorkingDir = f.workingDir
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = filepath.Join(filepath.Dir(pairs[0].OutputPath), "work")
	}

	if err := cfg.Validate(); err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	for _, p := range pairs {
		if err := util.EnsureDirectory(filepath.Dir(p.OutputPath)); err != nil {
			return errors.NewInvalidInputError(fmt.Sprintf("failed to create output directory: %v", err))
		}
	}
	if err := util.EnsureDirectory(cfg.WorkingDir); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("failed to create working directory: %v", err))
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	logDir := ""
	if cfg.LogFile == "" {
		logDir = filepath.Join(cfg.WorkingDir, "logs")
	}
	log, err := logging.New(logDir, level, cfg.LogFile, false)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = log.Close() }()

	rep := reporter.NewTerminalReporter()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	results, err := orchestrator.ProcessFiles(ctx, cfg, pairs, log, rep)
	if err != nil {
		return err
	}
	if len(results) != len(pairs) {
		return fmt.Errorf("%d of %d files failed to encode", len(pairs)-len(results), len(pairs))
	}
	return nil
}

// resolveFilePairs expands inputPath (file or directory) into the list of
// input/output pairs the orchestrator processes, following the CLI's
// output-path resolution rules.
func resolveFilePairs(inputPath string, inputInfo os.FileInfo, outputArg string) ([]orchestrator.FilePair, error) {
	if inputInfo.IsDir() {
		files, err := discovery.FindVideoFiles(inputPath)
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		info, err := util.ResolveOutputArg(inputPath, outputArg)
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		pairs := make([]orchestrator.FilePair, len(files))
		for i, f := range files {
			pairs[i] = orchestrator.FilePair{
				InputPath:  f,
				OutputPath: util.ResolveOutputPath(f, info.OutputDir, ""),
			}
		}
		return pairs, nil
	}

	info, err := util.ResolveOutputArg(inputPath, outputArg)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return []orchestrator.FilePair{{
		InputPath:  inputPath,
		OutputPath: util.ResolveOutputPath(inputPath, info.OutputDir, info.FilenameOverride),
	}}, nil
}
