// Package segmenter implements the Segmenter stage: splitting the input
// into fixed-duration, stream-copied, audio-dropped chunks named
// %04d.mkv, then validating the result.
package segmenter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/five82/drapto2/internal/errors"
)

const minSegmentSizeBytes = 1024 // 1 KiB

// Prober checks a segment file's validity (e.g. with ffprobe).
type Prober interface {
	Probe(path string) error
}

// Segment splits inputPath into fixed-length, stream-copied, audio-dropped
// chunks under outDir, named 0000.mkv, 0001.mkv, ... It then validates the
// result (non-empty directory, each segment at least 1 KiB, and, when
// prober is non-nil, each segment probes successfully) and returns the
// ordered list of segment paths. A nil prober skips the probe check.
func Segment(ctx context.Context, inputPath, outDir string, segmentLengthSecs int, prober Prober) ([]string, error) {
	if segmentLengthSecs <= 0 {
		return nil, errors.NewInvalidInputError("segment length must be greater than 0")
	}

	pattern := filepath.Join(outDir, "%04d.mkv")
	args := []string{
		"-hide_banner", "-y", "-i", inputPath,
		"-map", "0:v:0", "-c", "copy", "-an",
		"-f", "segment", "-segment_time", fmt.Sprintf("%d", segmentLengthSecs),
		"-reset_timestamps", "1", "-avoid_negative_ts", "make_zero",
		pattern,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errors.NewSegmentationFailedError("ffmpeg segmentation failed: "+string(out), err)
	}

	segments, err := Validate(outDir, prober)
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// Validate re-checks an already-produced segment directory: it must be
// non-empty, every segment file must be at least 1 KiB, and, when prober
// is non-nil, every segment must probe successfully (a nil prober skips
// probing). Returns the sorted, lexicographically-ordered segment paths.
func Validate(outDir string, prober Prober) ([]string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, errors.NewSegmentationFailedError("failed to read segment directory", err)
	}

	var segments []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		segments = append(segments, filepath.Join(outDir, e.Name()))
	}
	if len(segments) == 0 {
		return nil, errors.NewSegmentationFailedError("segmentation produced no output files", nil)
	}

	sort.Strings(segments)

	for _, path := range segments {
		info, err := os.Stat(path)
		if err != nil || info.Size() < minSegmentSizeBytes {
			return nil, errors.NewSegmentationFailedError(
				fmt.Sprintf("segment %s is smaller than the %d byte minimum", path, minSegmentSizeBytes), err)
		}
		if prober != nil {
			if err := prober.Probe(path); err != nil {
				return nil, errors.NewSegmentationFailedError(fmt.Sprintf("segment %s failed to probe", path), err)
			}
		}
	}

	return segments, nil
}
