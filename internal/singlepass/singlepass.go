// Package singlepass implements the Dolby-Vision alternate branch: a
// single libsvtav1 invocation with DV-preserving color metadata, bypassing
// the chunked pipeline entirely. Audio, mux, and validation are shared
// with the chunked path.
package singlepass

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/model"
)

// Params is everything a single-pass Dolby Vision encode needs.
type Params struct {
	InputPath  string
	OutputPath string
	CropFilter string
	Quality    model.QualitySettings
	HWAccel    string // "" disables the hardware-decode prelude
}

const dvSVTParams = "enable-hdr=1:enable-qm=1:film-grain=8"

// Runner drives one single-pass encode invocation.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// DefaultRunner shells out to the real ffmpeg binary.
type DefaultRunner struct{}

func (DefaultRunner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.WrapExecError("ffmpeg", err, string(out))
	}
	return nil
}

// Encode runs the single-pass Dolby Vision branch: one libsvtav1
// invocation with DV-preserving color metadata, pixel format
// yuv420p10le, and the required HDR/quantization-matrix/film-grain SVT
// parameters, then confirms the output file is non-empty.
func Encode(ctx context.Context, runner Runner, p Params) error {
	args := buildArgs(p)
	if err := runner.Run(ctx, args); err != nil {
		return err
	}

	info, err := os.Stat(p.OutputPath)
	if err != nil || info.Size() == 0 {
		return errors.Wrap(errors.ToolFailed, "single-pass encode produced an empty or missing output file", err)
	}
	return nil
}

// buildArgs constructs the ffmpeg argument list: DV color metadata
// (bt2020/smpte2084/bt2020nc), yuv420p10le, the crop filter if present,
// and an optional hardware-acceleration decode prelude.
func buildArgs(p Params) []string {
	args := []string{"-hide_banner", "-y"}
	if p.HWAccel != "" {
		args = append(args, "-hwaccel", p.HWAccel)
	}
	args = append(args, "-i", p.InputPath)

	if p.CropFilter != "" {
		args = append(args, "-vf", p.CropFilter)
	}

	args = append(args,
		"-c:v", "libsvtav1",
		"-preset", fmt.Sprintf("%d", p.Quality.Preset),
		"-crf", fmt.Sprintf("%d", p.Quality.CRF),
		"-b:v", fmt.Sprintf("%d", p.Quality.MaxBitrate),
		"-maxrate", fmt.Sprintf("%d", p.Quality.MaxBitrate),
		"-bufsize", fmt.Sprintf("%d", p.Quality.BufSize),
		"-pix_fmt", "yuv420p10le",
		"-color_primaries", "bt2020",
		"-color_trc", "smpte2084",
		"-colorspace", "bt2020nc",
		"-svtav1-params", dvSVTParams,
		"-an", "-sn",
		p.OutputPath,
	)
	return args
}
