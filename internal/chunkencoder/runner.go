package chunkencoder

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/five82/drapto2/internal/errors"
)

// DefaultRunner drives one attempt via the real ab-av1 auto-encode
// subcommand: a VMAF-guided wrapper around libsvtav1 that iterates its own
// internal CRF search until the sampled VMAF clears --min-vmaf, or gives
// up and exits non-zero.
type DefaultRunner struct{}

func (DefaultRunner) Run(ctx context.Context, p AttemptParams) error {
	args := []string{
		"auto-encode",
		"--input", p.InputPath,
		"--output", p.OutputPath,
		"--encoder", "libsvtav1",
		"--min-vmaf", fmt.Sprintf("%g", p.Tier.MinVMAF),
		"--preset", fmt.Sprintf("%d", p.Preset),
		"--svt", p.SVTParams,
		"--keyint", fmt.Sprintf("%ds", p.KeyintSecs),
		"--samples", fmt.Sprintf("%d", p.Tier.Samples),
		"--sample-duration", fmt.Sprintf("%ds", p.Tier.SampleDurationSecs),
		"--vmaf", fmt.Sprintf("n_subsample=%d:pool=%s", p.Subsample, p.VMAFPool),
		"--quiet",
	}
	if p.CropFilter != "" {
		args = append(args, "--vfilter", p.CropFilter)
	}

	cmd := exec.CommandContext(ctx, "ab-av1", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.WrapExecError("ab-av1 auto-encode", err, string(out))
	}
	return nil
}
