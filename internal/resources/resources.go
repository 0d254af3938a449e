// Package resources implements the Resource Monitor stage: an admission
// check run once before a job starts, gating on free disk space, CPU load,
// and memory headroom, plus a capability query for hardware-accelerated
// decode (used only for the decode side of the single-pass encode
// invocation; the encoder itself is always software SVT-AV1).
package resources

import (
	"fmt"
	"os/exec"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/five82/drapto2/internal/errors"
)

// Thresholds configures the admission check. Zero values fall back to the
// package defaults.
type Thresholds struct {
	MinFreeDiskBytes uint64  // default 50 GiB
	MaxCPUPercent    float64 // default 85
	MaxMemPercent    float64 // default 85
}

const (
	defaultMinFreeDiskBytes uint64  = 50 * 1 << 30
	defaultMaxCPUPercent    float64 = 85
	defaultMaxMemPercent    float64 = 85
)

func (t Thresholds) withDefaults() Thresholds {
	if t.MinFreeDiskBytes == 0 {
		t.MinFreeDiskBytes = defaultMinFreeDiskBytes
	}
	if t.MaxCPUPercent == 0 {
		t.MaxCPUPercent = defaultMaxCPUPercent
	}
	if t.MaxMemPercent == 0 {
		t.MaxMemPercent = defaultMaxMemPercent
	}
	return t
}

// ProjectedFootprint estimates the disk footprint of chunked encoding for
// an input of the given size: the source itself, plus the decoded segment
// set (roughly input_size/segment_length worth of re-encoded data), scaled
// by a safety buffer factor.
func ProjectedFootprint(inputSizeBytes uint64, segmentLengthSecs int, bufferFactor float64) uint64 {
	if segmentLengthSecs <= 0 {
		segmentLengthSecs = 1
	}
	factor := 1.0 + 1.0/float64(segmentLengthSecs)
	return uint64(float64(inputSizeBytes) * factor * bufferFactor)
}

// CheckAdmission runs the admission gate for workDir's filesystem given the
// projected footprint of the job about to start. It returns an
// InsufficientResources error on any threshold breach; callers must treat
// this as fatal and must never auto-wait/retry.
func CheckAdmission(workDir string, projectedFootprintBytes uint64, thresholds Thresholds) error {
	t := thresholds.withDefaults()

	usage, err := disk.Usage(workDir)
	if err != nil {
		return errors.Wrap(errors.InsufficientResources, "failed to read disk usage", err)
	}
	if usage.Free < t.MinFreeDiskBytes+projectedFootprintBytes {
		return errors.NewInsufficientResourcesError(fmt.Sprintf(
			"insufficient disk space: %d bytes free, need %d bytes free plus %d bytes projected footprint",
			usage.Free, t.MinFreeDiskBytes, projectedFootprintBytes))
	}

	cpuPercents, err := cpu.Percent(0, false)
	if err == nil && len(cpuPercents) > 0 && cpuPercents[0] > t.MaxCPUPercent {
		return errors.NewInsufficientResourcesError(fmt.Sprintf(
			"CPU usage %.1f%% exceeds admission threshold %.1f%%", cpuPercents[0], t.MaxCPUPercent))
	}

	vm, err := mem.VirtualMemory()
	if err == nil && vm.UsedPercent > t.MaxMemPercent {
		return errors.NewInsufficientResourcesError(fmt.Sprintf(
			"memory usage %.1f%% exceeds admission threshold %.1f%%", vm.UsedPercent, t.MaxMemPercent))
	}

	return nil
}

// HardwareDecodeAvailable reports whether ffmpeg can be asked to use
// hardware-accelerated decode (-hwaccel auto). This is a capability query
// only: the encoder itself is always software SVT-AV1.
func HardwareDecodeAvailable() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}
	out, err := exec.Command("ffmpeg", "-hide_banner", "-hwaccels").Output()
	if err != nil {
		return false
	}
	return len(out) > 0
}
