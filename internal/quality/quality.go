// Package quality implements the Quality Planner stage: turns a probed
// stream's resolution and frame rate into a concrete CRF, preset, and
// bitrate ceiling, plus the SVT-AV1 parameter string that encodes them.
package quality

const (
	crfSD  = 25 // resolutions at or below 1080p
	crfUHD = 29 // resolutions above 1080p

	sdCeilingBitrate  = 4_000_000
	hdCeilingBitrate  = 8_000_000
	uhdCeilingBitrate = 16_000_000

	heightSDMax = 1080
	widthHDMin  = 1920
	widthUHDMin = 3840

	defaultPreset = 6
	maxPreset     = 13
)

// Plan derives a QualitySettings-shaped result for a stream of the given
// dimensions and frame rate. preset is clamped into [0,13] (a negative
// value becomes 0, not the default); a caller with no explicit override
// passes defaultPreset (6).
func Plan(width, height int, fps float64, preset int) (crf, clampedPreset, maxBitrate, bufSize int, svtParams string) {
	crf = crfFor(height)
	clampedPreset = ClampPreset(preset)
	maxBitrate = bitrateCeiling(width, fps)
	bufSize = maxBitrate * 2
	svtParams = buildSVTParams()
	return
}

func crfFor(height int) int {
	if height > heightSDMax {
		return crfUHD
	}
	return crfSD
}

// ClampPreset clamps an SVT-AV1 preset value into [0,13].
func ClampPreset(preset int) int {
	if preset < 0 {
		return 0
	}
	if preset > maxPreset {
		return maxPreset
	}
	return preset
}

func bitrateCeiling(width int, fps float64) int {
	var base int
	switch {
	case width >= widthUHDMin:
		base = uhdCeilingBitrate
	case width >= widthHDMin:
		base = hdCeilingBitrate
	default:
		base = sdCeilingBitrate
	}
	if fps > 30 {
		base = int(float64(base) * 1.5)
	}
	return base
}

// buildSVTParams renders the SVT-AV1 `--svtav1-params` colon-joined string
// shared by every encode invocation (chunked and single-pass): tune, the
// keyframe interval, and quantization matrices. It carries no VMAF
// parameters.
func buildSVTParams() string {
	return "tune=0:keyint=10s:enable-qm=1"
}

// Category classifies a stream's resolution class for display purposes:
// "SD" below 1920 wide, "HD" from 1920 up to but excluding 3840, "UHD" at
// or above 3840 wide.
func Category(width int) string {
	switch {
	case width >= widthUHDMin:
		return "UHD"
	case width >= widthHDMin:
		return "HD"
	default:
		return "SD"
	}
}
