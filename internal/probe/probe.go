// Package probe implements the Probe & Classify stage: it runs the media
// prober and the media-info tool against the input, and turns their output
// into a model.VideoStreamInfo with dynamic-range classification applied.
package probe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/model"
)

// ffprobeOutput mirrors the shape of `ffprobe -print_format json
// -show_format -show_streams`.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	Index             int    `json:"index"`
	CodecType         string `json:"codec_type"`
	CodecName         string `json:"codec_name"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	RFrameRate        string `json:"r_frame_rate"`
	PixFmt            string `json:"pix_fmt"`
	BitsPerRawSample  string `json:"bits_per_raw_sample"`
	ColorPrimaries    string `json:"color_primaries"`
	ColorTransfer     string `json:"color_transfer"`
	ColorSpace        string `json:"color_space"`
	Channels          int    `json:"channels"`
	NbFrames          string `json:"nb_frames"`
}

// AudioStreamInfo describes one probed audio stream.
type AudioStreamInfo struct {
	Index    int
	Channels int
	CodecName string
}

// Prober runs external media-probing tools. DefaultProber shells out to
// ffprobe and mediainfo; tests substitute a fake.
type Prober interface {
	ProbeFormat(inputPath string) (*ffprobeOutput, error)
	ProbeDolbyVision(inputPath string) (bool, error)
}

// DefaultProber invokes the real ffprobe/mediainfo binaries on PATH.
type DefaultProber struct{}

func (DefaultProber) ProbeFormat(inputPath string) (*ffprobeOutput, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, errors.NewToolNotFoundError("ffprobe")
	}
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", inputPath)
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.WrapExecError("ffprobe", err, "")
	}
	var result ffprobeOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, errors.Wrap(errors.InvalidStream, "failed to parse ffprobe output", err)
	}
	return &result, nil
}

// ProbeDolbyVision uses mediainfo to check for a Dolby Vision HDR format
// tag, since ffprobe alone cannot distinguish DV from HDR10.
func (DefaultProber) ProbeDolbyVision(inputPath string) (bool, error) {
	if _, err := exec.LookPath("mediainfo"); err != nil {
		// mediainfo is optional: DV detection degrades to "not DV" rather
		// than failing the whole probe.
		return false, nil
	}
	cmd := exec.Command("mediainfo", "--Output=JSON", inputPath)
	out, err := cmd.Output()
	if err != nil {
		return false, nil
	}
	return strings.Contains(strings.ToLower(string(out)), "dolby vision"), nil
}

// Classify runs the full Probe & Classify stage: probes the input, selects
// the primary video and audio streams, validates ranges, and applies the
// HDR classification precedence.
func Classify(p Prober, inputPath string) (*model.VideoStreamInfo, []AudioStreamInfo, error) {
	out, err := p.ProbeFormat(inputPath)
	if err != nil {
		return nil, nil, err
	}

	var vs *ffprobeStream
	var audioStreams []AudioStreamInfo
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			if vs == nil {
				vs = s
			}
		case "audio":
			audioStreams = append(audioStreams, AudioStreamInfo{
				Index:     s.Index,
				Channels:  s.Channels,
				CodecName: s.CodecName,
			})
		}
	}
	if vs == nil {
		return nil, nil, errors.NewInvalidStreamError("no video stream found")
	}

	info, err := buildStreamInfo(vs, out.Format.Duration)
	if err != nil {
		return nil, nil, err
	}

	isDV, _ := p.ProbeDolbyVision(inputPath)
	info.HDR = classifyHDR(info, isDV)
	info.IsDolbyVision = info.HDR.Range == model.RangeDolbyVision
	info.IsHDR = info.HDR.Range != model.RangeSDR

	return info, audioStreams, nil
}

func buildStreamInfo(s *ffprobeStream, durationStr string) (*model.VideoStreamInfo, error) {
	if s.Width < 16 || s.Width > 8192 || s.Height < 16 || s.Height > 8192 {
		return nil, errors.NewInvalidStreamError(
			fmt.Sprintf("resolution %dx%d out of accepted range [16,8192]", s.Width, s.Height))
	}

	num, den, err := parseRFrameRate(s.RFrameRate)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidStream, "failed to parse frame rate", err)
	}
	fps := float64(num) / float64(den)
	if fps < 1 || fps > 300 {
		return nil, errors.NewInvalidStreamError(fmt.Sprintf("frame rate %.3f out of accepted range [1,300]", fps))
	}

	bitDepth, err := parseBitDepth(s.PixFmt, s.BitsPerRawSample)
	if err != nil {
		return nil, err
	}

	duration, _ := strconv.ParseFloat(durationStr, 64)

	return &model.VideoStreamInfo{
		Width:          s.Width,
		Height:         s.Height,
		FPSNum:         num,
		FPSDen:         den,
		BitDepth:       bitDepth,
		ColorTransfer:  s.ColorTransfer,
		ColorPrimaries: s.ColorPrimaries,
		ColorSpace:     s.ColorSpace,
		DurationSecs:   duration,
	}, nil
}

func parseRFrameRate(s string) (int, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed frame rate %q", s)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if den == 0 {
		return 0, 0, fmt.Errorf("frame rate denominator is zero")
	}
	return num, den, nil
}

// parseBitDepth derives bit depth from bits_per_raw_sample when present,
// otherwise from the pixel format suffix convention (p10 -> 10, p12 -> 12,
// p16 -> rejected, else 8).
func parseBitDepth(pixFmt, bitsPerRawSample string) (int, error) {
	if bitsPerRawSample != "" {
		if v, err := strconv.Atoi(bitsPerRawSample); err == nil && v > 0 {
			return validateBitDepth(v)
		}
	}
	lower := strings.ToLower(pixFmt)
	switch {
	case strings.Contains(lower, "p10") || strings.Contains(lower, "10le") || strings.Contains(lower, "10be"):
		return validateBitDepth(10)
	case strings.Contains(lower, "p12") || strings.Contains(lower, "12le") || strings.Contains(lower, "12be"):
		return validateBitDepth(12)
	case strings.Contains(lower, "p16") || strings.Contains(lower, "16le") || strings.Contains(lower, "16be"):
		return 0, errors.NewInvalidStreamError("16-bit pixel formats are not accepted")
	default:
		return validateBitDepth(8)
	}
}

func validateBitDepth(v int) (int, error) {
	switch v {
	case 8, 10, 12:
		return v, nil
	default:
		return 0, errors.NewInvalidStreamError(fmt.Sprintf("bit depth %d not in accepted set {8,10,12}", v))
	}
}

// classifyHDR applies the precedence order: Dolby Vision wins outright,
// then HDR10 (smpte2084 transfer + bt2020 primaries), then HLG
// (arib-std-b67/hlg transfer), then SMPTE428, else SDR.
func classifyHDR(info *model.VideoStreamInfo, isDV bool) *model.HDRInfo {
	transfer := strings.ToLower(info.ColorTransfer)
	primaries := strings.ToLower(info.ColorPrimaries)

	var r model.DynamicRange
	switch {
	case isDV:
		r = model.RangeDolbyVision
	case strings.Contains(transfer, "smpte2084") && strings.Contains(primaries, "bt2020"):
		r = model.RangeHDR10
	case strings.Contains(transfer, "arib-std-b67") || strings.Contains(transfer, "hlg"):
		r = model.RangeHLG
	case strings.Contains(transfer, "smpte428"):
		r = model.RangeSMPTE428
	default:
		r = model.RangeSDR
	}

	return &model.HDRInfo{
		Range:      r,
		BlackLevel: model.ClampBlackLevel(model.DefaultBlackLevel(r)),
	}
}
