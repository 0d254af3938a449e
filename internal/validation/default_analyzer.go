package validation

import (
	"encoding/json"
	"os/exec"

	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/probe"
)

// DefaultAnalyzer implements MediaAnalyzer using the probe package and a
// direct ffprobe codec query.
type DefaultAnalyzer struct {
	prober probe.Prober
}

// NewDefaultAnalyzer creates a new DefaultAnalyzer instance.
func NewDefaultAnalyzer() *DefaultAnalyzer {
	return &DefaultAnalyzer{prober: probe.DefaultProber{}}
}

// GetVideoProperties returns video stream properties via probe.Classify.
func (a *DefaultAnalyzer) GetVideoProperties(path string) (*AnalyzerVideoProperties, error) {
	info, _, err := probe.Classify(a.prober, path)
	if err != nil {
		return nil, err
	}
	bitDepth := uint8(info.BitDepth)
	return &AnalyzerVideoProperties{
		Width:        uint32(info.Width),
		Height:       uint32(info.Height),
		DurationSecs: info.DurationSecs,
		BitDepth:     &bitDepth,
	}, nil
}

// GetAudioStreams returns audio stream information via probe.Classify.
func (a *DefaultAnalyzer) GetAudioStreams(path string) ([]AnalyzerAudioStream, error) {
	_, audioStreams, err := probe.Classify(a.prober, path)
	if err != nil {
		return nil, err
	}
	result := make([]AnalyzerAudioStream, len(audioStreams))
	for i, s := range audioStreams {
		result[i] = AnalyzerAudioStream{Codec: s.CodecName, Channels: s.Channels}
	}
	return result, nil
}

type codecProbeResult struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// GetVideoCodec returns the video codec name via a direct ffprobe query.
func (a *DefaultAnalyzer) GetVideoCodec(path string) (string, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return "", errors.NewToolNotFoundError("ffprobe")
	}
	out, err := exec.Command("ffprobe", "-v", "quiet", "-select_streams", "v:0",
		"-show_entries", "stream=codec_name", "-of", "json", path).Output()
	if err != nil {
		return "", errors.WrapExecError("ffprobe", err, "")
	}
	var parsed codecProbeResult
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", errors.Wrap(errors.InvalidStream, "failed to parse ffprobe codec output", err)
	}
	if len(parsed.Streams) == 0 {
		return "", errors.NewInvalidStreamError("no video stream found")
	}
	return parsed.Streams[0].CodecName, nil
}

// GetHDRInfo returns HDR detection information via probe.Classify.
func (a *DefaultAnalyzer) GetHDRInfo(path string) (*AnalyzerHDRInfo, error) {
	info, _, err := probe.Classify(a.prober, path)
	if err != nil {
		return nil, err
	}
	bitDepth := uint8(info.BitDepth)
	return &AnalyzerHDRInfo{IsHDR: info.IsHDR, BitDepth: &bitDepth}, nil
}

// IsHDRDetectionAvailable returns whether mediainfo is on PATH.
func (a *DefaultAnalyzer) IsHDRDetectionAvailable() bool {
	_, err := exec.LookPath("mediainfo")
	return err == nil
}
