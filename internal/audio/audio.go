// Package audio implements the Audio Encoder stage: re-encoding the
// first audio stream to Opus with a channel-appropriate bitrate/layout,
// then re-probing the result to confirm it.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/five82/drapto2/internal/errors"
)

// Layout is the channel-appropriate Opus target for an input stream.
type Layout struct {
	Channels int
	Name     string // ffmpeg channel_layout value
	Bitrate  string // e.g. "128k"
	Downmix  bool
}

// SelectLayout maps an input channel count to its Opus bitrate/layout.
// Anything other than 1, 2, 6, or 8 channels downmixes to stereo.
func SelectLayout(channels int) Layout {
	switch channels {
	case 1:
		return Layout{Channels: 1, Name: "mono", Bitrate: "64k"}
	case 2:
		return Layout{Channels: 2, Name: "stereo", Bitrate: "128k"}
	case 6:
		return Layout{Channels: 6, Name: "5.1", Bitrate: "256k"}
	case 8:
		return Layout{Channels: 8, Name: "7.1", Bitrate: "384k"}
	default:
		return Layout{Channels: 2, Name: "stereo", Bitrate: "128k", Downmix: true}
	}
}

// StreamInfo is the subset of probed audio-stream data the encoder needs.
type StreamInfo struct {
	Channels      int
	CodecName     string
	ChannelLayout string
}

// Prober retrieves the first audio stream's info.
type Prober interface {
	ProbeAudio(path string) (StreamInfo, error)
}

// DefaultProber queries ffprobe directly for the first audio stream.
type DefaultProber struct{}

type ffprobeAudioOutput struct {
	Streams []struct {
		CodecName     string `json:"codec_name"`
		Channels      int    `json:"channels"`
		ChannelLayout string `json:"channel_layout"`
	} `json:"streams"`
}

func (DefaultProber) ProbeAudio(path string) (StreamInfo, error) {
	out, err := exec.Command("ffprobe", "-v", "quiet", "-select_streams", "a:0",
		"-show_entries", "stream=codec_name,channels,channel_layout",
		"-of", "json", path).Output()
	if err != nil {
		return StreamInfo{}, errors.WrapExecError("ffprobe", err, "")
	}
	var parsed ffprobeAudioOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return StreamInfo{}, errors.Wrap(errors.InvalidStream, "failed to parse ffprobe audio output", err)
	}
	if len(parsed.Streams) == 0 {
		return StreamInfo{}, errors.NewInvalidStreamError("no audio stream found")
	}
	s := parsed.Streams[0]
	return StreamInfo{Channels: s.Channels, CodecName: s.CodecName, ChannelLayout: s.ChannelLayout}, nil
}

// Encode re-encodes the first audio stream of inputPath to Opus at
// outputPath, selecting bitrate/layout from the probed channel count,
// then re-probes outputPath to confirm codec, channel count, and layout.
func Encode(ctx context.Context, prober Prober, inputPath, outputPath string) (Layout, error) {
	info, err := prober.ProbeAudio(inputPath)
	if err != nil {
		return Layout{}, errors.NewAudioEncodeFailedError("failed to probe input audio stream", err)
	}

	layout := SelectLayout(info.Channels)

	args := []string{
		"-hide_banner", "-y", "-i", inputPath,
		"-map", "0:a:0", "-vn", "-sn",
		"-c:a", "libopus", "-b:a", layout.Bitrate, "-vbr", "on", "-compression_level", "10",
		"-frame_duration", "20", "-avoid_negative_ts", "make_zero",
	}
	if layout.Downmix {
		args = append(args, "-ac", "2")
	}
	args = append(args, "-f", "matroska", outputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Layout{}, errors.NewAudioEncodeFailedError("ffmpeg opus encode failed: "+string(out), err)
	}

	if stat, err := os.Stat(outputPath); err != nil || stat.Size() == 0 {
		return Layout{}, errors.NewAudioEncodeFailedError("opus encode produced an empty or missing output file", err)
	}

	result, err := prober.ProbeAudio(outputPath)
	if err != nil {
		return Layout{}, errors.NewAudioEncodeFailedError("failed to probe encoded audio output", err)
	}
	if result.CodecName != "opus" {
		return Layout{}, errors.NewAudioEncodeFailedError(
			fmt.Sprintf("encoded output codec is %q, want opus", result.CodecName), nil)
	}
	if result.Channels != layout.Channels {
		return Layout{}, errors.NewAudioEncodeFailedError(
			fmt.Sprintf("encoded output has %d channels, want %d", result.Channels, layout.Channels), nil)
	}
	if result.ChannelLayout != "" && result.ChannelLayout != layout.Name {
		return Layout{}, errors.NewAudioEncodeFailedError(
			fmt.Sprintf("encoded output channel layout is %q, want %q", result.ChannelLayout, layout.Name), nil)
	}

	return layout, nil
}
