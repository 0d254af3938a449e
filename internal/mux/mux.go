// Package mux implements the Muxer stage: combining the encoded video,
// the encoded audio, and the original input's subtitles/attachments/
// chapters into the final Matroska, all streams copied.
package mux

import (
	"context"
	"os"
	"os/exec"

	"github.com/five82/drapto2/internal/errors"
)

// Mux combines videoPath (stream 0), audioPath (stream 1), and
// originalInputPath (stream 2, for subtitles/attachments/chapters) into
// outputPath, copying every stream with no re-encode.
func Mux(ctx context.Context, videoPath, audioPath, originalInputPath, outputPath string) error {
	args := buildArgs(videoPath, audioPath, originalInputPath, outputPath)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.NewMuxFailedError("ffmpeg mux failed: "+string(out), err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return errors.NewMuxFailedError("mux produced an empty or missing output file", err)
	}
	return nil
}

// buildArgs constructs the ffmpeg stream-mapping arguments:
// video from stream 0, audio from stream 1, subtitles/attachments/
// chapters from stream 2, all copied.
func buildArgs(videoPath, audioPath, originalInputPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-i", originalInputPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-map", "2:s?",
		"-map", "2:t?",
		"-map_chapters", "2",
		"-c", "copy",
		outputPath,
	}
}
