package orchestrator

import (
	"fmt"
	"strings"

	"github.com/five82/drapto2/internal/audio"
	"github.com/five82/drapto2/internal/probe"
)

// formatAudioDescription summarizes the probed (pre-encode) audio streams
// for the initialization and config display events.
func formatAudioDescription(streams []probe.AudioStreamInfo) string {
	if len(streams) == 0 {
		return "No audio"
	}
	if len(streams) == 1 {
		return fmt.Sprintf("%d channels", streams[0].Channels)
	}
	var parts []string
	for i, s := range streams {
		parts = append(parts, fmt.Sprintf("Stream %d (%dch)", i, s.Channels))
	}
	return fmt.Sprintf("%d streams: %s", len(streams), strings.Join(parts, ", "))
}

// formatAudioResult describes the actual encoded Opus layout for the
// encoding-complete event.
func formatAudioResult(layout audio.Layout) string {
	return fmt.Sprintf("Opus %dch @ %s", layout.Channels, layout.Bitrate)
}
