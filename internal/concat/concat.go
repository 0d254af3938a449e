// Package concat implements the Concatenator stage: joining encoded
// segments, in lexicographic order, losslessly into one intermediate
// container via an ffmpeg concat-demuxer manifest.
package concat

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/five82/drapto2/internal/errors"
)

// BuildManifest writes a concat-demuxer manifest listing segmentPaths in
// lexicographic order (segment completion order is not deterministic
// under the worker pool, so the manifest re-imposes it) and returns the
// manifest's path.
func BuildManifest(manifestDir string, segmentPaths []string) (string, error) {
	ordered := append([]string(nil), segmentPaths...)
	sort.Strings(ordered)

	var b strings.Builder
	for _, p := range ordered {
		b.WriteString(fmt.Sprintf("file '%s'\n", escapeSingleQuotes(p)))
	}

	manifestPath := filepath.Join(manifestDir, "concat.txt")
	if err := os.WriteFile(manifestPath, []byte(b.String()), 0644); err != nil {
		return "", errors.NewConcatFailedError("failed to write concat manifest", err)
	}
	return manifestPath, nil
}

func escapeSingleQuotes(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

// Concat joins the encoded segments into outputPath via ffmpeg's concat
// demuxer, stream-copying without re-encode.
func Concat(ctx context.Context, segmentDir, outputPath string, segmentPaths []string) error {
	manifestPath, err := BuildManifest(segmentDir, segmentPaths)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-y",
		"-f", "concat", "-safe", "0", "-i", manifestPath,
		"-c", "copy", outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.NewConcatFailedError("ffmpeg concat failed: "+string(out), err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return errors.NewConcatFailedError("concat produced an empty or missing output file", err)
	}
	return nil
}
