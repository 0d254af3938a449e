package singlepass

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/drapto2/internal/model"
)

type fakeRunner struct {
	args      []string
	writeFile string
	fail      bool
}

func (f *fakeRunner) Run(ctx context.Context, args []string) error {
	f.args = args
	if f.fail {
		return os.ErrInvalid
	}
	if f.writeFile != "" {
		return os.WriteFile(f.writeFile, []byte("data"), 0644)
	}
	return nil
}

func TestEncodeWritesOutputAndSucceeds(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mkv")
	runner := &fakeRunner{writeFile: out}

	err := Encode(context.Background(), runner, Params{
		InputPath:  filepath.Join(dir, "in.mkv"),
		OutputPath: out,
		Quality:    model.QualitySettings{CRF: 29, Preset: 6, MaxBitrate: 16_000_000, BufSize: 32_000_000},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
}

func TestEncodeFailsOnEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mkv")
	runner := &fakeRunner{}

	err := Encode(context.Background(), runner, Params{
		InputPath:  filepath.Join(dir, "in.mkv"),
		OutputPath: out,
		Quality:    model.QualitySettings{CRF: 29, Preset: 6},
	})
	if err == nil {
		t.Fatalf("expected error for missing output file")
	}
}

func TestEncodePropagatesRunnerError(t *testing.T) {
	runner := &fakeRunner{fail: true}
	err := Encode(context.Background(), runner, Params{
		InputPath:  "in.mkv",
		OutputPath: "out.mkv",
		Quality:    model.QualitySettings{CRF: 29, Preset: 6},
	})
	if err == nil {
		t.Fatalf("expected error from failing runner")
	}
}

func TestBuildArgsIncludesDVColorMetadataAndCrop(t *testing.T) {
	args := buildArgs(Params{
		InputPath:  "in.mkv",
		OutputPath: "out.mkv",
		CropFilter: "crop=1920:800:0:140",
		Quality:    model.QualitySettings{CRF: 29, Preset: 6, MaxBitrate: 16_000_000, BufSize: 32_000_000},
		HWAccel:    "videotoolbox",
	})

	want := []string{
		"-hide_banner", "-y",
		"-hwaccel", "videotoolbox",
		"-i", "in.mkv",
		"-vf", "crop=1920:800:0:140",
		"-c:v", "libsvtav1",
		"-preset", "6",
		"-crf", "29",
		"-b:v", "16000000",
		"-maxrate", "16000000",
		"-bufsize", "32000000",
		"-pix_fmt", "yuv420p10le",
		"-color_primaries", "bt2020",
		"-color_trc", "smpte2084",
		"-colorspace", "bt2020nc",
		"-svtav1-params", dvSVTParams,
		"-an", "-sn",
		"out.mkv",
	}
	if len(args) != len(want) {
		t.Fatalf("arg count mismatch: got %d, want %d\ngot:  %v\nwant: %v", len(args), len(want), args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildArgsOmitsCropFilterAndHWAccelWhenEmpty(t *testing.T) {
	args := buildArgs(Params{
		InputPath:  "in.mkv",
		OutputPath: "out.mkv",
		Quality:    model.QualitySettings{CRF: 29, Preset: 6},
	})
	for _, a := range args {
		if a == "-vf" || a == "-hwaccel" {
			t.Fatalf("did not expect %q in args: %v", a, args)
		}
	}
}
