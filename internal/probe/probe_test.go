package probe

import (
	"testing"

	"github.com/five82/drapto2/internal/model"
)

type fakeProber struct {
	out *ffprobeOutput
	isDV bool
}

func (f fakeProber) ProbeFormat(string) (*ffprobeOutput, error) { return f.out, nil }
func (f fakeProber) ProbeDolbyVision(string) (bool, error)      { return f.isDV, nil }

func videoStream(w, h int, rate, pixFmt, transfer, primaries string) ffprobeStream {
	return ffprobeStream{
		CodecType:      "video",
		Width:          w,
		Height:         h,
		RFrameRate:     rate,
		PixFmt:         pixFmt,
		ColorTransfer:  transfer,
		ColorPrimaries: primaries,
	}
}

func TestClassifyBoundaryFrameRate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		rate    string
		wantErr bool
	}{
		{"exactly 1fps", "1/1", false},
		{"exactly 300fps", "300/1", false},
		{"just below 1fps", "1/2", true},
		{"just above 300fps", "301/1", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := fakeProber{out: &ffprobeOutput{Streams: []ffprobeStream{
				videoStream(1920, 1080, tt.rate, "yuv420p", "bt709", "bt709"),
			}}}
			_, _, err := Classify(p, "in.mkv")
			if (err != nil) != tt.wantErr {
				t.Fatalf("rate %s: err=%v, wantErr=%v", tt.rate, err, tt.wantErr)
			}
		})
	}
}

func TestClassifyBitDepth(t *testing.T) {
	for _, tt := range []struct {
		pixFmt  string
		wantErr bool
	}{
		{"yuv420p", false},
		{"yuv420p10le", false},
		{"yuv420p12le", false},
		{"yuv420p16le", true},
	} {
		p := fakeProber{out: &ffprobeOutput{Streams: []ffprobeStream{
			videoStream(1920, 1080, "24/1", tt.pixFmt, "bt709", "bt709"),
		}}}
		_, _, err := Classify(p, "in.mkv")
		if (err != nil) != tt.wantErr {
			t.Fatalf("pixfmt %s: err=%v, wantErr=%v", tt.pixFmt, err, tt.wantErr)
		}
	}
}

func TestClassifyHDRPrecedence(t *testing.T) {
	for _, tt := range []struct {
		name      string
		transfer  string
		primaries string
		isDV      bool
		want      model.DynamicRange
	}{
		{"dolby vision wins over hdr10 signaling", "smpte2084", "bt2020", true, model.RangeDolbyVision},
		{"hdr10", "smpte2084", "bt2020", false, model.RangeHDR10},
		{"hlg", "arib-std-b67", "bt2020", false, model.RangeHLG},
		{"smpte428", "smpte428", "bt2020", false, model.RangeSMPTE428},
		{"sdr", "bt709", "bt709", false, model.RangeSDR},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := fakeProber{
				out:  &ffprobeOutput{Streams: []ffprobeStream{videoStream(3840, 2160, "24/1", "yuv420p10le", tt.transfer, tt.primaries)}},
				isDV: tt.isDV,
			}
			info, _, err := Classify(p, "in.mkv")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.HDR.Range != tt.want {
				t.Fatalf("got range %v, want %v", info.HDR.Range, tt.want)
			}
		})
	}
}

func TestClassifyRejectsOutOfRangeResolution(t *testing.T) {
	p := fakeProber{out: &ffprobeOutput{Streams: []ffprobeStream{
		videoStream(8, 8, "24/1", "yuv420p", "bt709", "bt709"),
	}}}
	if _, _, err := Classify(p, "in.mkv"); err == nil {
		t.Fatalf("expected error for width/height below 16")
	}
}
