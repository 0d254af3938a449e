// Package crop implements the Crop Analyzer stage: parallel ffmpeg
// cropdetect sampling across the input's duration, reduced to a single
// crop decision by most-frequent-candidate-wins with first-seen tie-break.
package crop

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"sync"

	"github.com/five82/drapto2/internal/model"
)

const sampleConcurrency = 8

// sampleIntervalSecs is the spacing between cropdetect samples within the
// retained interior, after the credits-skip windows are applied.
const sampleIntervalSecs = 5.0

// blackLevelThreshold returns the cropdetect luma threshold for a dynamic
// range classification.
func blackLevelThreshold(r model.DynamicRange) int {
	switch r {
	case model.RangeHDR10:
		return 64
	case model.RangeHLG:
		return 56
	case model.RangeSMPTE428, model.RangeDolbyVision:
		return 48
	default:
		return 24
	}
}

// creditsSkipWindow returns the head/tail durations, in seconds, excluded
// from crop sampling to avoid black bars or letterboxing skewed by opening
// or closing credits. The windows widen with total duration.
func creditsSkipWindow(durationSecs float64) (head, tail float64) {
	switch {
	case durationSecs <= 1800:
		return 30, 60
	case durationSecs <= 3600:
		return 60, 120
	default:
		return 120, 180
	}
}

// sampleOffsets returns the timestamps, in seconds, at which to sample
// cropdetect: every sampleIntervalSecs within the interior retained after
// excluding the credits-skip head/tail windows for durationSecs. Falls back
// to a single sample at the midpoint if the retained interior is too short
// to hold even one interval.
func sampleOffsets(durationSecs float64) []float64 {
	head, tail := creditsSkipWindow(durationSecs)

	interiorStart := head
	interiorEnd := durationSecs - tail

	var offsets []float64
	for off := interiorStart; off < interiorEnd; off += sampleIntervalSecs {
		offsets = append(offsets, off)
	}
	if len(offsets) == 0 {
		mid := durationSecs / 2
		if mid < 0 {
			mid = 0
		}
		offsets = []float64{mid}
	}
	return offsets
}

var cropRegex = regexp.MustCompile(`crop=(\d+):(\d+):(\d+):(\d+)`)

type candidate struct {
	w, h, x, y int
}

func (c candidate) key() string { return fmt.Sprintf("%d:%d:%d:%d", c.w, c.h, c.x, c.y) }

// Sampler runs ffmpeg cropdetect over a short window starting at a given
// offset. DefaultSampler shells out to the real ffmpeg binary.
type Sampler interface {
	Sample(ctx context.Context, inputPath string, startSecs float64, threshold int) (candidate, bool, error)
}

// DefaultSampler invokes ffmpeg's cropdetect filter on ten frames starting
// at startSecs.
type DefaultSampler struct{}

func (DefaultSampler) Sample(ctx context.Context, inputPath string, startSecs float64, threshold int) (candidate, bool, error) {
	args := []string{
		"-hide_banner", "-ss", fmt.Sprintf("%.3f", startSecs), "-i", inputPath,
		"-vframes", "10", "-vf", fmt.Sprintf("cropdetect=limit=%d:round=2:reset=1", threshold),
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return candidate{}, false, err
	}
	if err := cmd.Start(); err != nil {
		return candidate{}, false, err
	}

	var last candidate
	found := false
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		m := cropRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var c candidate
		fmt.Sscanf(m[1], "%d", &c.w)
		fmt.Sscanf(m[2], "%d", &c.h)
		fmt.Sscanf(m[3], "%d", &c.x)
		fmt.Sscanf(m[4], "%d", &c.y)
		last = c
		found = true
	}
	_ = cmd.Wait()
	return last, found, nil
}

// Detect samples the input every sampleIntervalSecs within the interior
// retained after excluding the duration-bucketed credits-skip head/tail
// windows, reduces the candidates to the most frequent crop (ties broken
// by first-seen order), and applies the even-dimension and small-inset
// rules.
func Detect(ctx context.Context, sampler Sampler, inputPath string, info *model.VideoStreamInfo, disableCrop bool) (model.CropInfo, error) {
	if disableCrop || info.DurationSecs <= 0 {
		return model.CropInfo{Width: info.Width, Height: info.Height, Enabled: false}, nil
	}

	threshold := blackLevelThreshold(model.RangeSDR)
	if info.HDR != nil {
		threshold = blackLevelThreshold(info.HDR.Range)
	}

	offsets := sampleOffsets(info.DurationSecs)

	type sampleResult struct {
		order int
		c     candidate
		ok    bool
	}

	results := make([]sampleResult, len(offsets))
	sem := make(chan struct{}, sampleConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, offset := range offsets {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, offset float64) {
			defer wg.Done()
			defer func() { <-sem }()
			c, ok, err := sampler.Sample(ctx, inputPath, offset, threshold)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			results[idx] = sampleResult{order: idx, c: c, ok: ok}
		}(i, offset)
	}
	wg.Wait()
	if firstErr != nil {
		return model.CropInfo{}, firstErr
	}

	counts := map[string]int{}
	firstSeenOrder := map[string]int{}
	firstSeenCandidate := map[string]candidate{}
	for _, r := range results {
		if !r.ok {
			continue
		}
		k := r.c.key()
		counts[k]++
		if _, seen := firstSeenOrder[k]; !seen {
			firstSeenOrder[k] = r.order
			firstSeenCandidate[k] = r.c
		}
	}

	if len(counts) == 0 {
		return model.CropInfo{Width: info.Width, Height: info.Height, Enabled: false}, nil
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return firstSeenOrder[keys[i]] < firstSeenOrder[keys[j]]
	})

	winner := firstSeenCandidate[keys[0]]
	return buildCropInfo(winner, info), nil
}

func buildCropInfo(c candidate, info *model.VideoStreamInfo) model.CropInfo {
	w, h, x, y := evenDown(c.w), evenDown(c.h), evenDown(c.x), evenDown(c.y)
	if w > info.Width {
		w = info.Width
	}
	if h > info.Height {
		h = info.Height
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	insetX := info.Width - w
	insetY := info.Height - h
	if insetX < 10 && insetY < 10 {
		return model.CropInfo{Width: info.Width, Height: info.Height, Enabled: false}
	}

	return model.CropInfo{X: x, Y: y, Width: w, Height: h, Enabled: true}
}

func evenDown(v int) int {
	if v%2 != 0 {
		v--
	}
	if v < 0 {
		return 0
	}
	return v
}
