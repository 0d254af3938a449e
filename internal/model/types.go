// Package model holds the data types shared across every pipeline stage:
// probed stream info, crop and quality decisions, and the job/segment
// records persisted by the state tracker.
package model

import (
	"fmt"
	"time"
)

// DynamicRange classifies the transfer/primaries/matrix combination of a
// probed video stream.
type DynamicRange int

const (
	RangeSDR DynamicRange = iota
	RangeHDR10
	RangeHLG
	RangeSMPTE428
	RangeDolbyVision
)

func (r DynamicRange) String() string {
	switch r {
	case RangeHDR10:
		return "hdr10"
	case RangeHLG:
		return "hlg"
	case RangeSMPTE428:
		return "smpte428"
	case RangeDolbyVision:
		return "dolby_vision"
	default:
		return "sdr"
	}
}

// HDRInfo carries the dynamic-range classification and a black level. The
// crop analyzer's threshold table is keyed on Range alone.
type HDRInfo struct {
	Range      DynamicRange
	BlackLevel int
}

// DefaultBlackLevel returns the default black level for a dynamic range:
// 16 for SDR, 128 for any HDR variant.
func DefaultBlackLevel(r DynamicRange) int {
	if r == RangeSDR {
		return 16
	}
	return 128
}

// ClampBlackLevel clamps a black level into the valid [16,256] range.
func ClampBlackLevel(level int) int {
	if level < 16 {
		return 16
	}
	if level > 256 {
		return 256
	}
	return level
}

// VideoStreamInfo is the result of probing and classifying the input's
// primary video stream.
type VideoStreamInfo struct {
	Width               int
	Height              int
	FPSNum              int
	FPSDen              int
	BitDepth             int
	ColorTransfer        string
	ColorPrimaries       string
	ColorSpace           string
	IsHDR                bool
	IsDolbyVision        bool
	HDR                  *HDRInfo
	Crop                 *CropInfo
	Quality              *QualitySettings
	DurationSecs         float64
}

// FPS returns the frame rate as a float64, or 0 if FPSDen is 0.
func (v VideoStreamInfo) FPS() float64 {
	if v.FPSDen == 0 {
		return 0
	}
	return float64(v.FPSNum) / float64(v.FPSDen)
}

// CropInfo is the crop analyzer's decision for the source frame.
type CropInfo struct {
	X       int
	Y       int
	Width   int
	Height  int
	Enabled bool
}

// FilterString renders the ffmpeg crop filter, or "" if cropping is
// disabled.
func (c CropInfo) FilterString() string {
	if !c.Enabled {
		return ""
	}
	return fmt.Sprintf("crop=%d:%d:%d:%d", c.Width, c.Height, c.X, c.Y)
}

// QualitySettings is the quality planner's decision for a given stream.
type QualitySettings struct {
	CRF         int
	Preset      int
	MaxBitrate  int // bits/sec
	BufSize     int // bits/sec
	SVTParams   string
}

// JobStatus is the lifecycle state of an EncodingJob.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobInitializing
	JobPreparing
	JobEncoding
	JobFinalizing
	JobCompleted
	JobFailed
)

var jobStatusNames = map[JobStatus]string{
	JobPending:      "pending",
	JobInitializing: "initializing",
	JobPreparing:    "preparing",
	JobEncoding:     "encoding",
	JobFinalizing:   "finalizing",
	JobCompleted:    "completed",
	JobFailed:       "failed",
}

func (s JobStatus) String() string { return jobStatusNames[s] }

// ParseJobStatus parses the lowercase serialized form, returning JobFailed
// for any unrecognized value per the state tracker's recovery contract.
func ParseJobStatus(s string) JobStatus {
	for k, v := range jobStatusNames {
		if v == s {
			return k
		}
	}
	return JobFailed
}

// SegmentStatus is the lifecycle state of a Segment.
type SegmentStatus int

const (
	SegmentPending SegmentStatus = iota
	SegmentEncoding
	SegmentCompleted
	SegmentFailed
)

var segmentStatusNames = map[SegmentStatus]string{
	SegmentPending:   "pending",
	SegmentEncoding:  "encoding",
	SegmentCompleted: "completed",
	SegmentFailed:    "failed",
}

func (s SegmentStatus) String() string { return segmentStatusNames[s] }

// ParseSegmentStatus parses the lowercase serialized form, returning
// SegmentPending for any unrecognized value per the state tracker's
// recovery contract.
func ParseSegmentStatus(s string) SegmentStatus {
	for k, v := range segmentStatusNames {
		if v == s {
			return k
		}
	}
	return SegmentPending
}

// Strategy names the encoding path a job takes.
type Strategy string

const (
	StrategyChunked    Strategy = "chunked"
	StrategySinglePass Strategy = "single_pass"
)

// Progress tracks a job's or segment's encode progress.
type Progress struct {
	Percent      float64
	CurrentFrame int64
	TotalFrames  int64
	FPS          float64
	ETASeconds   float64
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// Segment is one fixed-duration chunk of the input, tracked from
// segmentation through its retry-escalator attempts to completion.
type Segment struct {
	Index           int
	InputPath       string
	OutputPath      string
	Status          SegmentStatus
	StartSecs       float64
	DurationSecs    float64
	TotalFrames     int64
	Progress        Progress
	StrategiesTried []string
	LastStrategy    string
	Error           string
}

// Attempts returns the number of distinct strategies tried so far.
func (s *Segment) Attempts() int { return len(s.StrategiesTried) }

// RecordAttempt appends strategy to StrategiesTried if not already present
// and updates LastStrategy, preserving the ordered-unique invariant.
func (s *Segment) RecordAttempt(strategy string) {
	for _, existing := range s.StrategiesTried {
		if existing == strategy {
			s.LastStrategy = strategy
			return
		}
	}
	s.StrategiesTried = append(s.StrategiesTried, strategy)
	s.LastStrategy = strategy
}

// EncodingStats accumulates size/frame counters for a job.
type EncodingStats struct {
	InputSize       uint64
	OutputSize      uint64
	SegmentCount    int
	CompletedCount  int
	TotalFrames     int64
	EncodedFrames   int64
}

// EncodingJob is the top-level unit of work: one input file being
// transcoded to one output file.
type EncodingJob struct {
	ID         string
	InputPath  string
	OutputPath string
	Strategy   Strategy
	Status     JobStatus
	Stats      EncodingStats
	Progress   Progress
	Segments   map[int]*Segment
	Error      string
}

// RecomputeEncodedFrames sums CurrentFrame across all segments rather than
// incrementing, so repeated retries never double-count frames already
// reported by a prior attempt on the same segment.
func (j *EncodingJob) RecomputeEncodedFrames() {
	var total int64
	for _, seg := range j.Segments {
		total += seg.Progress.CurrentFrame
	}
	j.Stats.EncodedFrames = total
}
