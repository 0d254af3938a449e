// Package chunkencoder implements the Chunk Encoder stage: for each
// segment, it drives a VMAF-guided SVT-AV1 encode through a three-tier
// retry escalator, and dispatches segments across a bounded worker pool
// with a soon-fail policy.
package chunkencoder

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/model"
)

// Tier is one rung of the retry escalator: a sample plan and the VMAF
// floor an attempt at this tier must clear.
type Tier struct {
	Name               string
	Samples            int
	SampleDurationSecs int
	MinVMAF            float64
}

// Tiers builds the three-tier escalator for a target VMAF, using the
// configured sample count/duration for tier 1 and fixed widened
// parameters for tiers 2 and 3.
func Tiers(targetVMAF float64, configuredSamples, configuredSampleDurationSecs int) [3]Tier {
	return [3]Tier{
		{Name: "tier1", Samples: configuredSamples, SampleDurationSecs: configuredSampleDurationSecs, MinVMAF: targetVMAF},
		{Name: "tier2", Samples: 6, SampleDurationSecs: 2, MinVMAF: targetVMAF},
		{Name: "tier3", Samples: 6, SampleDurationSecs: 2, MinVMAF: targetVMAF - 2},
	}
}

// AttemptParams is everything a Runner needs to drive one auto-encoder
// invocation for one tier.
type AttemptParams struct {
	InputPath  string
	OutputPath string
	CropFilter string
	Preset     int
	SVTParams  string
	KeyintSecs int
	VMAFPool   string // "harmonic_mean"
	Subsample  int    // n_subsample
	Tier       Tier
}

// Runner drives a single VMAF-guided encode attempt for one segment at
// one tier. It must return a non-nil error unless the underlying tool
// exited 0; the caller additionally checks that the expected output file
// exists and is non-empty before declaring the tier a success.
type Runner interface {
	Run(ctx context.Context, p AttemptParams) error
}

const (
	defaultKeyintSecs = 10
	defaultVMAFPool   = "harmonic_mean"
	defaultSubsample  = 8
)

// EncodeSegment drives seg through the retry escalator: tier 1, then tier
// 2, then tier 3, stopping at the first tier whose attempt succeeds. It
// skips entirely (idempotent resume) if seg.OutputPath already exists
// with non-zero size.
func EncodeSegment(ctx context.Context, runner Runner, seg *model.Segment, quality model.QualitySettings, cropFilter string, targetVMAF float64, configuredSamples, configuredSampleDurationSecs int) error {
	if info, err := os.Stat(seg.OutputPath); err == nil && info.Size() > 0 {
		seg.Status = model.SegmentCompleted
		return nil
	}

	tiers := Tiers(targetVMAF, configuredSamples, configuredSampleDurationSecs)

	var lastErr error
	for _, tier := range tiers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		seg.RecordAttempt(tier.Name)
		seg.Status = model.SegmentEncoding

		params := AttemptParams{
			InputPath:  seg.InputPath,
			OutputPath: seg.OutputPath,
			CropFilter: cropFilter,
			Preset:     quality.Preset,
			SVTParams:  quality.SVTParams,
			KeyintSecs: defaultKeyintSecs,
			VMAFPool:   defaultVMAFPool,
			Subsample:  defaultSubsample,
			Tier:       tier,
		}

		err := runner.Run(ctx, params)
		if err == nil {
			if info, statErr := os.Stat(seg.OutputPath); statErr == nil && info.Size() > 0 {
				seg.Status = model.SegmentCompleted
				seg.Error = ""
				return nil
			}
			err = errors.NewToolFailedError("svtav1-auto-encoder", errors.CommandFailed, 0,
				"expected output file missing or empty after a reported-successful attempt", nil)
		}
		lastErr = err
	}

	seg.Status = model.SegmentFailed
	if lastErr != nil {
		seg.Error = lastErr.Error()
	}
	return errors.NewEncodeRetriesExhaustedError(seg.Index, len(tiers))
}

// Pool dispatches segments to a worker pool of the given size, running
// EncodeSegment for each. It implements a soon-fail policy: once any
// segment exhausts its retries, segments not yet started are skipped
// (left pending) rather than begun, but segments already in flight are
// allowed to finish and their results recorded.
type Pool struct {
	Runner               Runner
	Quality              model.QualitySettings
	CropFilter           string
	TargetVMAF           float64
	ConfiguredSamples    int
	ConfiguredSampleSecs int
	PoolSize             int
}

// EncodeAll runs every segment in segments through the pool, honoring the
// soon-fail policy. It returns the first EncodeRetriesExhausted error
// observed, or nil if every segment completed successfully. Callers that
// prefer strict sequential execution (e.g. a fallback when the parallel
// dispatcher is unavailable) can pass PoolSize 1, which yields identical
// semantics.
func (p *Pool) EncodeAll(ctx context.Context, segments []*model.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	poolSize := p.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	var halted atomic.Bool
	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize)

	for _, seg := range segments {
		seg := seg
		g.Go(func() error {
			if halted.Load() {
				return nil
			}
			err := EncodeSegment(gctx, p.Runner, seg, p.Quality, p.CropFilter, p.TargetVMAF, p.ConfiguredSamples, p.ConfiguredSampleSecs)
			if err != nil {
				halted.Store(true)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return firstErr
}
