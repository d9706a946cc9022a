// Package filter implements the candidate filter pipeline: four ordered
// stages that prune the change-record population down to a small candidate
// set before the expensive edit-distance matcher runs. Grounded on the
// teacher's manual_commit_attribution.go, which narrows to changed files
// before doing any line-level diff work — the same "cheap structural filter
// before expensive content comparison" shape, generalized here into
// discrete, independently testable stages.
package filter

import (
	"context"
	"time"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/types"
)

// Stage narrows an input slice of candidates to a subset. Every stage must
// return a subset of its input; implementations are assumed, not enforced,
// to uphold this (enforced instead by the pipeline tests).
type Stage func(ctx context.Context, region types.ChangedRegion, candidates []types.ChangeRecord) []types.ChangeRecord

// Pipeline runs an ordered list of stages, recording the candidate count
// surviving each stage via onStage (nil is a valid no-op observer).
type Pipeline struct {
	stages  []namedStage
	onStage func(name string, count int)
}

type namedStage struct {
	name string
	fn   Stage
}

// New returns a Pipeline running the three filtering stages in order: file
// path, time window, content length. The first stage of the four-stage
// pipeline, loading, is not part of this package, since loading candidates from the store is the
// caller's responsibility (the pipeline only filters an in-memory slice).
func New(timeWindowDays int, lengthTolerance float64) *Pipeline {
	return &Pipeline{
		stages: []namedStage{
			{"filePath", FilePathStage},
			{"timeWindow", TimeWindowStage(timeWindowDays)},
			{"contentLength", ContentLengthStage(lengthTolerance)},
		},
	}
}

// OnStage registers an observer invoked after each stage runs, for the
// performance tracker to record post-stage candidate counts.
func (p *Pipeline) OnStage(fn func(name string, count int)) {
	p.onStage = fn
}

// Run executes every stage in order, narrowing candidates at each step.
func (p *Pipeline) Run(ctx context.Context, region types.ChangedRegion, candidates []types.ChangeRecord) []types.ChangeRecord {
	current := candidates
	for _, stage := range p.stages {
		current = stage.fn(ctx, region, current)
		if p.onStage != nil {
			p.onStage(stage.name, len(current))
		}
		if len(current) == 0 {
			break
		}
	}
	return current
}

// FilePathStage keeps only candidates whose file path exactly matches the
// region's file path (paths are assumed already normalized by the caller).
func FilePathStage(_ context.Context, region types.ChangedRegion, candidates []types.ChangeRecord) []types.ChangeRecord {
	var out []types.ChangeRecord
	for _, c := range candidates {
		if c.FilePath == region.FilePath {
			out = append(out, c)
		}
	}
	return out
}

// TimeWindowStage keeps only candidates whose timestamp falls within
// windowDays of the region's reference time, in either direction (a
// symmetric window, since a change record can be logged slightly before or
// after the file state a caller observes it in). When the region carries no
// ReferenceTime, the window is anchored to now — a query is always attributed
// against the present, so a missing reference must not disable the stage.
func TimeWindowStage(windowDays int) Stage {
	return func(_ context.Context, region types.ChangedRegion, candidates []types.ChangeRecord) []types.ChangeRecord {
		if windowDays <= 0 {
			return candidates
		}
		ref := epoch.Now()
		if region.ReferenceTime != nil {
			ref = *region.ReferenceTime
		}
		window := time.Duration(windowDays) * 24 * time.Hour
		var out []types.ChangeRecord
		for _, c := range candidates {
			delta := c.Timestamp.Sub(ref)
			if delta < 0 {
				delta = -delta
			}
			if delta <= window {
				out = append(out, c)
			}
		}
		return out
	}
}

// ContentLengthStage keeps only candidates whose total added-line character
// length is within tolerance (a fraction, e.g. 0.5 meaning +/-50%) of the
// region's added-line character length. A zero-length region skips this
// stage, since the tolerance ratio is undefined at zero.
func ContentLengthStage(tolerance float64) Stage {
	return func(_ context.Context, region types.ChangedRegion, candidates []types.ChangeRecord) []types.ChangeRecord {
		regionLen := totalLength(region.AddedLines)
		if regionLen == 0 {
			return candidates
		}
		lower := float64(regionLen) * (1 - tolerance)
		upper := float64(regionLen) * (1 + tolerance)

		var out []types.ChangeRecord
		for _, c := range candidates {
			l := float64(totalLength(c.AddedLines))
			if l >= lower && l <= upper {
				out = append(out, c)
			}
		}
		return out
	}
}

func totalLength(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	return n
}
