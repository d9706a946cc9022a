// Package engine wires every attribution-engine component into the single
// facade named by the engine's external interfaces: Attribute,
// AttributeBatch, GenerateReport, Cleanup, and Stats, plus the event-ingest
// entry points consumed by agent hooks. Grounded on the teacher's root.go
// pattern of a single constructor handing out a ready-to-use object built
// from its constituent parts, generalized here from "one cobra command
// tree" to "one engine instance per repository root".
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/attribution"
	"github.com/attrieng/engine/internal/engineconfig"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/filter"
	"github.com/attrieng/engine/internal/ingest"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/matcher"
	"github.com/attrieng/engine/internal/obslog"
	"github.com/attrieng/engine/internal/perf"
	"github.com/attrieng/engine/internal/promptjoin"
	"github.com/attrieng/engine/internal/report"
	"github.com/attrieng/engine/internal/retention"
	"github.com/attrieng/engine/internal/store"
	"github.com/attrieng/engine/internal/types"
)

// Version is the engine's own semantic version, embedded in every report's
// environment section. Overridable at build time the same way the teacher's
// root.go exposes a package-level Version/Commit pair.
var Version = "dev"

// Engine is the attribution engine for a single repository root. It owns no
// ambient state beyond the config and store handles passed to New: every
// subsystem is parameterized explicitly, per the engine's "no global
// mutable state" design note.
type Engine struct {
	root   string
	config engineconfig.Config

	store     *store.Store
	dispatch  *ingest.Dispatcher
	retention *retention.Manager

	lastRetentionRun epoch.Millis
}

// New returns an Engine rooted at root with the given config. It does not
// touch the filesystem beyond what its constituent parts lazily create on
// first write.
func New(root string, config engineconfig.Config) *Engine {
	s := store.New(root)
	return &Engine{
		root:      root,
		config:    config,
		store:     s,
		dispatch:  ingest.New(s, root),
		retention: retention.New(root, retention.Config{
			Enabled:            config.AutoCleanup.Enabled,
			RetentionDays:      config.AutoCleanup.RetentionDays,
			CheckIntervalHours: config.AutoCleanup.CheckIntervalHours,
		}),
	}
}

// Start runs the retention manager once, matching the engine's "on engine
// start" trigger. Safe to call even when auto-cleanup is disabled; Cleanup
// itself honors the Enabled flag.
func (e *Engine) Start(ctx context.Context) (retention.Result, error) {
	result, err := e.retention.Cleanup(ctx, false)
	if err == nil {
		e.lastRetentionRun = epoch.Now()
	}
	return result, err
}

// MaybeRunRetention runs a retention sweep if ShouldRunNow reports the
// configured check interval has elapsed since the last run, matching the
// engine's "on a timer at checkIntervalHours" trigger. Callers invoke this
// periodically (e.g. once per CLI invocation, or on an external scheduler);
// the engine itself runs no background goroutine.
func (e *Engine) MaybeRunRetention(ctx context.Context) (retention.Result, error) {
	if !e.retention.ShouldRunNow(e.lastRetentionRun) {
		return retention.Result{}, nil
	}
	return e.Start(ctx)
}

// Cleanup runs the retention manager on demand. force bypasses both the
// interval check and the Enabled flag.
func (e *Engine) Cleanup(ctx context.Context, force bool) (retention.Result, error) {
	result, err := e.retention.Cleanup(ctx, force)
	if err == nil {
		e.lastRetentionRun = epoch.Now()
	}
	return result, err
}

// Stats reports the sharded log store's on-disk footprint.
func (e *Engine) Stats() (store.Stats, error) {
	return e.store.Stats()
}

// Ingest returns the event dispatcher for session-start, session-end,
// prompt-submitted, and post-tool-use events, consumed by agent adapters
// through the event interface.
func (e *Engine) Ingest() *ingest.Dispatcher {
	return e.dispatch
}

// QueryResult bundles an attribution verdict with the performance snapshot
// and candidate list the query produced, since callers of Attribute
// typically need all three (the verdict for the UI, the snapshot for
// diagnostics, the candidates to optionally generate a report).
type QueryResult struct {
	Verdict    types.Verdict
	Candidates []types.ChangeRecord
	Metrics    perf.Snapshot
}

// Attribute runs the four-stage candidate filter, the edit-distance
// matcher, the attribution classifier, and the prompt joiner for one
// changed region, honoring an optional deadline. On deadline expiry the
// best verdict computed so far is returned with Partial set and the
// performance tracker's warning flag raised, never an error.
func (e *Engine) Attribute(ctx context.Context, region types.ChangedRegion, deadline time.Time) (QueryResult, error) {
	region.FilePath = layout.NormalizeFilePath(region.FilePath, e.root)

	tracker := perf.New(region.FilePath, len(region.AddedLines), int64(epoch.Now()), e.config.Matching.PerformanceThresholdMs)

	loadStart := time.Now()
	loadDays := e.config.Matching.TimeWindowDays
	if e.config.AutoCleanup.RetentionDays > loadDays {
		loadDays = e.config.AutoCleanup.RetentionDays
	}
	records, err := e.store.ReadRecentChanges(ctx, loadDays)
	tracker.RecordLoad(time.Since(loadStart))
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: loading candidate records: %v", attrerr.ErrIOFailure, err)
	}

	pipeline := filter.New(e.config.Matching.TimeWindowDays, e.config.Matching.LengthTolerance)
	stageStart := time.Now()
	pipeline.OnStage(func(name string, count int) {
		now := time.Now()
		tracker.RecordFilterStage(name, now.Sub(stageStart), count)
		stageStart = now
	})

	partial := false
	candidates := pipeline.Run(ctx, region, records)
	if !deadline.IsZero() && time.Now().After(deadline) {
		partial = true
	}

	queryText := joinLinesForMatch(region.AddedLines)

	var best *types.ChangeRecord
	bestSimilarity, secondSimilarity := 0.0, 0.0
	if len(candidates) > 0 && !partial {
		texts := make([]matcher.Candidate, len(candidates))
		for i, c := range candidates {
			texts[i] = matcher.Candidate{Index: i, Text: joinLinesForMatch(c.AddedLines)}
		}

		scores := perf.ScoreBatched(ctx, len(texts), perf.DefaultYieldBatchSize, func(i int) float64 {
			start := time.Now()
			s := matcher.Similarity(queryText, texts[i].Text)
			tracker.RecordSimilarityCall(time.Since(start), maxLen(len(queryText), len(texts[i].Text)))
			return s
		})

		bestIdx := -1
		for i, s := range scores {
			switch {
			case bestIdx == -1, s > bestSimilarity:
				secondSimilarity = bestSimilarity
				bestSimilarity = s
				bestIdx = i
			case s > secondSimilarity:
				secondSimilarity = s
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				partial = true
			}
		}
		if bestIdx >= 0 {
			best = &candidates[bestIdx]
		}
	}

	thresholds := attribution.Thresholds{AI: e.config.Matching.ThresholdAI, AIModified: e.config.Matching.ThresholdAIModified}
	class, confidence := attribution.Classify(thresholds, bestSimilarity, secondSimilarity, best != nil)

	verdict := types.Verdict{
		Class:         class,
		Similarity:    bestSimilarity,
		Confidence:    confidence,
		MatchedRecord: best,
		Partial:       partial,
	}

	if best != nil {
		prompts, err := e.store.ReadRecentPrompts(ctx, loadDays)
		if err != nil {
			obslog.Warn(ctx, "failed to load prompts for join", "error", err.Error())
		} else {
			verdict.Prompt = promptjoin.Join(*best, prompts)
		}
	}

	tracker.RecordResult(bestSimilarity, best != nil)
	snapshot := tracker.Finalize()
	if partial {
		snapshot.Warning = true
	}

	if err := e.store.AppendPerformanceLogLine(ctx, performanceLogLine(snapshot)); err != nil {
		obslog.Warn(ctx, "failed to append performance log", "error", err.Error())
	}

	return QueryResult{Verdict: verdict, Candidates: candidates, Metrics: snapshot}, nil
}

// AttributeBatch runs Attribute independently for each region, matching the
// per-region semantics of a single Attribute call. A per-region error
// aborts only that region's result (left as the zero QueryResult); earlier
// and later regions are unaffected. All per-region errors are returned
// joined.
func (e *Engine) AttributeBatch(ctx context.Context, regions []types.ChangedRegion, deadline time.Time) ([]QueryResult, error) {
	results := make([]QueryResult, len(regions))
	var errs []error
	for i, region := range regions {
		res, err := e.Attribute(ctx, region, deadline)
		if err != nil {
			errs = append(errs, fmt.Errorf("region %d (%s): %w", i, region.FilePath, err))
			continue
		}
		results[i] = res
	}
	return results, errors.Join(errs...)
}

// GenerateReport builds and persists a structured report for a completed
// query, under reports/YYYY-MM-DD/report-{id}.json.
func (e *Engine) GenerateReport(ctx context.Context, region types.ChangedRegion, result QueryResult, feedback *report.Feedback, hostVersion string) (report.Report, error) {
	env := report.DescribeEnvironment(e.root, Version, hostVersion)
	rep := report.Generate(report.Input{
		Region:        region,
		Verdict:       result.Verdict,
		Candidates:    result.Candidates,
		Performance:   result.Metrics,
		Environment:   env,
		Feedback:      feedback,
		DeveloperMode: e.config.DeveloperMode,
	})
	if err := report.Save(ctx, e.root, rep); err != nil {
		return report.Report{}, err
	}
	return rep, nil
}

func performanceLogLine(snap perf.Snapshot) map[string]any {
	line := map[string]any{
		"timestamp":       snap.Timestamp,
		"filePath":        snap.FilePath,
		"totalMs":         snap.TotalDuration.Milliseconds(),
		"warning":         snap.Warning,
		"candidateCounts": snap.CandidateCounts,
		"similarityCount": snap.SimilarityCount,
		"similarityMs":    snap.SimilarityTotal.Milliseconds(),
		"matched":         snap.Matched,
		"bestSimilarity":  snap.BestSimilarity,
	}
	if snap.Bottleneck != nil {
		line["bottleneck"] = snap.Bottleneck.Label
	}
	return line
}

func joinLinesForMatch(lines []string) string {
	return matcher.Normalize(joinWithNewlines(lines))
}

func joinWithNewlines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func maxLen(a, b int) int {
	if a > b {
		return a
	}
	return b
}
