// Package store implements the sharded log store: an append-only,
// date-partitioned set of line-delimited record files for changes and
// prompts, plus a single JSON sessions store, grounded on the teacher's
// pattern of keeping a small sessionid/date convention (sessionid.go) and
// loading/merging a single JSON state file under read-modify-write
// (settings.go) — here applied to a map instead of a flat struct.
//
// No global lock exists between ingest and query: readers may observe
// records up to the moment they began scanning, and a shard file
// disappearing mid-scan (raced by retention) is treated as end-of-stream.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/types"
)

// Store is the sharded log store rooted at a single hook-data directory.
type Store struct {
	root       string
	sessionsMu sessionsGuard
}

// New returns a Store rooted at root (the directory that will contain
// hooks/changes, hooks/prompts, hooks/logs, and hooks/sessions.store).
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the project root this store is rooted at.
func (s *Store) Root() string { return s.root }

// AppendChange appends one change record to the current-day shard under
// hooks/changes/.
func (s *Store) AppendChange(_ context.Context, rec types.ChangeRecord) error {
	dir := layout.ChangesPath(s.root)
	return appendLine(dir, layout.ShardFileName(epoch.Now().DateString()), rec)
}

// AppendPrompt appends one prompt record to the current-day shard under
// hooks/prompts/.
func (s *Store) AppendPrompt(_ context.Context, rec types.PromptRecord) error {
	dir := layout.PromptsPath(s.root)
	return appendLine(dir, layout.ShardFileName(epoch.Now().DateString()), rec)
}

// AppendPerformanceLogLine appends one pre-serialized performance log entry
// to hooks/logs/performance.log. Unlike change/prompt shards, this stream
// is not date-sharded: it is a single running log, matching the file layout
// named in the engine's sharded log store design.
func (s *Store) AppendPerformanceLogLine(_ context.Context, v any) error {
	return appendLine(layout.LogsPath(s.root), layout.PerformanceLogFile, v)
}

// ReadChanges scans every changes/ shard in descending date order, yielding
// every parseable record for which predicate returns true (or every record,
// if predicate is nil).
func (s *Store) ReadChanges(ctx context.Context, predicate func(types.ChangeRecord) bool) ([]types.ChangeRecord, error) {
	dir := layout.ChangesPath(s.root)
	var out []types.ChangeRecord
	for _, date := range shardDatesDescending(dir) {
		err := scanShard(ctx, dir, layout.ShardFileName(date), func(line []byte) error {
			var rec types.ChangeRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return err
			}
			if predicate == nil || predicate(rec) {
				out = append(out, rec)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// ReadPrompts scans every prompts/ shard in descending date order, yielding
// every parseable record for which predicate returns true (or every record,
// if predicate is nil).
func (s *Store) ReadPrompts(ctx context.Context, predicate func(types.PromptRecord) bool) ([]types.PromptRecord, error) {
	dir := layout.PromptsPath(s.root)
	var out []types.PromptRecord
	for _, date := range shardDatesDescending(dir) {
		err := scanShard(ctx, dir, layout.ShardFileName(date), func(line []byte) error {
			var rec types.PromptRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return err
			}
			if predicate == nil || predicate(rec) {
				out = append(out, rec)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// ReadRecentChanges is a convenience wrapper over ReadChanges with a
// date-range predicate covering the last `days` days.
func (s *Store) ReadRecentChanges(ctx context.Context, days int) ([]types.ChangeRecord, error) {
	cutoff := epoch.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.ReadChanges(ctx, func(r types.ChangeRecord) bool {
		return r.Timestamp >= cutoff
	})
}

// ReadRecentPrompts is a convenience wrapper over ReadPrompts with a
// date-range predicate covering the last `days` days.
func (s *Store) ReadRecentPrompts(ctx context.Context, days int) ([]types.PromptRecord, error) {
	cutoff := epoch.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.ReadPrompts(ctx, func(r types.PromptRecord) bool {
		return r.Timestamp >= cutoff
	})
}

// Stats computes per-stream directory statistics purely from directory
// listings: file counts, aggregate size, and the oldest/newest shard name.
func (s *Store) Stats() (Stats, error) {
	changes, err := streamStats(layout.ChangesPath(s.root))
	if err != nil {
		return Stats{}, err
	}
	prompts, err := streamStats(layout.PromptsPath(s.root))
	if err != nil {
		return Stats{}, err
	}

	total := Stats{
		TotalFiles:   changes.TotalFiles + prompts.TotalFiles,
		TotalSizeKB:  changes.TotalSizeKB + prompts.TotalSizeKB,
		FilesByStream: map[string]int{
			"changes": changes.TotalFiles,
			"prompts": prompts.TotalFiles,
		},
	}
	total.OldestFile = olderOf(changes.OldestFile, prompts.OldestFile)
	total.NewestFile = newerOf(changes.NewestFile, prompts.NewestFile)
	return total, nil
}

// Stats summarizes the sharded log store's on-disk footprint.
type Stats struct {
	TotalFiles    int
	TotalSizeKB   float64
	OldestFile    string
	NewestFile    string
	FilesByStream map[string]int
}

func streamStats(dir string) (Stats, error) {
	dates := shardDatesDescending(dir)
	if len(dates) == 0 {
		return Stats{}, nil
	}

	var totalBytes int64
	for _, d := range dates {
		info, err := statFile(dir, layout.ShardFileName(d))
		if err != nil {
			return Stats{}, fmt.Errorf("%w: %v", attrerr.ErrIOFailure, err)
		}
		if info != nil {
			totalBytes += info.Size()
		}
	}
	return Stats{
		TotalFiles:  len(dates),
		TotalSizeKB: float64(totalBytes) / 1024.0,
		OldestFile:  layout.ShardFileName(dates[len(dates)-1]),
		NewestFile:  layout.ShardFileName(dates[0]),
	}, nil
}

func olderOf(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func newerOf(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case a > b:
		return a
	default:
		return b
	}
}
