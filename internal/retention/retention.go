// Package retention implements age-based deletion of shard files, grounded
// on the teacher's checkpoint pruning approach (delete-by-age over a
// directory listing, report what was removed) but applied to the sharded
// log store's changes/ and prompts/ directories instead of git refs.
package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/obslog"
)

// Config controls the retention manager. It mirrors engineconfig.AutoCleanupConfig
// so callers can pass that struct directly without this package importing
// engineconfig (keeping retention usable against any config source).
type Config struct {
	Enabled            bool
	RetentionDays      int
	CheckIntervalHours int
}

// Manager deletes shard files older than its configured retention window.
type Manager struct {
	root   string
	config Config
}

// New returns a Manager rooted at root with the given config.
func New(root string, config Config) *Manager {
	return &Manager{root: root, config: config}
}

// Result reports what a Cleanup call removed. Per-file errors are collected
// in Errors rather than aborting the sweep: one unreadable or unremovable
// shard must never prevent retention from reclaiming the rest.
type Result struct {
	DeletedFiles    []string
	FreedBytes      int64
	SkippedDisabled bool
	Errors          []error
}

// Cleanup deletes every changes/ and prompts/ shard whose date is strictly
// older than retentionDays before now. force bypasses the Enabled flag,
// matching the engine's "force" escape hatch for manual cleanup invocations.
// A directory listing failure for one stream is recorded in Errors and the
// other stream is still swept.
func (m *Manager) Cleanup(ctx context.Context, force bool) (Result, error) {
	if !force && !m.config.Enabled {
		return Result{SkippedDisabled: true}, nil
	}

	cutoffDate := epoch.Now().Add(-time.Duration(m.config.RetentionDays) * 24 * time.Hour).DateString()

	result := Result{}
	for _, dir := range []string{layout.ChangesPath(m.root), layout.PromptsPath(m.root)} {
		deleted, freed, errs := deleteOlderThan(ctx, dir, cutoffDate)
		result.DeletedFiles = append(result.DeletedFiles, deleted...)
		result.FreedBytes += freed
		result.Errors = append(result.Errors, errs...)
	}

	if len(result.DeletedFiles) > 0 {
		obslog.Info(ctx, "retention cleanup removed shards",
			"count", len(result.DeletedFiles), "freedBytes", result.FreedBytes, "cutoffDate", cutoffDate)
	}
	for _, e := range result.Errors {
		obslog.Warn(ctx, "retention cleanup encountered an error", "error", e.Error())
	}
	return result, nil
}

// deleteOlderThan removes every shard file in dir whose embedded date is
// strictly less than cutoffDate (lexical comparison, valid for YYYY-MM-DD).
// A per-file remove failure is appended to the returned error slice and
// sweeping continues with the next file.
func deleteOlderThan(_ context.Context, dir, cutoffDate string) ([]string, int64, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, []error{fmt.Errorf("%w: listing %s: %v", attrerr.ErrIOFailure, dir, err)}
	}

	var deleted []string
	var freed int64
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !layout.IsShardFileName(e.Name()) {
			continue
		}
		date := layout.ShardDate(e.Name())
		if date >= cutoffDate {
			continue
		}

		path := filepath.Join(dir, e.Name())
		info, statErr := e.Info()
		if statErr == nil {
			freed += info.Size()
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%w: removing %s: %v", attrerr.ErrIOFailure, path, err))
			continue
		}
		deleted = append(deleted, e.Name())
	}
	return deleted, freed, errs
}

// ShouldRunNow reports whether enough time has elapsed since lastRun for a
// new scheduled sweep, using CheckIntervalHours. A zero lastRun always
// triggers a run.
func (m *Manager) ShouldRunNow(lastRun epoch.Millis) bool {
	if lastRun == 0 {
		return true
	}
	interval := time.Duration(m.config.CheckIntervalHours) * time.Hour
	return epoch.Now().Sub(lastRun) >= interval
}
