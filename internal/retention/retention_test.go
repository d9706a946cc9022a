package retention_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/retention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShard(t *testing.T, dir, date string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, layout.ShardFileName(date))
	require.NoError(t, os.WriteFile(path, []byte(`{}`+"\n"), 0o644))
}

func TestCleanup_BoundaryRetainsExactlyRetentionDays(t *testing.T) {
	root := t.TempDir()
	changesDir := layout.ChangesPath(root)

	today := epoch.Now()
	retained := today.Add(-7 * 24 * time.Hour).DateString()
	deleted := today.Add(-8 * 24 * time.Hour).DateString()

	writeShard(t, changesDir, retained)
	writeShard(t, changesDir, deleted)

	m := retention.New(root, retention.Config{Enabled: true, RetentionDays: 7, CheckIntervalHours: 24})
	result, err := m.Cleanup(context.Background(), false)
	require.NoError(t, err)

	assert.Contains(t, result.DeletedFiles, layout.ShardFileName(deleted))
	assert.NotContains(t, result.DeletedFiles, layout.ShardFileName(retained))

	_, statErr := os.Stat(filepath.Join(changesDir, layout.ShardFileName(retained)))
	assert.NoError(t, statErr)
}

func TestCleanup_DisabledIsSkippedWithoutForce(t *testing.T) {
	root := t.TempDir()
	writeShard(t, layout.ChangesPath(root), "2020-01-01")

	m := retention.New(root, retention.Config{Enabled: false, RetentionDays: 7})
	result, err := m.Cleanup(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.SkippedDisabled)
	assert.Empty(t, result.DeletedFiles)
}

func TestCleanup_ForceBypassesDisabled(t *testing.T) {
	root := t.TempDir()
	writeShard(t, layout.ChangesPath(root), "2020-01-01")

	m := retention.New(root, retention.Config{Enabled: false, RetentionDays: 0})
	result, err := m.Cleanup(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, result.SkippedDisabled)
	assert.NotEmpty(t, result.DeletedFiles)
}

func TestCleanup_IdempotentOnSecondRun(t *testing.T) {
	root := t.TempDir()
	writeShard(t, layout.ChangesPath(root), "2020-01-01")

	m := retention.New(root, retention.Config{Enabled: true, RetentionDays: 0})
	ctx := context.Background()

	first, err := m.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, first.DeletedFiles)

	second, err := m.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, second.DeletedFiles)
}

func TestCleanup_MissingDirectoriesAreNotErrors(t *testing.T) {
	root := t.TempDir()
	m := retention.New(root, retention.Config{Enabled: true, RetentionDays: 7})
	result, err := m.Cleanup(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, result.DeletedFiles)
}

func TestShouldRunNow_ZeroLastRunAlwaysTrue(t *testing.T) {
	m := retention.New(t.TempDir(), retention.Config{CheckIntervalHours: 24})
	assert.True(t, m.ShouldRunNow(0))
}

func TestShouldRunNow_RespectsInterval(t *testing.T) {
	m := retention.New(t.TempDir(), retention.Config{CheckIntervalHours: 24})
	recentRun := epoch.Now().Add(-1 * time.Hour)
	assert.False(t, m.ShouldRunNow(recentRun))

	oldRun := epoch.Now().Add(-25 * time.Hour)
	assert.True(t, m.ShouldRunNow(oldRun))
}
