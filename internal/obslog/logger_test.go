package obslog_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/attrieng/engine/internal/obslog"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesJSONLinesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "engine.log")

	require.NoError(t, obslog.Init(logPath))
	ctx := obslog.WithComponent(context.Background(), "ingest")
	ctx = obslog.WithSession(ctx, "sess-1")
	obslog.Info(ctx, "change appended")
	obslog.Close()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	require.Equal(t, "change appended", line["msg"])
	require.Equal(t, "ingest", line["component"])
	require.Equal(t, "sess-1", line["session_id"])
}

func TestInit_FallsBackToStderrOnBadPath(t *testing.T) {
	// A path inside a file (not a directory) cannot be opened.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := obslog.Init(filepath.Join(blocker, "engine.log"))
	require.NoError(t, err) // never fails the caller
	obslog.Close()
}
