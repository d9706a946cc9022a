package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrieng/engine/internal/engine"
	"github.com/attrieng/engine/internal/engineconfig"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/ingest"
	"github.com/attrieng/engine/internal/types"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(t.TempDir(), engineconfig.Default())
}

func TestAttribute_ExactMatchIsAI(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	ts := epoch.Now()

	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;\nconst y = 2;",
		Success:    true,
		Timestamp:  ts,
	}))

	region := types.ChangedRegion{
		FilePath:   "src/a.ts",
		AddedLines: []string{"const x = 1;", "const y = 2;"},
	}
	res, err := e.Attribute(ctx, region, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, types.ClassAI, res.Verdict.Class)
	assert.InDelta(t, 1.0, res.Verdict.Similarity, 0.0001)
	require.NotNil(t, res.Verdict.MatchedRecord)
}

func TestAttribute_PartialAdditionIsAIThenHuman(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	ts := epoch.Now()

	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;\nconst y = 2;\nconst z = 3;",
		Success:    true,
		Timestamp:  ts,
	}))

	region := types.ChangedRegion{
		FilePath:   "src/a.ts",
		AddedLines: []string{"const x = 1;", "const y = 2;", "const z = 3;", "const w = 4;"},
	}
	res, err := e.Attribute(ctx, region, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, types.ClassAIThenHuman, res.Verdict.Class)
	assert.GreaterOrEqual(t, res.Verdict.Similarity, 0.70)
	assert.Less(t, res.Verdict.Similarity, 0.90)
}

func TestAttribute_DifferentFileIsHuman(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	ts := epoch.Now()

	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;\nconst y = 2;",
		Success:    true,
		Timestamp:  ts,
	}))

	region := types.ChangedRegion{
		FilePath:   "src/b.ts",
		AddedLines: []string{"const x = 1;", "const y = 2;"},
	}
	res, err := e.Attribute(ctx, region, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, types.ClassHuman, res.Verdict.Class)
	assert.Nil(t, res.Verdict.MatchedRecord)
}

func TestAttribute_NoCandidatesNeverCallsMatcher(t *testing.T) {
	e := newEngine(t)
	res, err := e.Attribute(context.Background(), types.ChangedRegion{
		FilePath:   "src/new.ts",
		AddedLines: nil,
	}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, types.ClassHuman, res.Verdict.Class)
	assert.Equal(t, 0.0, res.Verdict.Similarity)
	assert.Equal(t, 1.0, res.Verdict.Confidence)
}

func TestAttribute_PromptJoinPicksMostRecentPrecedingPrompt(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	t0 := epoch.Now()

	require.NoError(t, e.Ingest().HandlePromptSubmitted(ctx, ingest.PromptSubmittedEvent{SessionID: "s1", Prompt: "p1", Timestamp: t0}))
	require.NoError(t, e.Ingest().HandlePromptSubmitted(ctx, ingest.PromptSubmittedEvent{SessionID: "s1", Prompt: "p2", Timestamp: t0.Add(1 * time.Minute)}))
	require.NoError(t, e.Ingest().HandlePromptSubmitted(ctx, ingest.PromptSubmittedEvent{SessionID: "s1", Prompt: "p3", Timestamp: t0.Add(5 * time.Minute)}))

	changeTS := t0.Add(2 * time.Minute)
	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;",
		Success:    true,
		Timestamp:  changeTS,
	}))

	region := types.ChangedRegion{FilePath: "src/a.ts", AddedLines: []string{"const x = 1;"}}
	res, err := e.Attribute(ctx, region, time.Time{})
	require.NoError(t, err)

	require.NotNil(t, res.Verdict.Prompt)
	assert.Equal(t, "p2", res.Verdict.Prompt.Prompt)
}

func TestAttribute_StaleRecordOutsideTimeWindowIsExcludedByDefault(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	ts := epoch.Now().Add(-5 * 24 * time.Hour)

	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;\nconst y = 2;",
		Success:    true,
		Timestamp:  ts,
	}))

	region := types.ChangedRegion{
		FilePath:   "src/a.ts",
		AddedLines: []string{"const x = 1;", "const y = 2;"},
	}
	res, err := e.Attribute(ctx, region, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, types.ClassHuman, res.Verdict.Class)
	assert.Nil(t, res.Verdict.MatchedRecord)
}

func TestCleanup_ForceIsNeverSkipped(t *testing.T) {
	e := newEngine(t)
	result, err := e.Cleanup(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, result.SkippedDisabled)
}

func TestAttributeBatch_RunsEachRegionIndependently(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	ts := epoch.Now()

	require.NoError(t, e.Ingest().HandlePostToolUse(ctx, ingest.PostToolUseEvent{
		SessionID:  "s1",
		Agent:      "claude-code",
		Tool:       types.ToolEdit,
		FilePath:   "src/a.ts",
		NewContent: "const x = 1;",
		Success:    true,
		Timestamp:  ts,
	}))

	regions := []types.ChangedRegion{
		{FilePath: "src/a.ts", AddedLines: []string{"const x = 1;"}},
		{FilePath: "src/missing.ts", AddedLines: []string{"unrelated"}},
	}
	results, err := e.AttributeBatch(ctx, regions, time.Time{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.ClassAI, results[0].Verdict.Class)
	assert.Equal(t, types.ClassHuman, results[1].Verdict.Class)
}
