package filter_test

import (
	"context"
	"testing"
	"time"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/filter"
	"github.com/attrieng/engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFilePathStage_KeepsOnlyMatchingPath(t *testing.T) {
	region := types.ChangedRegion{FilePath: "a.go"}
	candidates := []types.ChangeRecord{
		{RecordID: "1", FilePath: "a.go"},
		{RecordID: "2", FilePath: "b.go"},
	}
	got := filter.FilePathStage(context.Background(), region, candidates)
	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].RecordID)
}

func TestTimeWindowStage_SymmetricAroundReference(t *testing.T) {
	ref := epoch.Now()
	region := types.ChangedRegion{ReferenceTime: &ref}
	candidates := []types.ChangeRecord{
		{RecordID: "before", Timestamp: ref.Add(-2 * 24 * time.Hour)},
		{RecordID: "after", Timestamp: ref.Add(2 * 24 * time.Hour)},
		{RecordID: "far", Timestamp: ref.Add(10 * 24 * time.Hour)},
	}
	stage := filter.TimeWindowStage(3)
	got := stage(context.Background(), region, candidates)
	assert.Len(t, got, 2)
}

func TestTimeWindowStage_NoReferenceTimeDefaultsToNow(t *testing.T) {
	now := epoch.Now()
	region := types.ChangedRegion{}
	candidates := []types.ChangeRecord{
		{RecordID: "recent", Timestamp: now.Add(-1 * 24 * time.Hour)},
		{RecordID: "stale", Timestamp: now.Add(-10 * 24 * time.Hour)},
	}
	stage := filter.TimeWindowStage(3)
	got := stage(context.Background(), region, candidates)
	assert.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].RecordID)
}

func TestContentLengthStage_KeepsWithinTolerance(t *testing.T) {
	region := types.ChangedRegion{AddedLines: []string{"0123456789"}} // length 10
	candidates := []types.ChangeRecord{
		{RecordID: "close", AddedLines: []string{"012345678"}},    // length 9, within 50%
		{RecordID: "far", AddedLines: []string{"0"}},               // length 1, outside 50%
	}
	stage := filter.ContentLengthStage(0.5)
	got := stage(context.Background(), region, candidates)
	assert.Len(t, got, 1)
	assert.Equal(t, "close", got[0].RecordID)
}

func TestPipeline_RunNarrowsMonotonically(t *testing.T) {
	ref := epoch.Now()
	region := types.ChangedRegion{
		FilePath:      "a.go",
		AddedLines:    []string{"0123456789"},
		ReferenceTime: &ref,
	}
	candidates := []types.ChangeRecord{
		{RecordID: "match", FilePath: "a.go", Timestamp: ref, AddedLines: []string{"0123456789"}},
		{RecordID: "wrongPath", FilePath: "b.go", Timestamp: ref, AddedLines: []string{"0123456789"}},
		{RecordID: "tooOld", FilePath: "a.go", Timestamp: ref.Add(-30 * 24 * time.Hour), AddedLines: []string{"0123456789"}},
	}

	var stageCounts []int
	p := filter.New(3, 0.5)
	p.OnStage(func(_ string, count int) { stageCounts = append(stageCounts, count) })

	got := p.Run(context.Background(), region, candidates)
	assert.Len(t, got, 1)
	assert.Equal(t, "match", got[0].RecordID)

	for i := 1; i < len(stageCounts); i++ {
		assert.LessOrEqual(t, stageCounts[i], stageCounts[i-1])
	}
}

func TestPipeline_EmptyInputShortCircuits(t *testing.T) {
	p := filter.New(3, 0.5)
	got := p.Run(context.Background(), types.ChangedRegion{}, nil)
	assert.Empty(t, got)
}
