package perf_test

import (
	"context"
	"testing"
	"time"

	"github.com/attrieng/engine/internal/perf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize_NoWarningWhenFast(t *testing.T) {
	tr := perf.New("a.go", 3, 1000, 500)
	tr.RecordLoad(1 * time.Millisecond)
	tr.RecordResult(0.95, true)
	snap := tr.Finalize()
	assert.False(t, snap.Warning)
	assert.Nil(t, snap.Bottleneck)
}

func TestFinalize_CandidateCountsAndStageOrderPreserved(t *testing.T) {
	tr := perf.New("a.go", 3, 1000, 500)
	tr.RecordFilterStage("filePath", time.Microsecond, 5)
	tr.RecordFilterStage("timeWindow", time.Microsecond, 3)
	tr.RecordFilterStage("contentLength", time.Microsecond, 1)
	snap := tr.Finalize()
	assert.Equal(t, []string{"filePath", "timeWindow", "contentLength"}, snap.StageOrder)
	assert.Equal(t, 5, snap.CandidateCounts["filePath"])
	assert.Equal(t, 1, snap.CandidateCounts["contentLength"])
}

func TestFinalize_SimilarityAveragesComputed(t *testing.T) {
	tr := perf.New("a.go", 3, 1000, 500)
	tr.RecordSimilarityCall(10*time.Millisecond, 100)
	tr.RecordSimilarityCall(20*time.Millisecond, 200)
	snap := tr.Finalize()
	assert.Equal(t, 2, snap.SimilarityCount)
	assert.Equal(t, 15*time.Millisecond, snap.SimilarityAvg)
	assert.Equal(t, 20*time.Millisecond, snap.SimilarityPeak)
	assert.Equal(t, 150, snap.InputLenAvg)
	assert.Equal(t, 200, snap.InputLenPeak)
}

func TestBottleneck_LoadDominatesLabelsLoad(t *testing.T) {
	// A 1 ms threshold and a 50 ms sleep force a warning; phase durations are
	// fractions of the measured wall-clock time so the percentages are real.
	start := time.Now()
	tr := perf.New("a.go", 3, 1000, 1)
	time.Sleep(50 * time.Millisecond)
	elapsed := time.Since(start)
	tr.RecordLoad(elapsed * 60 / 100)
	tr.RecordFilterStage("filePath", elapsed*10/100, 1)
	tr.RecordSimilarityCall(elapsed*10/100, 50)
	snap := tr.Finalize()
	require.NotNil(t, snap.Bottleneck)
	assert.Equal(t, "load", snap.Bottleneck.Label)
}

func TestBottleneck_SimilarityDominatesLabelsSimilarity(t *testing.T) {
	start := time.Now()
	tr := perf.New("a.go", 3, 1000, 1)
	time.Sleep(50 * time.Millisecond)
	elapsed := time.Since(start)
	tr.RecordLoad(elapsed * 1 / 100)
	tr.RecordFilterStage("filePath", elapsed*1/100, 1)
	tr.RecordSimilarityCall(elapsed*90/100, 50)
	snap := tr.Finalize()
	require.NotNil(t, snap.Bottleneck)
	assert.Equal(t, "similarity", snap.Bottleneck.Label)
}

func TestScoreBatched_SequentialBelowThreshold(t *testing.T) {
	got := perf.ScoreBatched(context.Background(), 5, 25, func(i int) float64 { return float64(i) })
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, got)
}

func TestScoreBatched_ParallelAboveThresholdPreservesOrder(t *testing.T) {
	n := 100
	got := perf.ScoreBatched(context.Background(), n, 10, func(i int) float64 { return float64(i) * 2 })
	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, float64(i)*2, got[i])
	}
}
