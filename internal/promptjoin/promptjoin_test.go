package promptjoin_test

import (
	"testing"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/promptjoin"
	"github.com/attrieng/engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_PicksMostRecentAtOrBefore(t *testing.T) {
	matched := types.ChangeRecord{SessionID: "s1", Timestamp: 100}
	prompts := []types.PromptRecord{
		{SessionID: "s1", Timestamp: 50, Prompt: "earlier"},
		{SessionID: "s1", Timestamp: 90, Prompt: "closest"},
		{SessionID: "s1", Timestamp: 150, Prompt: "later"},
	}
	got := promptjoin.Join(matched, prompts)
	require.NotNil(t, got)
	assert.Equal(t, "closest", got.Prompt)
}

func TestJoin_IgnoresOtherSessions(t *testing.T) {
	matched := types.ChangeRecord{SessionID: "s1", Timestamp: 100}
	prompts := []types.PromptRecord{
		{SessionID: "s2", Timestamp: 90, Prompt: "wrong session"},
	}
	assert.Nil(t, promptjoin.Join(matched, prompts))
}

func TestJoin_NoPromptAtOrBeforeReturnsNil(t *testing.T) {
	matched := types.ChangeRecord{SessionID: "s1", Timestamp: 100}
	prompts := []types.PromptRecord{
		{SessionID: "s1", Timestamp: 150, Prompt: "too late"},
	}
	assert.Nil(t, promptjoin.Join(matched, prompts))
}

func TestJoin_ExactTimestampMatchIsEligible(t *testing.T) {
	now := epoch.Now()
	matched := types.ChangeRecord{SessionID: "s1", Timestamp: now}
	prompts := []types.PromptRecord{{SessionID: "s1", Timestamp: now, Prompt: "same instant"}}
	got := promptjoin.Join(matched, prompts)
	require.NotNil(t, got)
	assert.Equal(t, "same instant", got.Prompt)
}
