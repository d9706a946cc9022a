// Package promptjoin attaches the prompt that most plausibly produced a
// matched change record: the most recent prompt in the same session at or
// before the matched record's timestamp. Never falls back to a later
// prompt or a prompt from a different session, since either would
// misattribute intent the region's author never had.
package promptjoin

import "github.com/attrieng/engine/internal/types"

// Join returns a pointer to the best-matching prompt for matched among
// prompts, or nil if no same-session prompt at or before matched's
// timestamp exists.
func Join(matched types.ChangeRecord, prompts []types.PromptRecord) *types.PromptRecord {
	var best *types.PromptRecord
	for i := range prompts {
		p := prompts[i]
		if p.SessionID != matched.SessionID {
			continue
		}
		if p.Timestamp > matched.Timestamp {
			continue
		}
		if best == nil || p.Timestamp > best.Timestamp {
			best = &prompts[i]
		}
	}
	return best
}
