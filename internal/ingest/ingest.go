// Package ingest turns raw hook events into sharded log store writes: it
// normalizes file paths, redacts secrets out of stored content, computes
// the added-lines subsequence for a tool mutation, and routes session
// lifecycle events to the sessions store. Grounded on the teacher's
// diffLines function in manual_commit_attribution.go for the line-diff
// algorithm, and on its hook-payload-decoding command entries for the
// event-routing shape.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/attrieng/engine/internal/agentkind"
	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/obslog"
	"github.com/attrieng/engine/internal/redact"
	"github.com/attrieng/engine/internal/types"
)

// Store is the subset of *store.Store ingest depends on, kept as an
// interface so ingest tests can exercise the dispatcher without the
// sharded log store's filesystem layout.
type Store interface {
	AppendChange(ctx context.Context, rec types.ChangeRecord) error
	AppendPrompt(ctx context.Context, rec types.PromptRecord) error
	PutSession(sess types.Session) error
	PatchSession(sessionID string, patch func(*types.Session)) (types.Session, error)
}

// Dispatcher routes decoded hook events to the sharded log store.
type Dispatcher struct {
	store Store
	root  string
}

// New returns a Dispatcher that normalizes file paths relative to root and
// writes through to store.
func New(store Store, root string) *Dispatcher {
	return &Dispatcher{store: store, root: root}
}

// SessionStartEvent carries the fields of a session-start hook payload.
type SessionStartEvent struct {
	SessionID string
	Agent     string
	Model     string
	Cwd       string
	Source    types.SessionSource
	Timestamp epoch.Millis
}

// HandleSessionStart creates or refreshes a session record.
func (d *Dispatcher) HandleSessionStart(_ context.Context, ev SessionStartEvent) error {
	started := ev.Timestamp
	if started == 0 {
		started = epoch.Now()
	}
	return d.store.PutSession(types.Session{
		SessionID: ev.SessionID,
		Agent:     agentkind.Parse(ev.Agent),
		StartedAt: started,
		Model:     ev.Model,
		Cwd:       ev.Cwd,
		Source:    ev.Source,
	})
}

// SessionEndEvent carries the fields of a session-end hook payload.
type SessionEndEvent struct {
	SessionID string
	Reason    string
	Timestamp epoch.Millis
}

// HandleSessionEnd marks a session ended. If the session was never seen via
// HandleSessionStart, a new record is created so the end event is not lost.
func (d *Dispatcher) HandleSessionEnd(_ context.Context, ev SessionEndEvent) error {
	ended := ev.Timestamp
	if ended == 0 {
		ended = epoch.Now()
	}
	_, err := d.store.PatchSession(ev.SessionID, func(sess *types.Session) {
		sess.EndedAt = &ended
		sess.EndReason = ev.Reason
	})
	return err
}

// PromptSubmittedEvent carries the fields of a prompt-submitted hook payload.
type PromptSubmittedEvent struct {
	SessionID string
	Prompt    string
	Timestamp epoch.Millis
}

// HandlePromptSubmitted redacts and appends a prompt record.
func (d *Dispatcher) HandlePromptSubmitted(ctx context.Context, ev PromptSubmittedEvent) error {
	ts := ev.Timestamp
	if ts == 0 {
		ts = epoch.Now()
	}
	return d.store.AppendPrompt(ctx, types.PromptRecord{
		SessionID: ev.SessionID,
		Prompt:    redact.String(ev.Prompt),
		Timestamp: ts,
	})
}

// PostToolUseEvent carries the fields of a post-tool-use hook payload for a
// file-mutating tool call.
type PostToolUseEvent struct {
	SessionID  string
	Agent      string
	Tool       types.ToolName
	FilePath   string
	OldContent string
	NewContent string
	Success    bool
	Timestamp  epoch.Millis
}

// HandlePostToolUse computes the added-lines subsequence, redacts secrets,
// normalizes the file path, and appends a change record.
func (d *Dispatcher) HandlePostToolUse(ctx context.Context, ev PostToolUseEvent) error {
	if ev.FilePath == "" {
		return fmt.Errorf("%w: post-tool-use event missing filePath", attrerr.ErrInvalidConfig)
	}

	ts := ev.Timestamp
	if ts == 0 {
		ts = epoch.Now()
	}

	added := AddedLines(ev.OldContent, ev.NewContent)
	redacted := redact.Lines(added)

	rec := types.ChangeRecord{
		RecordID:   newRecordID(ts),
		SessionID:  ev.SessionID,
		Agent:      agentkind.Parse(ev.Agent),
		Tool:       ev.Tool,
		FilePath:   layout.NormalizeFilePath(ev.FilePath, d.root),
		OldContent: redact.String(ev.OldContent),
		NewContent: redact.String(ev.NewContent),
		AddedLines: redacted,
		Timestamp:  ts,
		Success:    ev.Success,
	}

	if err := d.store.AppendChange(ctx, rec); err != nil {
		obslog.Error(ctx, "failed to append change record",
			"sessionId", ev.SessionID, "filePath", rec.FilePath, "error", err.Error())
		return err
	}
	return nil
}

// AddedLines computes the ordered subsequence of lines present in newContent
// but not oldContent, using the same DiffLinesToChars/DiffMain/DiffCharsToLines
// pipeline the teacher uses to classify checkpoint-vs-committed line deltas.
// Unlike the teacher's diffLines, which only counts lines per diff segment,
// this returns the actual inserted line text in diff order, since the
// attribution engine matches against line content rather than line counts.
// Empty lines are left out of the result.
func AddedLines(oldContent, newContent string) []string {
	if oldContent == newContent {
		return nil
	}
	if oldContent == "" {
		return splitNonEmptyLines(newContent)
	}

	dmp := diffmatchpatch.New()
	text1, text2, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(text1, text2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var added []string
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffInsert {
			continue
		}
		added = append(added, splitNonEmptyLines(d.Text)...)
	}
	return added
}

func splitNonEmptyLines(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if line := content[start:i]; line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

func newRecordID(ts epoch.Millis) string {
	return fmt.Sprintf("%d-%s", int64(ts), uuid.NewString()[:8])
}
