// Package types holds the data model shared by every engine component:
// sessions, change records, prompt records, changed regions, and
// attribution verdicts. Grounded on agent.TokenUsage's style of a flat,
// JSON-tagged struct with no embedded behavior beyond small helpers.
package types

import (
	"github.com/attrieng/engine/internal/agentkind"
	"github.com/attrieng/engine/internal/epoch"
)

// SessionSource identifies how a session came to exist.
type SessionSource string

const (
	SessionSourceStartup SessionSource = "startup"
	SessionSourceResume  SessionSource = "resume"
	SessionSourceClear   SessionSource = "clear"
	SessionSourceCompact SessionSource = "compact"
)

// Session describes one continuous agent interaction. Sessions are lookup
// context only; they own no other records.
type Session struct {
	SessionID string            `json:"sessionId"`
	Agent     agentkind.Kind    `json:"agent"`
	StartedAt epoch.Millis      `json:"startedAt"`
	EndedAt   *epoch.Millis     `json:"endedAt,omitempty"`
	Model     string            `json:"model,omitempty"`
	Cwd       string            `json:"cwd,omitempty"`
	Source    SessionSource     `json:"source,omitempty"`
	EndReason string            `json:"endReason,omitempty"`
}

// IsActive reports whether the session has not yet ended.
func (s Session) IsActive() bool {
	return s.EndedAt == nil
}

// ToolName identifies which tool produced a file mutation.
type ToolName string

const (
	ToolEdit      ToolName = "Edit"
	ToolWrite     ToolName = "Write"
	ToolMultiEdit ToolName = "MultiEdit"
)

// ChangeRecord captures one tool-driven file mutation. Appended exactly
// once at ingest time; never updated; removed only by the retention policy.
type ChangeRecord struct {
	RecordID    string         `json:"recordId"`
	SessionID   string         `json:"sessionId"`
	Agent       agentkind.Kind `json:"agent"`
	Tool        ToolName       `json:"tool"`
	FilePath    string         `json:"filePath"`
	OldContent  string         `json:"oldContent,omitempty"`
	NewContent  string         `json:"newContent"`
	AddedLines  []string       `json:"addedLines"`
	Timestamp   epoch.Millis   `json:"timestamp"`
	Success     bool           `json:"success"`
}

// PromptRecord captures one user prompt submitted to an agent.
type PromptRecord struct {
	SessionID string       `json:"sessionId"`
	Prompt    string       `json:"prompt"`
	Timestamp epoch.Millis `json:"timestamp"`
}

// ChangedRegion is the attribution unit supplied by callers: a contiguous
// block of added lines in a file.
type ChangedRegion struct {
	FilePath        string       `json:"filePath"`
	StartLine       int          `json:"startLine"`
	EndLine         int          `json:"endLine"`
	AddedLines      []string     `json:"addedLines"`
	ReferenceTime   *epoch.Millis `json:"referenceTime,omitempty"`
}

// Class is the three-class attribution verdict.
type Class string

const (
	ClassAI           Class = "AI"
	ClassAIThenHuman  Class = "AI-then-human"
	ClassHuman        Class = "human"
)

// Verdict is the outcome of an attribution query.
type Verdict struct {
	Class          Class         `json:"class"`
	Similarity     float64       `json:"similarity"`
	Confidence     float64       `json:"confidence"`
	MatchedRecord  *ChangeRecord `json:"matchedRecord,omitempty"`
	Prompt         *PromptRecord `json:"prompt,omitempty"`
	Partial        bool          `json:"partial,omitempty"`
}
