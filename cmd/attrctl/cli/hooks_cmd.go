package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/ingest"
	"github.com/attrieng/engine/internal/types"
)

// newHooksCmd builds the hidden "hooks" command tree, grounded on the
// teacher's hooks_cmd.go: internal subcommands invoked by agent adapters,
// each reading one JSON event payload from stdin and never meant for
// direct interactive use.
func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hooks",
		Short:  "Hook handlers",
		Long:   "Commands invoked by agent adapters to feed the event ingest pipeline. Internal; not for direct use.",
		Hidden: true,
	}

	cmd.AddCommand(newHookSessionStartCmd())
	cmd.AddCommand(newHookSessionEndCmd())
	cmd.AddCommand(newHookPromptSubmittedCmd())
	cmd.AddCommand(newHookPostToolUseCmd())

	return cmd
}

func readStdinJSON(cmd *cobra.Command, v any) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading hook payload: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty hook payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing hook payload: %w", err)
	}
	return nil
}

type sessionStartPayload struct {
	SessionID      string `json:"sessionId"`
	Agent          string `json:"agent"`
	StartedAt      int64  `json:"startedAt"`
	Source         string `json:"source"`
	Model          string `json:"model"`
	Cwd            string `json:"cwd"`
	TranscriptPath string `json:"transcriptPath"`
}

func newHookSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-start",
		Short: "Ingest a session_start event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p sessionStartPayload
			if err := readStdinJSON(cmd, &p); err != nil {
				return err
			}
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			return e.Ingest().HandleSessionStart(cmd.Context(), ingest.SessionStartEvent{
				SessionID: p.SessionID,
				Agent:     p.Agent,
				Model:     p.Model,
				Cwd:       p.Cwd,
				Source:    types.SessionSource(p.Source),
				Timestamp: epoch.Millis(p.StartedAt),
			})
		},
	}
}

type sessionEndPayload struct {
	SessionID string `json:"sessionId"`
	EndedAt   int64  `json:"endedAt"`
	Reason    string `json:"reason"`
}

func newHookSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-end",
		Short: "Ingest a session_end event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p sessionEndPayload
			if err := readStdinJSON(cmd, &p); err != nil {
				return err
			}
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			return e.Ingest().HandleSessionEnd(cmd.Context(), ingest.SessionEndEvent{
				SessionID: p.SessionID,
				Reason:    p.Reason,
				Timestamp: epoch.Millis(p.EndedAt),
			})
		},
	}
}

type promptSubmittedPayload struct {
	SessionID string `json:"sessionId"`
	Prompt    string `json:"prompt"`
	Timestamp int64  `json:"timestamp"`
}

func newHookPromptSubmittedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt-submitted",
		Short: "Ingest a prompt_submitted event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p promptSubmittedPayload
			if err := readStdinJSON(cmd, &p); err != nil {
				return err
			}
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			return e.Ingest().HandlePromptSubmitted(cmd.Context(), ingest.PromptSubmittedEvent{
				SessionID: p.SessionID,
				Prompt:    p.Prompt,
				Timestamp: epoch.Millis(p.Timestamp),
			})
		},
	}
}

type postToolUsePayload struct {
	SessionID  string `json:"sessionId"`
	Agent      string `json:"agent"`
	ToolName   string `json:"toolName"`
	FilePath   string `json:"filePath"`
	OldContent string `json:"oldContent"`
	NewContent string `json:"newContent"`
	Timestamp  int64  `json:"timestamp"`
	Success    bool   `json:"success"`
}

func newHookPostToolUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-tool-use",
		Short: "Ingest a post_tool_use event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p postToolUsePayload
			if err := readStdinJSON(cmd, &p); err != nil {
				return err
			}
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			return e.Ingest().HandlePostToolUse(cmd.Context(), ingest.PostToolUseEvent{
				SessionID:  p.SessionID,
				Agent:      p.Agent,
				Tool:       types.ToolName(p.ToolName),
				FilePath:   p.FilePath,
				OldContent: p.OldContent,
				NewContent: p.NewContent,
				Success:    p.Success,
				Timestamp:  epoch.Millis(p.Timestamp),
			})
		},
	}
}
