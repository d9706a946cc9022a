package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/types"
)

type changedRegionPayload struct {
	FilePath      string   `json:"filePath"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	AddedLines    []string `json:"addedLines"`
	ReferenceTime *int64   `json:"referenceTime,omitempty"`
}

func (p changedRegionPayload) toRegion() types.ChangedRegion {
	r := types.ChangedRegion{
		FilePath:   p.FilePath,
		StartLine:  p.StartLine,
		EndLine:    p.EndLine,
		AddedLines: p.AddedLines,
	}
	if p.ReferenceTime != nil {
		ref := epoch.Millis(*p.ReferenceTime)
		r.ReferenceTime = &ref
	}
	return r
}

// verdictPayload is the JSON shape printed for an attribution query,
// matching the engine's external Verdict{ class, similarity, confidence,
// matchedRecord?, prompt?, partial? } interface.
type verdictPayload struct {
	Class         types.Class         `json:"class"`
	Similarity    float64             `json:"similarity"`
	Confidence    float64             `json:"confidence"`
	Partial       bool                `json:"partial,omitempty"`
	MatchedRecord *types.ChangeRecord `json:"matchedRecord,omitempty"`
	Prompt        *types.PromptRecord `json:"prompt,omitempty"`
}

func newAttributeCmd() *cobra.Command {
	var deadlineMs int64

	cmd := &cobra.Command{
		Use:   "attribute",
		Short: "Attribute a changed region, reading it as JSON from stdin",
		Long:  "Reads one changed-region JSON object (or a JSON array of them) from stdin and prints the resulting verdict(s) as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading region payload: %w", err)
			}

			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			if _, err := e.Start(cmd.Context()); err != nil {
				return err
			}

			var deadline time.Time
			if deadlineMs > 0 {
				deadline = time.Now().Add(time.Duration(deadlineMs) * time.Millisecond)
			}

			var batch []changedRegionPayload
			if err := json.Unmarshal(data, &batch); err == nil {
				regions := make([]types.ChangedRegion, len(batch))
				for i, p := range batch {
					regions[i] = p.toRegion()
				}
				results, err := e.AttributeBatch(cmd.Context(), regions, deadline)
				if err != nil {
					return err
				}
				out := make([]verdictPayload, len(results))
				for i, r := range results {
					out[i] = toVerdictPayload(r.Verdict)
				}
				return printJSON(cmd, out)
			}

			var single changedRegionPayload
			if err := json.Unmarshal(data, &single); err != nil {
				return fmt.Errorf("parsing region payload: %w", err)
			}
			result, err := e.Attribute(cmd.Context(), single.toRegion(), deadline)
			if err != nil {
				return err
			}
			return printJSON(cmd, toVerdictPayload(result.Verdict))
		},
	}

	cmd.Flags().Int64Var(&deadlineMs, "deadline-ms", 0, "optional query deadline in milliseconds from now")
	return cmd
}

func toVerdictPayload(v types.Verdict) verdictPayload {
	return verdictPayload{
		Class:         v.Class,
		Similarity:    v.Similarity,
		Confidence:    v.Confidence,
		Partial:       v.Partial,
		MatchedRecord: v.MatchedRecord,
		Prompt:        v.Prompt,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
