package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/attrieng/engine/internal/report"
)

type reportRequestPayload struct {
	Region   changedRegionPayload `json:"region"`
	Feedback *struct {
		Comment  string `json:"comment"`
		Expected string `json:"expected"`
	} `json:"feedback,omitempty"`
}

func newReportCmd() *cobra.Command {
	var deadlineMs int64
	var hostVersion string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Attribute a changed region and save an issue report",
		Long:  "Reads a {region, feedback?} JSON object from stdin, runs attribution, and saves a structured report under hooks/reports/.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading report request: %w", err)
			}
			var req reportRequestPayload
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing report request: %w", err)
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

			region := req.Region.toRegion()
			result, err := e.Attribute(cmd.Context(), region, deadline)
			if err != nil {
				return err
			}

			var feedback *report.Feedback
			if req.Feedback != nil {
				feedback = &report.Feedback{
					Comment:  req.Feedback.Comment,
					Expected: report.ExpectedVerdict(req.Feedback.Expected),
				}
			}

			rep, err := e.GenerateReport(cmd.Context(), region, result, feedback, hostVersion)
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		},
	}

	cmd.Flags().Int64Var(&deadlineMs, "deadline-ms", 0, "optional query deadline in milliseconds from now")
	cmd.Flags().StringVar(&hostVersion, "host-version", "unknown", "host application version embedded in the report")
	return cmd
}
