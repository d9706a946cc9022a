package cli

import (
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run the retention manager over the sharded log store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			result, err := e.Cleanup(cmd.Context(), force)
			if err != nil {
				return err
			}
			errStrings := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				errStrings[i] = e.Error()
			}
			return printJSON(cmd, struct {
				DeletedFiles    []string `json:"deletedFiles"`
				FreedBytes      int64    `json:"freedBytes"`
				SkippedDisabled bool     `json:"skippedDisabled"`
				Errors          []string `json:"errors,omitempty"`
			}{result.DeletedFiles, result.FreedBytes, result.SkippedDisabled, errStrings})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the enabled flag and the check interval")
	return cmd
}
