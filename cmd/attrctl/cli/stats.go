package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report sharded log store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			stats, err := e.Stats()
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}
