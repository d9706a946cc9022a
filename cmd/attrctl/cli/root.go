// Package cli is the command-line surface over the attribution engine,
// grounded on the teacher's root.go: a single cobra root command built by
// NewRootCmd, a package-level Version/Commit pair overridable at build
// time, and hidden internal subcommands for hook payloads alongside
// user-facing ones. Unlike the teacher's CLI (checkpointing, rewinding,
// cross-agent setup), every command here is a thin adapter over
// internal/engine: the command-line surface itself is an external
// collaborator to the engine, not part of it.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/attrieng/engine/internal/engine"
)

// Version and Commit are overridable at build time via -ldflags, matching
// the teacher's version-stamping convention.
var (
	Version = "dev"
	Commit  = "unknown"
)

// NewRootCmd builds the attribution engine's command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "attrctl",
		Short:         "Contributor attribution engine",
		Long:          "Ingests agent hook events and answers attribution queries for changed regions in a repository.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(c *cobra.Command, _ []string) error {
			return c.Help()
		},
	}

	cmd.PersistentFlags().String("root", "", "repository root (defaults to the current directory)")

	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newAttributeCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "attrctl %s (%s)\n", Version, Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// openEngine resolves the --root flag (defaulting to the current working
// directory), loads configuration from hooks/config.json and
// hooks/config.local.json, and constructs an engine.Engine.
func openEngine(cmd *cobra.Command) (*engine.Engine, string, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, "", err
	}
	root, err = resolveRoot(root)
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, "", err
	}
	return engine.New(root, cfg), root, nil
}
