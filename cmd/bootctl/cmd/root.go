package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root command for the bootctl application
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootctl",
		Short: "bootctl - Run an application and watch its lifecycle events",
		Long: `bootctl runs an application bootstrap with configuration from files and
environment variables, prints every lifecycle event as a CloudEvent and serves
liveness and readiness probes.`,
		Version:      PrintVersion(),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewEventsCommand())

	return cmd
}

// PrintVersion returns version information
func PrintVersion() string {
	return fmt.Sprintf("bootctl v%s (commit: %s, built on: %s)", Version, Commit, Date)
}
