package cmd

import (
	"fmt"

	"github.com/smazurov/mcsupervisor/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mcsupervisor %s\n", info.Version)
			fmt.Fprintf(out, "  commit:   %s\n", info.GitCommit)
			fmt.Fprintf(out, "  built:    %s (%s)\n", info.BuildDate, info.BuildID)
			fmt.Fprintf(out, "  go:       %s %s %s\n", info.GoVersion, info.Compiler, info.Platform)
		},
	}
}
