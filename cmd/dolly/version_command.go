package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrcdolly/dolly-agent/internal/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dolly %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		},
	}
}
