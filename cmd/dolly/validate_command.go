package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a dolly document for structural and range problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := readDocument(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rangeErrs, structural := dolly.ValidatePaths(paths)
			for _, e := range structural {
				fmt.Fprintln(out, "error:", e)
			}
			for _, e := range rangeErrs {
				fmt.Fprintln(out, "range:", e)
			}

			problems := len(structural) + len(rangeErrs)
			if problems > 0 {
				return fmt.Errorf("%s: %d problems", args[0], problems)
			}
			fmt.Fprintf(out, "ok: %d paths, %d points\n", len(paths), dolly.CountPoints(paths))
			return nil
		},
	}
}
