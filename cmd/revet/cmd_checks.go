package main

import (
	"fmt"

	"github.com/revet-dev/revet/pkg/jcheck"
	"github.com/spf13/cobra"
)

func newChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List the available checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range jcheck.CheckNames() {
				check, err := jcheck.NewCheck(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", name, check.Description())
			}
			return nil
		},
	}
}
