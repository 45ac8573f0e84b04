package main

import (
	"fmt"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/vcs"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var (
		dir     string
		vcsName string
		stat    bool
	)

	cmd := &cobra.Command{
		Use:   "diff <base> <head>",
		Short: "Show the parsed diff between two revisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := vcs.ParseHash(args[0])
			if err != nil {
				return fmt.Errorf("base: %w", err)
			}
			head, err := vcs.ParseHash(args[1])
			if err != nil {
				return fmt.Errorf("head: %w", err)
			}
			if vcsName == "" {
				fileConf, err := loadToolConfig(dir)
				if err != nil {
					return err
				}
				vcsName = fileConf.VCS
			}
			if vcsName == "" {
				vcsName = detectVCS(dir)
			}
			r, err := openRepo(dir, vcsName)
			if err != nil {
				return err
			}
			d, err := r.Diff(cmd.Context(), base, head)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, patch := range d.Patches {
				if stat {
					s := patch.Stats()
					fmt.Fprintf(out, "%s\t+%d\t-%d\t~%d\n", patch.Path(), s.Added, s.Removed, s.Modified)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", patch.Status, patch.Path())
				for _, hunk := range patch.Hunks {
					for _, line := range diff.RenderHunk(hunk) {
						fmt.Fprintln(out, line)
					}
				}
			}
			if stat {
				total := d.TotalStats()
				fmt.Fprintf(out, "total\t+%d\t-%d\t~%d\n", total.Added, total.Removed, total.Modified)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "repository", "C", ".", "path to the repository")
	cmd.Flags().StringVar(&vcsName, "vcs", "", "repository reader: git, hg or gogit")
	cmd.Flags().BoolVar(&stat, "stat", false, "show per-file line statistics instead of hunks")

	return cmd
}
