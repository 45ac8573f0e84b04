package main

import (
	"fmt"
	"os"

	"github.com/revet-dev/revet/pkg/census"
	"github.com/revet-dev/revet/pkg/jcheck"
	"github.com/revet-dev/revet/pkg/repo"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		dir        string
		censusPath string
		confPath   string
		vcsName    string
		checkRefs  bool
	)

	cmd := &cobra.Command{
		Use:   "check [range]",
		Short: "Check the commits in a range against the repository policy",
		Long: `Check runs the configured checks over every commit in the range.
The policy is read from each commit's own .jcheck/conf unless --conf
supplies an override. The range defaults to HEAD.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeExpr := "HEAD"
			if len(args) == 1 {
				rangeExpr = args[0]
			}

			fileConf, err := loadToolConfig(dir)
			if err != nil {
				return err
			}
			if censusPath == "" {
				censusPath = fileConf.Census
			}
			if confPath == "" {
				confPath = fileConf.Conf
			}
			if vcsName == "" {
				vcsName = fileConf.VCS
			}
			if vcsName == "" {
				vcsName = detectVCS(dir)
			}

			r, err := openRepo(dir, vcsName)
			if err != nil {
				return err
			}
			opts := jcheck.Options{Repo: r, CheckRefs: checkRefs}
			if censusPath != "" {
				opts.Census, err = census.Load(censusPath)
				if err != nil {
					return err
				}
			}
			if confPath != "" {
				opts.OverrideConf, err = readConfFile(confPath)
				if err != nil {
					return err
				}
			}

			results, err := jcheck.Run(cmd.Context(), opts, rangeExpr)
			if err != nil {
				return err
			}
			report(cmd, results)
			if results.HasErrors() {
				// issues were already reported; exit nonzero without
				// repeating them
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "repository", "C", ".", "path to the repository")
	cmd.Flags().StringVar(&censusPath, "census", "", "path to a census XML file")
	cmd.Flags().StringVar(&confPath, "conf", "", "configuration file overriding the in-repo one")
	cmd.Flags().StringVar(&vcsName, "vcs", "", "repository reader: git, hg or gogit")
	cmd.Flags().BoolVar(&checkRefs, "refs", false, "also check tag and branch names")

	return cmd
}

func readConfFile(path string) (*jcheck.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	conf, err := jcheck.ParseConfiguration(repo.SplitLines(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

func report(cmd *cobra.Command, results *jcheck.Results) {
	for _, cr := range results.Commits {
		for _, issue := range cr.Issues {
			meta := issue.Common()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %s\n",
				meta.Severity, cr.Commit.Hash.Abbreviate(), meta.Check, jcheck.Describe(issue))
		}
	}
	for _, issue := range results.Refs {
		meta := issue.Common()
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n",
			meta.Severity, meta.Check, jcheck.Describe(issue))
	}
}
