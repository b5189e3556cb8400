package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available skills",
	Long:  `List every skill found in the configured skills directories with name, keywords, and description.`,
	Run: func(cmd *cobra.Command, _ []string) {
		listSkillsCommand(cmd)
	},
}

func listSkillsCommand(cmd *cobra.Command) {
	ctx := cmd.Context()

	config, err := loadConfig()
	if err != nil {
		presenter.Error(err, "invalid configuration")
		os.Exit(1)
	}

	index, err := buildIndex(ctx, config)
	if err != nil {
		presenter.Error(err, "failed to scan skills directories")
		os.Exit(1)
	}

	for _, d := range index.Diagnostics() {
		presenter.Warning(fmt.Sprintf("%s: %s", d.Path, d.Detail))
	}

	all := index.ListAll()
	if len(all) == 0 {
		presenter.Info("No skills found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tTOKENS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-------\t------\t-----------")

	for _, md := range all {
		description := md.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", md.Name, md.Version, md.EstimatedTokens, description)
	}
	tw.Flush()
}
