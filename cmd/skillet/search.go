package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/lightpattern/skillet/pkg/loadstate"
	"github.com/lightpattern/skillet/pkg/manager"
	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/lightpattern/skillet/pkg/search"
	"github.com/spf13/cobra"
)

type SearchConfig struct {
	Limit int
}

func NewSearchConfig() *SearchConfig {
	return &SearchConfig{
		Limit: manager.DefaultSearchLimit,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search available skills from the command line",
	Long: `Rank skills against a query using the keyword strategy. This is an
offline convenience for inspecting the registry; the MCP server adds
embedding similarity on top of the same ranking surface.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSearchConfigFromFlags(cmd)
		searchSkillsCommand(cmd, strings.Join(args, " "), config)
	},
}

func init() {
	defaults := NewSearchConfig()
	searchCmd.Flags().IntP("limit", "n", defaults.Limit, "Maximum number of results")
}

func getSearchConfigFromFlags(cmd *cobra.Command) *SearchConfig {
	config := NewSearchConfig()
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	return config
}

func searchSkillsCommand(cmd *cobra.Command, query string, searchCfg *SearchConfig) {
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

	mgr := manager.New(index, loadstate.NewStore(), search.NewEngine())
	result := mgr.SearchSkills(ctx, query, searchCfg.Limit)

	if result.TotalFound == 0 {
		presenter.Info(fmt.Sprintf("No skills matched %q", query))
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCORE\tMATCH")
	fmt.Fprintln(tw, "----\t-----\t-----")
	for _, r := range result.Results {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\n", r.Name, r.Score, r.MatchReason)
	}
	tw.Flush()
}
