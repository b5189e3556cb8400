package main

import (
	"fmt"
	"os"

	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <skill-name>",
	Short: "Print a skill's full content",
	Long: `Print the body of a skill (frontmatter stripped) to stdout. This is the
same content the MCP load_skill tool returns, useful for piping into
other tools or eyeballing what an agent would receive.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		loadSkillCommand(cmd, args[0])
	},
}

func loadSkillCommand(cmd *cobra.Command, name string) {
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

	md, err := index.GetMetadata(name)
	if err != nil {
		presenter.Error(err, "Skill not found")
		os.Exit(1)
	}

	content, err := os.ReadFile(md.Path)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to read %s", md.Path))
		os.Exit(1)
	}

	fmt.Print(skills.StripFrontmatter(string(content)))
}
