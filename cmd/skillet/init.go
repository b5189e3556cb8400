package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type InitConfig struct {
	Global      bool
	Description string
	Keywords    []string
}

func NewInitConfig() *InitConfig {
	return &InitConfig{}
}

var initCmd = &cobra.Command{
	Use:   "init <skill-name>",
	Short: "Scaffold a new skill",
	Long: `Create a new skill directory with a SKILL.md template.

Examples:
  skillet init code-review --description "Review pull requests" --keywords review,git
  skillet init deploy-runbook -g`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getInitConfigFromFlags(cmd)
		initSkillCommand(args[0], config)
	},
}

func init() {
	defaults := NewInitConfig()
	initCmd.Flags().BoolP("global", "g", defaults.Global, "Create under the global ~/.skillet/skills directory instead of ./.skillet/skills")
	initCmd.Flags().StringP("description", "d", defaults.Description, "Skill description")
	initCmd.Flags().StringSliceP("keywords", "k", defaults.Keywords, "Comma-separated search keywords")
}

func getInitConfigFromFlags(cmd *cobra.Command) *InitConfig {
	config := NewInitConfig()
	if global, err := cmd.Flags().GetBool("global"); err == nil {
		config.Global = global
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if keywords, err := cmd.Flags().GetStringSlice("keywords"); err == nil {
		config.Keywords = keywords
	}
	return config
}

func skillsRoot(global bool) (string, error) {
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get user home directory")
		}
		return filepath.Join(home, ".skillet", "skills"), nil
	}
	return filepath.Join(".skillet", "skills"), nil
}

func initSkillCommand(name string, config *InitConfig) {
	root, err := skillsRoot(config.Global)
	if err != nil {
		presenter.Error(err, "Failed to determine skills directory")
		os.Exit(1)
	}

	path, err := skills.Scaffold(root, name, config.Description, config.Keywords)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to create skill %q", name))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Created skill %q at %s", name, path))
	presenter.Info("Edit the SKILL.md body with the knowledge the skill should carry.")
}
