package main

import (
	"fmt"
	"os"

	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLET")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillet")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "Skillet is an MCP server for on-demand agent skills",
	Long: `Skillet serves a directory tree of SKILL.md files to MCP clients with
hybrid semantic and keyword search, on-demand loading, and explicit
context-token accounting.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// The MCP protocol owns stdout, so all logging goes to stderr
		// regardless of which subcommand runs.
		logger.SetLogOutput(os.Stderr)
		logger.SetLogFormat(viper.GetString("log_format"))
		return logger.SetLogLevel(viper.GetString("log_level"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")
	rootCmd.PersistentFlags().StringSlice("skills-dirs", nil, "Skills directories to scan (overrides config)")
	rootCmd.PersistentFlags().String("profile", "", "Named configuration profile to apply")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("skills_dirs", rootCmd.PersistentFlags().Lookup("skills-dirs"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))

	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
