package main

import (
	"fmt"
	"os"

	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/lightpattern/skillet/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		short, _ := cmd.Flags().GetBool("short")
		jsonOut, _ := cmd.Flags().GetBool("json")

		info := version.Get()
		switch {
		case short:
			fmt.Println(info.Version)
		case jsonOut:
			out, err := info.JSON()
			if err != nil {
				presenter.Error(err, "Failed to render version info")
				os.Exit(1)
			}
			fmt.Println(out)
		default:
			fmt.Println(info.String())
		}
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version number")
	versionCmd.Flags().Bool("json", false, "Print version info as JSON")
}
