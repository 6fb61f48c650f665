package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set by main from -ldflags at build time.
var version = "dev"

// SetVersion records the build version
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "rockburst", version)
	},
}
