package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/rockburst/internal/config"
	"github.com/kartoza/rockburst/internal/logging"
)

// cfg is loaded before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rockburst",
	Short: "Rockburst grade predictor",
	Long: `Predict the rockburst tendency of a rock sample from its rock type,
in-situ stress, compressive and tensile strength and moisture.

Without a subcommand the prediction form is served and opened in a desktop window.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the parameter registry (overrides ROCKBURST_DATA_DIR)")
	rootCmd.PersistentFlags().String("model", "", "Parameter version to score with, e.g. rules-v1 or forest-v1")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json")

	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves flags, env and the optional config file, then
// configures logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	c, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.Version = version

	logging.Setup(c.LogLevel, c.LogFormat)
	cfg = c
	return nil
}
