package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"RateProjector/internal/config"
)

// Set by the linker at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "projector",
	Short: "Fetch historical exchange rates and project one currency from another.",
	Long: `projector fetches one rates snapshot per date, fits a least-squares line
through the (x, y) symbol pairs and evaluates it at a query point.

Run once with "projector run" or keep it scheduled with "projector serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
