package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"RateProjector/internal/output"
)

var historyFlags struct {
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded projection runs, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rec := openRecorder(cfg)
		defer rec.Close()

		runs, err := rec.RecentRuns(historyFlags.limit)
		if err != nil {
			return err
		}
		return output.WriteHistory(cmd.OutOrStdout(), runs, output.Options{
			Format:    historyFlags.format,
			UseColors: !color.NoColor,
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "l", 20, "Number of runs to show")
	historyCmd.Flags().StringVarP(&historyFlags.format, "output", "o", output.FormatTable, "Output format: table or json")
}
