package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"RateProjector/internal/config"
	"RateProjector/internal/output"
	"RateProjector/internal/projector"
	"RateProjector/internal/recorder"
	"RateProjector/internal/scheduler"
)

var runFlags struct {
	mode     string
	point    float64
	year     int
	mock     bool
	format   string
	noColor  bool
	noRecord bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one projection and print the result.",
	Long: `Fetch every date of the query plan in order, fit the line and print the
per-date attempts and the projection. Ctrl+C stops fetching and fits what
was collected so far.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var rec recorder.Recorder = recorder.NewNoopRecorder()
		if !runFlags.noRecord {
			rec = openRecorder(cfg)
		}
		defer rec.Close()

		return runOnce(ctx, cmd, cfg, rec)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.mode, "mode", "", "Query plan: single or multi (overrides config)")
	f.Float64Var(&runFlags.point, "point", 0, "Query point on the x axis (overrides config)")
	f.IntVar(&runFlags.year, "year", 0, "Year to fetch (overrides config)")
	f.BoolVar(&runFlags.mock, "mock", false, "Use the built-in mock rates source")
	f.StringVarP(&runFlags.format, "output", "o", output.FormatTable, "Output format: table or json")
	f.BoolVar(&runFlags.noColor, "no-color", false, "Disable coloured output")
	f.BoolVar(&runFlags.noRecord, "no-record", false, "Do not store the run summary")
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("mode") {
		cfg.Query.Mode = runFlags.mode
	}
	if cmd.Flags().Changed("point") {
		cfg.Query.Point = runFlags.point
	}
	if cmd.Flags().Changed("year") {
		cfg.Query.Year = runFlags.year
	}
	if runFlags.mock {
		cfg.Source.Mock = true
	}
}

func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, rec recorder.Recorder) error {
	plan := cfg.Plan()
	keys, err := plan.Keys()
	if err != nil {
		return fmt.Errorf("plan keys: %w", err)
	}

	proj := projector.New(newCollector(cfg), cfg.Query.Point, nil)
	p, runErr := proj.Project(ctx, plan.Mode, keys)
	if p == nil {
		return runErr
	}
	if err := rec.RecordRun(recorder.NewRunRecord(scheduler.TriggerCLI, p)); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}

	opts := output.Options{
		Format:    runFlags.format,
		UseColors: !runFlags.noColor && !color.NoColor,
		XSymbol:   cfg.Source.XSymbol,
		YSymbol:   cfg.Source.YSymbol,
	}
	if err := output.WriteProjection(cmd.OutOrStdout(), p, opts); err != nil {
		return err
	}
	return runErr
}
