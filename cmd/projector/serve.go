package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"RateProjector/internal/api"
	"RateProjector/internal/config"
	"RateProjector/internal/metrics"
	"RateProjector/internal/notifier"
	"RateProjector/internal/projector"
	"RateProjector/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run projections on a schedule and serve the HTTP API.",
	Long: `Keep running: project on the configured cron schedule, answer Telegram
commands when a bot is configured, serve the HTTP API and reload the query
plan whenever the config file changes. Set RUN_ON_START=true to project
immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Println("[INFO] RateProjector starting...")

	rec := openRecorder(cfg)
	defer rec.Close()

	reg := metrics.New()
	proj := projector.New(newCollector(cfg), cfg.Query.Point, reg)

	var n scheduler.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Println("[INFO] telegram not configured, notifications disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	sched := scheduler.NewScheduler(gctx, proj, cfg.Plan(), rec, n, cfg.Source.XSymbol, cfg.Source.YSymbol)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		g.Go(func() error {
			log.Println("[INFO] Telegram polling started")
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.New(sched, reg.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Printf("[INFO] HTTP API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if _, err := os.Stat(cfgPath); err == nil {
		g.Go(func() error {
			err := config.Watch(gctx, cfgPath, func(c *config.Config) {
				sched.SetQuery(c.Plan(), c.Query.Point)
			})
			if err != nil {
				log.Printf("[WARN] config watch disabled: %v", err)
			}
			return nil
		})
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing projection now")
		g.Go(func() error {
			sched.RunNow()
			return nil
		})
	}

	log.Println("[INFO] RateProjector is running. Press Ctrl+C to stop.")
	err := g.Wait()
	log.Println("[INFO] RateProjector stopped")
	return err
}
