package main

import (
	"log"

	"RateProjector/internal/collector"
	"RateProjector/internal/config"
	"RateProjector/internal/recorder"
)

// newCollector assembles the fetch stage from config.
func newCollector(cfg *config.Config) *collector.Collector {
	builder := &collector.RatesRequestBuilder{
		BaseURL: cfg.Source.BaseURL,
		APIKey:  cfg.Source.APIKey,
		XSymbol: cfg.Source.XSymbol,
		YSymbol: cfg.Source.YSymbol,
	}
	decoder := &collector.RatesDecoder{XSymbol: cfg.Source.XSymbol, YSymbol: cfg.Source.YSymbol}

	var transport collector.Transport
	var probe collector.Probe
	if cfg.Source.Mock {
		transport = &collector.MockTransport{XSymbol: cfg.Source.XSymbol, YSymbol: cfg.Source.YSymbol}
		log.Println("[INFO] data source: mock")
	} else {
		transport = collector.NewHTTPTransport(cfg.Proxy, cfg.RequestTimeout())
		log.Printf("[INFO] data source: %s", cfg.Source.BaseURL)
		if !cfg.Probe.Disabled && cfg.Probe.Address != "" {
			probe = &collector.DialProbe{Address: cfg.Probe.Address, Timeout: cfg.ProbeTimeout()}
		}
	}
	return collector.NewCollector(builder, transport, decoder, probe, cfg.RequestTimeout())
}

// openRecorder falls back to a no-op recorder when SQLite is unavailable.
func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
