package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaswatch/gaswatch/agent/internal/config"
	"github.com/gaswatch/gaswatch/agent/internal/scraper"
	"github.com/gaswatch/gaswatch/agent/internal/security"
	"github.com/gaswatch/gaswatch/agent/internal/shipper"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("gaswatch-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"sources", len(cfg.Agent.Sources),
		"scrape_interval", cfg.Agent.ScrapeInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build scraper instances from the initial config.
	// Hot-reload updates logging only; rebuilding scrapers on reload is a
	// known followup.
	type source struct {
		src config.Source
		s   scraper.Scraper
	}
	var sources []source
	for _, src := range cfg.Agent.Sources {
		s, err := scraper.New(src)
		if err != nil {
			slog.Error("skipping source, could not build scraper", "source", src.ID, "err", err)
			continue
		}
		sources = append(sources, source{src: src, s: s})
		slog.Info("registered source", "id", src.ID, "type", src.Type, "endpoint", src.Endpoint)
	}

	if len(sources) == 0 {
		slog.Warn("no sources configured, agent will idle")
	}

	// Watch config file for hot-reload (logs only in this phase).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "sources", len(updated.Agent.Sources))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Check the TLS certificates of HTTPS sources at startup and once a day
	// so expiring certs show up in the log well before scrapes break.
	go func() {
		checkCerts := func() {
			for _, p := range sources {
				cs := security.Check(ctx, p.src)
				if cs == nil {
					continue
				}
				switch cs.Status {
				case "valid":
					slog.Info("source certificate ok",
						"source", p.src.ID, "issuer", cs.Issuer, "days_left", cs.DaysLeft)
				default:
					slog.Warn("source certificate problem",
						"source", p.src.ID, "status", cs.Status,
						"not_after", cs.NotAfter, "days_left", cs.DaysLeft)
				}
			}
		}
		checkCerts()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCerts()
			}
		}
	}()

	// Start the shipper, which runs until ctx is cancelled.
	ship, err := shipper.New(cfg.Agent)
	if err != nil {
		slog.Error("failed to build shipper", "err", err)
		os.Exit(1)
	}
	go ship.Run(ctx)

	// Scrape loop: poll each source every ScrapeInterval and ship the
	// composition readings.
	go func() {
		ticker := time.NewTicker(cfg.Agent.ScrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, p := range sources {
					res, err := p.s.Scrape(ctx)
					if err != nil {
						slog.Warn("scrape error", "source", p.src.ID, "err", err)
						continue
					}
					if res.Err != nil {
						slog.Warn("source reported no usable data", "source", p.src.ID, "err", res.Err)
						continue
					}
					ship.Ship(res.Sample())
					slog.Debug("shipped sample",
						"source", p.src.ID,
						"components", len(res.Composition),
					)
				}
			}
		}
	}()

	<-ctx.Done()
	slog.Info("gaswatch-agent shutting down")
}
