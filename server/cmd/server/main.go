package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/server/internal/alerts"
	"github.com/gaswatch/gaswatch/server/internal/analyzer"
	"github.com/gaswatch/gaswatch/server/internal/api"
	"github.com/gaswatch/gaswatch/server/internal/auth"
	"github.com/gaswatch/gaswatch/server/internal/config"
	"github.com/gaswatch/gaswatch/server/internal/receiver"
	"github.com/gaswatch/gaswatch/server/internal/store"
	"github.com/gaswatch/gaswatch/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("gaswatch-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"analysis_ttl", cfg.Server.Analysis.TTL,
		"default_profile", cfg.Server.Analysis.DefaultProfile,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Analysis store with background TTL eviction.
	st := store.New(cfg.Server.Analysis.TTL)
	go st.Run(ctx)

	// Analyzer — validates compositions, derives indices, checks compliance.
	an := analyzer.New(
		gas.Default(),
		cfg.Server.Analysis.Tolerance,
		cfg.Server.Analysis.DefaultProfile,
		cfg.Server.Profiles,
	)

	// Alerts engine — evaluates rules on every incoming analysis.
	alertEngine := alerts.New(cfg.Server.Alerts)

	// WebSocket hub — broadcasts the analysis snapshot to clients.
	hub := ws.New(st, cfg.Server.Broadcast)
	go hub.Run(ctx)

	// Combined HTTP server: ingest + REST API + WebSocket hub, all behind the
	// optional API key middleware.
	mux := http.NewServeMux()
	mux.Handle("/api/v1/samples", methodSplit(
		receiver.New(an, st, alertEngine),
		api.New(st, an, alertEngine),
	))
	mux.Handle("/api/", api.New(st, an, alertEngine))
	mux.Handle("/ws/stream", hub)

	mw := auth.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mw(mux),
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("gaswatch-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// methodSplit routes POST to ingest and everything else to the API, so
// /api/v1/samples serves both the agent ingest and the read endpoint.
func methodSplit(post, rest http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			post.ServeHTTP(w, r)
			return
		}
		rest.ServeHTTP(w, r)
	})
}
