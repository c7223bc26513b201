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
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/p-arndt/sandpool/internal/api"
	"github.com/p-arndt/sandpool/internal/config"
	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/journal"
	"github.com/p-arndt/sandpool/internal/pool"
	"github.com/p-arndt/sandpool/internal/reaper"
	"github.com/p-arndt/sandpool/internal/registry"
)

func main() {
	cfgPath := flag.String("config", "", "path to sandpool.yaml")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		logger.Warn("no API key configured, running in open access mode")
	}

	dc, err := docker.New()
	if err != nil {
		logger.Error("docker client", "error", err)
		os.Exit(1)
	}
	defer dc.Close()

	reg := registry.New(&redisv9.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.Ping(ctx); err != nil {
		logger.Error("redis ping failed, is Redis running?", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("redis connection OK", "addr", cfg.RedisAddr)

	jnl, err := journal.New(cfg.JournalPath)
	if err != nil {
		logger.Error("open journal", "path", cfg.JournalPath, "error", err)
		os.Exit(1)
	}
	defer jnl.Close()

	rpr := reaper.New(dc, reg,
		time.Duration(cfg.StopTimeoutSeconds)*time.Second,
		time.Duration(cfg.ReconcileIntervalSeconds)*time.Second,
		logger)

	mgr := pool.New(cfg, dc, reg, rpr, logger)

	// Every pool event lands in the journal; journal failures must never
	// block lifecycle operations.
	mgr.OnEvent(func(e pool.Event) {
		if err := jnl.Append(string(e.Type), e.WorkloadID, e.SandboxID, e.Status); err != nil {
			logger.Error("journal append", "type", e.Type, "error", err)
		}
	})

	// Initialize pings Docker, prepares the base image, runs the startup
	// reconciliation pass, and seeds the warm pool.
	if err := mgr.Initialize(ctx); err != nil {
		logger.Error("pool initialization failed", "error", err)
		os.Exit(1)
	}

	// Periodic sweeps after the startup pass.
	go rpr.Run(ctx)

	srv := api.NewServer(cfg, mgr, jnl, logger)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // exec can be long
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		mgr.StopAll(stopCtx)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Listen)
	fmt.Fprintf(os.Stderr, "\n  sandpool daemon ready at http://%s\n\n", cfg.Listen)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
