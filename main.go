package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/config"
	"github.com/perfwatcher/perfwatcherd/frontend"
	"github.com/perfwatcher/perfwatcherd/handlers"
	"github.com/perfwatcher/perfwatcherd/jsonrpc"
	"github.com/perfwatcher/perfwatcherd/logger"
	"github.com/perfwatcher/perfwatcherd/metricsource"
	"github.com/perfwatcher/perfwatcherd/snapshot"
	"github.com/perfwatcher/perfwatcherd/storage"
	"github.com/perfwatcher/perfwatcherd/tick"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "perfwatcherd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Flush(log.Logger)

	log.Logger.Info("starting perfwatcherd",
		zap.Int("port", cfg.Port),
		zap.Int("max_clients", cfg.MaxClients),
		zap.Int("cache_expiration_s", cfg.JsonrpcCacheExpirationTime),
	)

	store, err := storage.NewSQLite(cfg.DiagnosticsDBPath, log.Logger)
	if err != nil {
		return fmt.Errorf("open diagnostics store: %w", err)
	}
	defer store.Close()

	sources := metricsource.New(log.Logger)
	// A real deployment registers the host daemon's own feeds here; an
	// empty registry is valid too (GetNames returns an empty index until
	// something is added).

	table := snapshot.New(sources, time.Duration(cfg.JsonrpcCacheExpirationTime)*time.Second, log.Logger)

	reg := jsonrpc.NewRegistry()
	handlers.New(table, cfg.Datadir, log).RegisterAll(reg)

	counters := frontend.NewCounters(cfg.MaxClients)
	srv := frontend.New(fmt.Sprintf(":%d", cfg.Port), reg, counters, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the cache once before serving so the first request doesn't
	// race an empty table.
	if err := table.Refresh(ctx); err != nil {
		log.Logger.Warn("initial snapshot refresh failed", zap.Error(err))
	}

	ticker := tick.New(time.Duration(cfg.JsonrpcCacheExpirationTime)*time.Second, table, counters, store, log.Logger)
	go ticker.Run(ctx)

	config.WatchForChanges(v, log.Logger, func(newCfg *config.Config) {
		counters.SetMaxClients(newCfg.MaxClients)
		table.SetExpiration(time.Duration(newCfg.JsonrpcCacheExpirationTime) * time.Second)
		log.Logger.Info("configuration reloaded",
			zap.Int("max_clients", newCfg.MaxClients),
			zap.Int("cache_expiration_s", newCfg.JsonrpcCacheExpirationTime),
		)
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-stop:
		log.Logger.Info("shutdown initiated", zap.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}

	log.Logger.Info("perfwatcherd exiting")
	return nil
}
