// Package main provides the entry point for the usageref worker service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/usageref/internal/config"
	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
	"github.com/thebtf/usageref/internal/privacy"
	"github.com/thebtf/usageref/internal/seed"
	"github.com/thebtf/usageref/internal/worker"
)

var Version = "dev"

func main() {
	seedPath := flag.String("seed", "", "YAML fixture to load before serving")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare data directory")
	}
	cfg := config.Get()
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	log.Info().
		Str("version", Version).
		Msg("Starting usageref worker")

	sqlLevel := logger.Warn
	if cfg.LogSQL {
		sqlLevel = logger.Info
	}
	store, err := dbgorm.NewStore(dbgorm.Config{
		DSN:      cfg.DBDSN,
		MaxConns: cfg.MaxConns,
		LogLevel: sqlLevel,
	})
	if err != nil {
		log.Fatal().
			Str("error", privacy.RedactSecrets(err.Error())).
			Str("dsn", privacy.RedactDSN(cfg.DBDSN)).
			Msg("Failed to open database")
	}

	if *seedPath != "" {
		if err := loadSeed(store, *seedPath); err != nil {
			_ = store.Close()
			log.Fatal().Err(err).Str("path", *seedPath).Msg("Failed to seed database")
		}
	}

	svc := worker.NewService(Version, cfg, store)
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Received shutdown signal")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

func loadSeed(store *dbgorm.Store, path string) error {
	fixture, err := seed.Load(path)
	if err != nil {
		return err
	}

	ctx, cancel := store.WithTimeout(context.Background(), dbgorm.SlowQueryTimeout, "seed")
	defer cancel()

	_, err = seed.Apply(ctx, seed.Stores{
		Members:  dbgorm.NewMemberStore(store),
		Teams:    dbgorm.NewTeamStore(store),
		Products: dbgorm.NewProductStore(store),
		Orders:   dbgorm.NewOrderStore(store),
	}, fixture)
	return err
}
