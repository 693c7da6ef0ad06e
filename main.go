package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/catalog"
	"github.com/robalobadob/brainarcade/internal/config"
	"github.com/robalobadob/brainarcade/internal/httpserver"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// run owns every resource main opens, so deferred cleanup happens before a fatal exit.
func run(cfg *config.Config) error {
	if err := catalog.Init(); err != nil {
		return fmt.Errorf("load game catalog: %w", err)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	prog, closeProg, err := openProgress(cfg, db)
	if err != nil {
		return fmt.Errorf("progress store %s: %w", cfg.Progress.Backend, err)
	}
	defer closeProg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg, db, catalog.Default(), store.NewMemoryStore(), prog)
	go srv.RunJanitor(ctx, time.Minute)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("progress", cfg.Progress.Backend).Msg("starting brainarcade")
		errc <- srv.Start(":" + cfg.Port)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errc:
		log.Error().Err(serveErr).Msg("listener stopped")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	return serveErr
}

// openProgress builds the configured progress backend and its cleanup.
func openProgress(cfg *config.Config, db *sql.DB) (progress.Store, func(), error) {
	switch cfg.Progress.Backend {
	case config.BackendMemory:
		return progress.NewMemoryStore(), func() {}, nil
	case config.BackendSQLite:
		return progress.NewSQLiteStore(db), func() {}, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Progress.RedisAddr,
			Password: cfg.Progress.RedisPassword,
			DB:       cfg.Progress.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Progress.RedisAddr, err)
		}
		return progress.NewRedisStore(rdb, cfg.Progress.RedisPrefix), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown progress backend %q", cfg.Progress.Backend)
	}
}
