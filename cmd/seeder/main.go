package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"travel_companion/internal/adapters/catalog"
	"travel_companion/internal/adapters/observability"
	redisad "travel_companion/internal/adapters/redis"
	"travel_companion/internal/app"
	"travel_companion/internal/domain"
	"travel_companion/internal/shared"
	mysqlrepo "travel_companion/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel, "seeder")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.SeedHotels) == 0 {
		log.Fatal().Msg("SEED_HOTEL_IDS is empty; nothing to seed")
	}
	log.Info().
		Str("base", cfg.CatalogBase).
		Int("workers", cfg.SeedWorkers).
		Int("hotels", len(cfg.SeedHotels)).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}

	// Cached copies of re-seeded hotels must go; without Redis there is nothing to evict.
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}

	seed := app.NewIngestionService(client, mysqlrepo.New(db), cache, cfg.DefaultTotalRooms)
	var failed atomic.Int64

	// acquire before launching the goroutine; release inside it
	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range cfg.SeedHotels {
		if err := sem.Acquire(gctx, 1); err != nil {
			log.Warn().Err(err).Msg("seeding interrupted")
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := seed.SeedHotel(gctx, id); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", id).Err(err).Msg("seed failed")
				return nil
			}
			log.Info().Int64("id", id).Msg("seed ok")
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Int64("failed", failed.Load()).Int("total", len(cfg.SeedHotels)).Msg("seeding completed")
}
