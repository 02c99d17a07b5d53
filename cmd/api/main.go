package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "travel_companion/internal/adapters/amqp"
	server "travel_companion/internal/adapters/http_server"
	"travel_companion/internal/adapters/observability"
	redisad "travel_companion/internal/adapters/redis"
	"travel_companion/internal/app"
	"travel_companion/internal/domain"
	"travel_companion/internal/shared"
	"travel_companion/internal/storage/memory"
	mysqlrepo "travel_companion/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(cfg)
	defer closeStore()

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, hotel cache disabled")
			_ = rc.Close()
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	var events domain.EventPublisher
	if cfg.AMQPURL != "" {
		events = amqpad.New(cfg.AMQPURL, cfg.AMQPQueue)
	}

	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	b := app.NewBookingService(store, cache, events, cfg.DefaultTotalRooms)

	// http
	srv := server.New(log.Logger)
	reg := observability.InitRegistry()
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		ms, err := observability.Serve(cfg.MetricsAddr, reg)
		if err != nil {
			log.Fatal().Err(err).Msg("metrics server failed")
		}
		metricsSrv = ms
	} else {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(server.NewHandlers(q, b))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("storage", cfg.StorageDriver).
		Bool("cache", cache != nil).
		Bool("events", events != nil).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) (domain.BookingStore, func()) {
	if cfg.StorageDriver == shared.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }
}
