// Package main is the entry point for the charter broker API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/charter-broker/internal/config"
	"github.com/pkordes/charter-broker/internal/geocode"
	"github.com/pkordes/charter-broker/internal/handler"
	"github.com/pkordes/charter-broker/internal/matching"
	"github.com/pkordes/charter-broker/internal/middleware"
	"github.com/pkordes/charter-broker/internal/notify"
	"github.com/pkordes/charter-broker/internal/repo"
	"github.com/pkordes/charter-broker/internal/service"
	"github.com/pkordes/charter-broker/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	if err := migrate(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	repos := repo.NewRepos(pool)
	operators := repo.NewOperatorRepo(pool)
	coverages := repo.NewCoverageRepo(pool)
	tx := repo.NewTransactor(pool)

	// --- Matching ---------------------------------------------------------
	// Redis is optional. Without it matching reads coverage straight from
	// Postgres and no-coverage signals are only logged.
	var (
		source      matching.CoverageSource = coverages
		signals     matching.NoCoverageRecorder
		signalStore handler.SignalReader
		invalidator service.SnapshotInvalidator
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable; cache calls will fall back to postgres", "addr", cfg.RedisAddr, "error", err)
		}
		cached := matching.NewCachedCoverageSource(rdb, coverages, cfg.CoverageCacheTTL, logger)
		source, invalidator = cached, cached
		rs := matching.NewRedisSignals(rdb)
		signals, signalStore = rs, rs
		slog.Info("coverage cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CoverageCacheTTL)
	}

	// --- Notifications ----------------------------------------------------
	var (
		operatorNotifier  matching.OperatorNotifier
		requesterNotifier service.RequesterNotifier
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer := notify.NewProducer(cfg.KafkaBrokers, cfg.NotificationsTopic, logger)
		defer producer.Close()
		operatorNotifier, requesterNotifier = producer, producer
		slog.Info("notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.NotificationsTopic)
	}

	// --- Geocoding --------------------------------------------------------
	var geocoder service.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geocode.New(cfg.GoogleMapsAPIKey, cfg.GeocodeRegion)
		if err != nil {
			slog.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = g
	}

	orchestrator := matching.NewOrchestrator(source, operatorNotifier, signals, logger)
	requestSvc := service.NewRequestService(repos, tx, orchestrator, logger, nil)
	quoteSvc := service.NewQuoteService(operators, tx, requesterNotifier, logger, nil)
	operatorSvc := service.NewOperatorService(operators, coverages, geocoder, invalidator, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → rate limit. RateLimiter keys on the address
	// RealIP resolved, so it must come after it.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)

	srv := handler.NewServer(requestSvc, quoteSvc, operatorSvc, logger)
	if signalStore != nil {
		srv.WithSignals(signalStore)
	}
	r.Mount("/", srv.Handler())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations over a short-lived database/sql
// connection.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
