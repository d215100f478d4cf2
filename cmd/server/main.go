package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/censusware/population-system/internal/api"
	"github.com/censusware/population-system/internal/core/ports"
	"github.com/censusware/population-system/internal/core/service"
	"github.com/censusware/population-system/internal/infrastructure/config"
	mongodb "github.com/censusware/population-system/internal/infrastructure/db/mongo"
	redisdb "github.com/censusware/population-system/internal/infrastructure/db/redis"
	"github.com/censusware/population-system/internal/infrastructure/queue"
	"github.com/censusware/population-system/pkg/logger"
)

// @title           Population Management System API
// @version         1.0
// @description     REST backend for hierarchical population data. Places nest
// @description     under parents and child counts cascade into the immediate
// @description     parent's totals.
// @BasePath        /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		MajorityWrites: cfg.Mongo.Transactions,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	userRepo := mongodb.NewUserRepository(db)
	placeRepo := mongodb.NewPlaceRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := placeRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("place index creation failed")
	}

	// --- Redis ---
	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	identityCache := redisdb.NewIdentityCache(redisClient)

	// --- Audit trail ---
	auditService := service.NewAuditService(auditRepo, log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, log)
	dispatcher.Start(ctx)

	// --- Transaction scope for the cascade write pair ---
	var tx ports.Transactor = service.NopTransactor{}
	if cfg.Mongo.Transactions {
		tx = mongodb.NewSessionTransactor(mongoClient)
		log.Info().Msg("mongodb transactions enabled for cascade writes")
	}

	// --- Core services ---
	authService := service.NewAuthService(
		userRepo, placeRepo, identityCache, dispatcher,
		cfg.JWTSecret, cfg.TokenTTL, log,
	)
	placeService := service.NewPlaceService(
		placeRepo, tx, service.ParseCascadeStrategy(cfg.CascadeStrategy),
		dispatcher, log,
	)

	// --- HTTP server ---
	e := api.NewRouter(api.RouterDeps{
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Auth:   authService,
		Places: placeService,
		Audit:  auditService,
		Log:    log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
