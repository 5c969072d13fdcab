package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fortyacres-backend/internal/application/scheduler"
	"fortyacres-backend/internal/config"
	"fortyacres-backend/internal/infrastructure/database"
	"fortyacres-backend/internal/interfaces/router"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "fortyacres-api"})

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle failed")
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("database connected")

	_, rdb, err := middleware.Session(middleware.SessionConfig{RedisURL: cfg.RedisURL})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Msg("redis connected")

	app, svcs := router.Build(cfg, db, rdb)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svcs.Tiers.Seed(seedCtx); err != nil {
		log.Fatal().Err(err).Msg("tier seed failed")
	}
	cancel()

	sched := scheduler.New()
	if _, err := sched.AddLotRelease(cfg.LotReleaseSchedule, svcs.Investments); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.LotReleaseSchedule).Msg("invalid LOT_RELEASE_SCHEDULE")
	}
	sched.Start()

	go func() {
		log.Info().Str("port", cfg.Port).Msgf("server running at http://localhost:%s (health: /health/json)", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	sched.Stop(ctx)
	_ = rdb.Close()
	_ = sqlDB.Close()
}
