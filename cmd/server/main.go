package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpapanik/tariff-scout/internal/clients/recommender"
	"github.com/mpapanik/tariff-scout/internal/config"
	"github.com/mpapanik/tariff-scout/internal/database"
	"github.com/mpapanik/tariff-scout/internal/events"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
	"github.com/mpapanik/tariff-scout/internal/modules/recommendations"
	"github.com/mpapanik/tariff-scout/internal/modules/refdata"
	"github.com/mpapanik/tariff-scout/internal/scheduler"
	"github.com/mpapanik/tariff-scout/internal/server"
	"github.com/mpapanik/tariff-scout/internal/telemetry"
	"github.com/mpapanik/tariff-scout/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Tariff Scout")

	// Register prometheus collectors
	telemetry.Init()

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := decisions.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize decision schema")
	}

	// Event manager
	em := events.NewManager(log)

	// Reference data
	store := refdata.NewStore(refdata.NewLoader(log), refdata.Paths{
		Products:     cfg.ProductsCSV,
		Replacements: cfg.ReplacementsCSV,
		Tariffs:      cfg.TariffsCSV,
	}, log)

	// Decision log + recommendation registry
	decisionsRepo := decisions.NewRepository(db.Conn(), log)
	recommenderClient := recommender.NewClient(cfg.RecommenderURL, log)
	recService := recommendations.NewService(decisionsRepo, recommenderClient, em, log)

	// Initial load; a missing feed degrades to an empty collection.
	refreshJob := refdata.NewRefreshJob(store, recService, em, log)
	if err := refreshJob.Run(); err != nil {
		log.Warn().Err(err).Msg("Initial reference data load incomplete")
	}

	// Initialize scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,

		Store:           store,
		Recommendations: recService,
		DecisionsRepo:   decisionsRepo,
		Scheduler:       sched,
		RefreshJob:      refreshJob,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
