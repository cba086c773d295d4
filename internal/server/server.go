package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/config"
	"github.com/mpapanik/tariff-scout/internal/database"
	"github.com/mpapanik/tariff-scout/internal/modules/analytics"
	"github.com/mpapanik/tariff-scout/internal/modules/dashboard"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
	"github.com/mpapanik/tariff-scout/internal/modules/recommendations"
	"github.com/mpapanik/tariff-scout/internal/modules/refdata"
	"github.com/mpapanik/tariff-scout/internal/modules/reports"
	"github.com/mpapanik/tariff-scout/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	DB      *database.DB
	Config  *config.Config
	DevMode bool

	Store           *refdata.Store
	Recommendations *recommendations.Service
	DecisionsRepo   *decisions.Repository
	Scheduler       *scheduler.Scheduler
	RefreshJob      scheduler.Job
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	db     *database.DB
	cfg    *config.Config

	store      *refdata.Store
	recs       *recommendations.Service
	repo       *decisions.Repository
	scheduler  *scheduler.Scheduler
	refreshJob scheduler.Job
	startedAt  time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		db:         cfg.DB,
		cfg:        cfg.Config,
		store:      cfg.Store,
		recs:       cfg.Recommendations,
		repo:       cfg.DecisionsRepo,
		scheduler:  cfg.Scheduler,
		refreshJob: cfg.RefreshJob,
		startedAt:  time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// Prometheus metrics
	s.router.Handle("/metrics", promhttp.Handler())

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			r.Post("/refresh", s.handleTriggerRefresh)
		})

		s.setupSourcingRoutes(r)
	})
}

// setupSourcingRoutes wires the sourcing module handlers.
func (s *Server) setupSourcingRoutes(r chi.Router) {
	recHandler := recommendations.NewHandler(s.recs, s.log)
	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/", recHandler.HandleList)
		r.Post("/bulk-approve", recHandler.HandleBulkApprove)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recHandler.HandleGet)
			r.Post("/approve", recHandler.HandleApprove)
			r.Post("/reject", recHandler.HandleReject)
			r.Post("/more-options", recHandler.HandleMoreOptions)
			r.Put("/allocations", recHandler.HandleSetAllocation)
			r.Post("/selection", recHandler.HandleToggleSelection)
			r.Delete("/alternatives/{altID}", recHandler.HandleRemoveAlternative)
		})
	})

	decisionsHandler := decisions.NewHandler(s.repo, s.log)
	r.Get("/decisions", decisionsHandler.HandleList)

	dashboardService := dashboard.NewService(s.recs, s.repo, s.log)
	dashboardHandler := dashboard.NewHandler(dashboardService, s.log)
	r.Get("/dashboard/metrics", dashboardHandler.HandleMetrics)

	analyticsService := analytics.NewService(s.store, s.log)
	analyticsHandler := analytics.NewHandler(analyticsService, s.log)
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/categories", analyticsHandler.HandleCategories)
		r.Get("/countries", analyticsHandler.HandleCountries)
		r.Get("/most-affected", analyticsHandler.HandleMostAffected)
		r.Get("/stock-impact", analyticsHandler.HandleStockImpact)
		r.Get("/trend", analyticsHandler.HandleTrend)
		r.Get("/impact-stats", analyticsHandler.HandleImpactStats)
	})

	reportsService := reports.NewService(analyticsService, s.store, s.repo, s.log)
	reportsHandler := reports.NewHandler(reportsService, s.log)
	r.Get("/reports", reportsHandler.HandleGenerate)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
