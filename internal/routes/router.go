package routes

import (
	"context"
	"net/http"
	"time"

	"infinite-experiment/kontrollburo/internal/api"
	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/db"
	"infinite-experiment/kontrollburo/internal/jobs"
	"infinite-experiment/kontrollburo/internal/logging"
	"infinite-experiment/kontrollburo/internal/metrics"
	"infinite-experiment/kontrollburo/internal/middleware"
	"infinite-experiment/kontrollburo/internal/services"
	"infinite-experiment/kontrollburo/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func RegisterRoutes(cfg *config.Config, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// Initialize metrics registry
	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// Initialize dependencies using DI pattern
	deps, err := api.InitDependencies(cfg)
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, deps.Repo.SyncHistory, upSince))

	// Background jobs share the providers (and the session log rate limiter)
	// with the request path.
	jobsContainer := jobs.InitializeJobs(
		context.Background(),
		cfg,
		db.PgDB,
		deps.Providers.Registry,
		deps.Providers.Sessions,
		deps.Providers.Notifier,
		deps.Services.Policy,
		metricsReg,
	)

	workers.InitWorkers(cfg, deps.Services.Policy)

	statusSvc := services.NewActivityStatusService(
		deps.Repo.Endorsements,
		deps.Repo.Roster,
		deps.Providers.Sessions,
		jobsContainer.EndorsementSync,
		jobsContainer.RosterSync,
		cfg.Endorsement,
		cfg.Roster,
		cfg.WaitingListWindowDays,
	)

	activityHandler := api.NewActivityHandler(statusSvc)
	jobsHandler := api.NewJobsHandler(jobsContainer, deps.Repo.SyncHistory)

	RegisterAPIRoutes(r, cfg, deps, activityHandler, jobsHandler)

	return r
}
