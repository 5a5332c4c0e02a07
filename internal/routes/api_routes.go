package routes

import (
	"infinite-experiment/kontrollburo/internal/api"
	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers. Kept separate
// from the main router setup.
func RegisterAPIRoutes(r chi.Router, cfg *config.Config, deps *api.Dependencies,
	activityHandler *api.ActivityHandler, jobsHandler *api.JobsHandler) {

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.RateLimitMiddleware)
		v1.Use(middleware.AuthMiddleware(deps.Repo.Keys, cfg.JWTSecret))

		// Subject reads and the on-demand refresh
		v1.Get("/subjects/{cid}/status", activityHandler.GetSubjectStatus())
		v1.Get("/subjects/{cid}/waiting-hours", activityHandler.GetWaitingHours())
		v1.Post("/subjects/{cid}/refresh", activityHandler.ForceRefresh())

		// Dashboard tallies
		v1.Get("/stats/states", api.StateCountsHandler(deps.Repo.Stats))

		// Operator-initiated removal actions
		v1.Group(func(ops chi.Router) {
			ops.Use(middleware.RequireRemovalManager())
			ops.Post("/endorsements/{id}/mark-removal", activityHandler.MarkEndorsementRemoval())
			ops.Post("/roster/{cid}/mark-removal", activityHandler.MarkRosterRemoval())

			ops.Post("/admin/jobs/{name}/run", jobsHandler.TriggerJob())
			ops.Get("/admin/jobs/status", jobsHandler.GetJobStatus())
		})
	})
}
