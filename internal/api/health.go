package api

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// HealthCheckHandler handles GET /healthCheck. Besides the database probe it
// reports how long ago each background job last completed, which is the
// first thing to look at when removals stop moving.
func HealthCheckHandler(db *sqlx.DB, historyRepo *repositories.SyncHistoryRepo, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]entities.ServiceStatus)

		// Check postgres
		pgstatus := "ok"
		pgDetails := "Postgres Connected"
		if err := db.Ping(); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = entities.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		for _, event := range []string{
			constants.SyncEventEndorsements,
			constants.SyncEventRoster,
			constants.SyncEventNotify,
			constants.SyncEventFinalize,
		} {
			status := "ok"
			details := "never run"
			last, err := historyRepo.GetLastSyncTime(r.Context(), event)
			switch {
			case err != nil:
				status = "down"
				details = err.Error()
			case last != nil:
				age := time.Since(*last).Round(time.Second)
				details = "last run " + age.String() + " ago"
				if age > 24*time.Hour {
					status = "stale"
				}
			}
			services["job:"+event] = entities.ServiceStatus{
				Status:  status,
				Details: details,
			}
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status == "down" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StateCountsHandler handles GET /api/v1/stats/states: the per-state record
// tallies for the operator dashboard.
func StateCountsHandler(statsRepo *repositories.StatsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endorsements, err := statsRepo.EndorsementStateCounts(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to count endorsement states")
			return
		}
		roster, err := statsRepo.RosterStateCounts(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to count roster states")
			return
		}

		data := struct {
			Endorsements *entities.StateCounts `json:"endorsements"`
			Roster       *entities.StateCounts `json:"roster"`
		}{endorsements, roster}

		respondWithSuccess(w, http.StatusOK, &data)
	}
}
