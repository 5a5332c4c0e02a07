package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"infinite-experiment/kontrollburo/internal/auth"
	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/jobs"
	"infinite-experiment/kontrollburo/internal/models/dtos"

	"github.com/go-chi/chi/v5"
)

// JobsHandler exposes manual triggers for the background jobs. Used by the
// external cron in deployments with scheduled loops disabled, and by
// operators who do not want to wait for the next tick.
type JobsHandler struct {
	jobs    *jobs.Jobs
	history *repositories.SyncHistoryRepo
}

func NewJobsHandler(j *jobs.Jobs, history *repositories.SyncHistoryRepo) *JobsHandler {
	return &JobsHandler{jobs: j, history: history}
}

// TriggerJob handles POST /api/v1/admin/jobs/{name}/run
func (h *JobsHandler) TriggerJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var run func(context.Context) error
		switch name {
		case "endorsement-sync":
			run = h.jobs.EndorsementSync.Run
		case "endorsement-sync-full":
			run = h.jobs.EndorsementSync.RunFull
		case "roster-sync":
			run = h.jobs.RosterSync.Run
		case "roster-sync-full":
			run = h.jobs.RosterSync.RunFull
		case "notify":
			run = h.jobs.Notify.Run
		case "finalize":
			run = h.jobs.Finalize.Run
		default:
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown job %q", name))
			return
		}

		triggeredBy := "unknown"
		if claims := auth.GetClaims(r.Context()); claims != nil {
			triggeredBy = fmt.Sprintf("%s:%d", claims.Source(), claims.SubjectCID())
		}
		log.Printf("[JobsHandler] Job %s manually triggered by %s", name, triggeredBy)

		start := time.Now()
		if err := run(r.Context()); err != nil {
			log.Printf("[JobsHandler] Job %s failed: %v", name, err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Job failed: %v", err))
			return
		}

		resp := dtos.JobRunResponse{
			Job:          name,
			TriggeredBy:  triggeredBy,
			TriggeredAt:  start.Format(time.RFC3339),
			CompletedAt:  time.Now().Format(time.RFC3339),
			ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}

// GetJobStatus handles GET /api/v1/admin/jobs/status
func (h *JobsHandler) GetJobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type jobInfo struct {
			Event   string `json:"event"`
			LastRun string `json:"last_run,omitempty"`
		}

		infos := make([]jobInfo, 0, 4)
		for _, event := range []string{
			constants.SyncEventEndorsements,
			constants.SyncEventRoster,
			constants.SyncEventNotify,
			constants.SyncEventFinalize,
		} {
			info := jobInfo{Event: event}
			if last, err := h.history.GetLastSyncTime(r.Context(), event); err == nil && last != nil {
				info.LastRun = last.Format(time.RFC3339)
			}
			infos = append(infos, info)
		}

		data := struct {
			Jobs []jobInfo `json:"jobs"`
		}{infos}
		respondWithSuccess(w, http.StatusOK, &data)
	}
}
