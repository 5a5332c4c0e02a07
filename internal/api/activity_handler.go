package api

import (
	"net/http"
	"strconv"

	"infinite-experiment/kontrollburo/internal/providers"
	"infinite-experiment/kontrollburo/internal/services"

	"github.com/go-chi/chi/v5"
)

// ActivityHandler serves the subject-facing reads and the operator actions
// on individual records.
type ActivityHandler struct {
	status *services.ActivityStatusService
}

func NewActivityHandler(status *services.ActivityStatusService) *ActivityHandler {
	return &ActivityHandler{status: status}
}

func cidParam(r *http.Request) (int, bool) {
	cid, err := strconv.Atoi(chi.URLParam(r, "cid"))
	if err != nil || cid <= 0 {
		return 0, false
	}
	return cid, true
}

// GetSubjectStatus handles GET /api/v1/subjects/{cid}/status
func (h *ActivityHandler) GetSubjectStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid, ok := cidParam(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid CID")
			return
		}

		resp, err := h.status.Status(r.Context(), cid)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load subject status")
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

// ForceRefresh handles POST /api/v1/subjects/{cid}/refresh
func (h *ActivityHandler) ForceRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid, ok := cidParam(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid CID")
			return
		}

		resp, err := h.status.ForceRefresh(r.Context(), cid)
		if err != nil {
			if providers.ErrorCode(err) != "" {
				respondWithError(w, http.StatusBadGateway, "Upstream refresh failed: "+err.Error())
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Refresh failed")
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

// GetWaitingHours handles GET /api/v1/subjects/{cid}/waiting-hours
func (h *ActivityHandler) GetWaitingHours() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid, ok := cidParam(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid CID")
			return
		}

		resp, err := h.status.WaitingHours(r.Context(), cid)
		if err != nil {
			respondWithError(w, http.StatusBadGateway, "Session log unavailable")
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

// MarkEndorsementRemoval handles POST /api/v1/endorsements/{id}/mark-removal
func (h *ActivityHandler) MarkEndorsementRemoval() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID := chi.URLParam(r, "id")
		if recordID == "" {
			respondWithError(w, http.StatusBadRequest, "Missing record id")
			return
		}

		resp, err := h.status.MarkEndorsementForRemoval(r.Context(), recordID)
		if err != nil {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

// MarkRosterRemoval handles POST /api/v1/roster/{cid}/mark-removal
func (h *ActivityHandler) MarkRosterRemoval() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid, ok := cidParam(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid CID")
			return
		}

		resp, err := h.status.MarkRosterForRemoval(r.Context(), cid)
		if err != nil {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}
