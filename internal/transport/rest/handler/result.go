package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gsjt/internal/model"
	"gsjt/internal/service"
)

const defaultLeaderboardLimit = 10

// ResultHandler handles submission and result administration
type ResultHandler struct {
	assessSvc *service.AssessmentService
}

// NewResultHandler creates a new result handler
func NewResultHandler(assessSvc *service.AssessmentService) *ResultHandler {
	return &ResultHandler{assessSvc: assessSvc}
}

// SubmitRequest is the request body for a final submission
type SubmitRequest struct {
	CandidateID string         `json:"candidate_id"`
	Answers     []model.Answer `json:"answers"`
}

// Submit handles POST /api/results/submit
func (h *ResultHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.assessSvc.Submit(r.Context(), req.CandidateID, req.Answers)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/results/{candidate_id}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.assessSvc.Get(r.Context(), mux.Vars(r)["candidate_id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// List handles GET /api/results
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.assessSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Delete handles DELETE /api/results/{candidate_id}
func (h *ResultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.assessSvc.Delete(r.Context(), mux.Vars(r)["candidate_id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "result deleted",
	})
}

// Leaderboard handles GET /api/results/leaderboard?limit=N
func (h *ResultHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.assessSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
