package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"gsjt/internal/service"
)

// CandidateHandler handles the in-progress side of a test
type CandidateHandler struct {
	assessSvc *service.AssessmentService
}

// NewCandidateHandler creates a new candidate handler
func NewCandidateHandler(assessSvc *service.AssessmentService) *CandidateHandler {
	return &CandidateHandler{assessSvc: assessSvc}
}

// SaveAnswerRequest is the request body for one incremental answer
type SaveAnswerRequest struct {
	ScenarioID string `json:"scenario_id"`
	OptionID   string `json:"option_id"`
}

// Start handles POST /api/candidates/{id}/start
func (h *CandidateHandler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.assessSvc.Start(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveAnswer handles POST /api/candidates/{id}/answer
func (h *CandidateHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req SaveAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.assessSvc.SaveAnswer(r.Context(), mux.Vars(r)["id"], req.ScenarioID, req.OptionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
