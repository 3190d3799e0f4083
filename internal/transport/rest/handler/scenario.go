package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"gsjt/internal/service"
)

// ScenarioHandler serves the scenario catalog
type ScenarioHandler struct {
	catalogSvc *service.CatalogService
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(catalogSvc *service.CatalogService) *ScenarioHandler {
	return &ScenarioHandler{catalogSvc: catalogSvc}
}

// List handles GET /api/scenarios
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.catalogSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// Get handles GET /api/scenarios/{id}
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.catalogSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}
