package handler

import (
	"net/http"
	"strconv"

	"github.com/feralgames/frontline/internal/auth"
	"github.com/feralgames/frontline/internal/service"
	"github.com/feralgames/frontline/pkg/territory"
)

// AdminHandler handles administrative operations: world replacement,
// influence overrides, and manual decay sweeps.
type AdminHandler struct {
	worldSvc *service.WorldService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(worldSvc *service.WorldService) *AdminHandler {
	return &AdminHandler{worldSvc: worldSvc}
}

// ReplaceWorld handles PUT /api/v1/admin/world
func (h *AdminHandler) ReplaceWorld(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Territories []territory.Territory `json:"territories"`
		Factions    []territory.Faction   `json:"factions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.worldSvc.ReplaceWorld(r.Context(), req.Territories, req.Factions); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"territories": len(req.Territories),
		"factions":    len(req.Factions),
	})
}

// ForceInfluence handles PUT /api/v1/admin/territories/{id}/influence
func (h *AdminHandler) ForceInfluence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}

	var req struct {
		FactionID string  `json:"faction_id"`
		Value     float64 `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID := auth.UserIDFromContext(r.Context())
	res, err := h.worldSvc.ForceInfluence(r.Context(), id, req.FactionID, req.Value, actorID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"control_change": res})
}

// TriggerDecay handles POST /api/v1/admin/decay
func (h *AdminHandler) TriggerDecay(w http.ResponseWriter, r *http.Request) {
	changed := h.worldSvc.TriggerDecay()
	writeJSON(w, http.StatusOK, map[string]any{"territories_changed": changed})
}
