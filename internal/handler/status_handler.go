package handler

import (
	"net/http"
	"strconv"

	"github.com/feralgames/frontline/internal/repository"
	"github.com/feralgames/frontline/internal/store"
)

// StatusHandler serves read-only views of the territorial state.
type StatusHandler struct {
	store  *store.Store
	events repository.EventRepository
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(st *store.Store, events repository.EventRepository) *StatusHandler {
	return &StatusHandler{store: st, events: events}
}

// World handles GET /api/v1/world
// Returns the full territory graph with current control standings.
func (h *StatusHandler) World(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	world := h.store.World()

	type territoryView struct {
		ID             int      `json:"id"`
		Name           string   `json:"name"`
		Level          string   `json:"level"`
		ParentID       int      `json:"parent_id,omitempty"`
		Links          []int    `json:"links,omitempty"`
		StrategicValue int      `json:"strategic_value"`
		Controller     string   `json:"controller,omitempty"`
		Contested      bool     `json:"contested"`
		Seq            int64    `json:"seq"`
	}

	out := make([]territoryView, 0, world.Len())
	for _, t := range world.List() {
		out = append(out, territoryView{
			ID:             t.ID,
			Name:           t.Name,
			Level:          t.Level.String(),
			ParentID:       t.ParentID,
			Links:          t.Links,
			StrategicValue: t.StrategicValue,
			Controller:     snap.Controllers[t.ID],
			Contested:      snap.Contested[t.ID],
			Seq:            snap.Seqs[t.ID],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"taken_at":    snap.TakenAt,
		"territories": out,
	})
}

// Territory handles GET /api/v1/territories/{id}
// Returns one territory's full influence standing.
func (h *StatusHandler) Territory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}
	t := h.store.GetTerritory(id)
	if t == nil {
		writeError(w, http.StatusNotFound, "territory not found")
		return
	}

	state, err := h.store.State(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	controller, _, _ := h.store.GetControllingFaction(id)
	contested, _ := h.store.IsContested(id)
	seq, _ := h.store.Seq(id)

	writeJSON(w, http.StatusOK, map[string]any{
		"territory":  t,
		"influence":  state.Influence,
		"controller": controller,
		"contested":  contested,
		"connected":  h.store.GetConnected(id),
		"seq":        seq,
	})
}

// TerritoryEvents handles GET /api/v1/territories/{id}/events?since={seq}
// Returns the journal tail a resyncing client missed.
func (h *StatusHandler) TerritoryEvents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}
	if h.store.GetTerritory(id) == nil {
		writeError(w, http.StatusNotFound, "territory not found")
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
	}

	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 1000 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
	}

	evs, err := h.events.ListByTerritorySince(r.Context(), id, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	seq, _ := h.store.Seq(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": evs,
		"seq":    seq,
	})
}

// Factions handles GET /api/v1/factions
// Returns the roster with current holdings.
func (h *StatusHandler) Factions(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	factions := h.store.Factions()

	type factionView struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Holdings []int  `json:"holdings"`
	}
	out := make([]factionView, 0, len(factions))
	for _, f := range factions {
		out = append(out, factionView{
			ID:       f.ID,
			Name:     f.Name,
			Holdings: snap.ControlledBy(f.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"factions": out})
}

// Health handles GET /healthz
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
