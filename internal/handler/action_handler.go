package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/feralgames/frontline/internal/auth"
	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/service"
	"github.com/feralgames/frontline/internal/store"
)

// ActionHandler handles influence action submissions over HTTP.
type ActionHandler struct {
	actions *service.ActionService
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(actions *service.ActionService) *ActionHandler {
	return &ActionHandler{actions: actions}
}

// Submit handles POST /api/v1/actions
func (h *ActionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.ActionSubmission
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ActorID = auth.UserIDFromContext(r.Context())
	req.Timestamp = time.Now().UTC()

	res, err := h.actions.Submit(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrInvalidKind), errors.Is(err, service.ErrInvalidMagnitude):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, service.ErrNoLeader):
			status = http.StatusConflict
		case errors.Is(err, store.ErrUnknownTerritory), errors.Is(err, store.ErrUnknownFaction):
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accepted":       true,
		"control_change": res, // nil when control did not change
	})
}
