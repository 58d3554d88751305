package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	ws "github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/websocket"
)

type LocationHandler struct {
	stores Stores
	hub    Broadcaster
	logger *slog.Logger
}

func NewLocationHandler(st Stores, hub Broadcaster, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{stores: st, hub: hub, logger: logger}
}

type locationRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Address  string `json:"address" validate:"required,max=500"`
	IsActive *bool  `json:"is_active"`
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.stores.Locations.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list locations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	loc, err := h.stores.Locations.Create(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Address), active)
	if err != nil {
		h.logger.Error("failed to create location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityLocation, ws.ActionCreated, loc.ID, nil))
	writeJSON(w, http.StatusCreated, loc)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.stores.Locations.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	var req locationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	loc, err := h.stores.Locations.Update(r.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Address), active)
	if err != nil {
		h.logger.Error("failed to update location", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update location")
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityLocation, ws.ActionUpdated, loc.ID, nil))
	writeJSON(w, http.StatusOK, loc)
}

// Delete deactivates the location. Appointments keep their reference.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	loc, err := h.stores.Locations.Deactivate(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to deactivate location", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityLocation, ws.ActionUpdated, loc.ID, map[string]any{"is_active": false}))
	writeJSON(w, http.StatusOK, loc)
}
