package handler

import (
	"log/slog"
	"net/http"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type HistoryHandler struct {
	stores Stores
	logger *slog.Logger
}

func NewHistoryHandler(st Stores, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{stores: st, logger: logger}
}

// List returns one page of the activity log, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, total, err := h.stores.History.List(r.Context(), r.URL.Query().Get("search"), page, limit)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, model.HistoryPage{
		Data: entries,
		Pagination: model.Pagination{
			Total: total,
			Pages: (total + limit - 1) / limit,
			Page:  page,
			Limit: limit,
		},
	})
}
