package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

const portalUpcomingLimit = 20

// PortalHandler serves the read-only client portal.
type PortalHandler struct {
	stores Stores
	logger *slog.Logger
	now    func() time.Time
}

func NewPortalHandler(st Stores, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{stores: st, logger: logger, now: time.Now}
}

// portalAppointment is the subset of an appointment a client may see.
type portalAppointment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsAllDay  bool      `json:"is_all_day"`
	Location  string    `json:"location"`
	Address   string    `json:"address"`
}

// UpcomingAppointments lists a client's next non-cancelled appointments.
func (h *PortalHandler) UpcomingAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	client, err := h.stores.Clients.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get client")
		return
	}
	if client == nil || !client.IsActive {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}

	appts, err := h.stores.Appointments.ListUpcomingForClient(r.Context(), id, h.now(), portalUpcomingLimit)
	if err != nil {
		h.logger.Error("failed to list upcoming appointments", "client_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	locs, err := h.stores.Locations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	byID := make(map[string]model.Location, len(locs))
	for _, l := range locs {
		byID[l.ID] = l
	}

	out := make([]portalAppointment, 0, len(appts))
	for _, a := range appts {
		loc := byID[a.LocationID]
		out = append(out, portalAppointment{
			ID:        a.ID,
			Title:     a.Title,
			StartDate: a.StartDate,
			EndDate:   a.EndDate,
			IsAllDay:  a.IsAllDay,
			Location:  loc.Name,
			Address:   loc.Address,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
