package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/appointment"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/auth"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/ical"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/recurrence"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/timeparse"
	ws "github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/websocket"
	"github.com/shopspring/decimal"
)

type AppointmentHandler struct {
	stores    Stores
	scheduler *appointment.Scheduler
	hub       Broadcaster
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

func NewAppointmentHandler(st Stores, hub Broadcaster, loc *time.Location, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		stores:    st,
		scheduler: appointment.NewScheduler(st.Appointments, st.History, logger.With("component", "scheduler")),
		hub:       hub,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type appointmentRequest struct {
	Type           string              `json:"type" validate:"omitempty,oneof=appointment event"`
	Title          string              `json:"title"`
	IsAllDay       bool                `json:"is_all_day"`
	StartDate      string              `json:"start_date"`
	EndDate        string              `json:"end_date"`
	LocationID     string              `json:"location_id"`
	CreatedBy      string              `json:"created_by"`
	Status         string              `json:"status" validate:"omitempty,oneof=SCHEDULED CANCELLED"`
	ClientID       *string             `json:"client_id"`
	ClinicianID    string              `json:"clinician_id"`
	IsRecurring    bool                `json:"is_recurring"`
	RecurringRule  string              `json:"recurring_rule" validate:"omitempty,rrule=IsRecurring"`
	ServiceID      *string             `json:"service_id"`
	AppointmentFee decimal.NullDecimal `json:"appointment_fee"`
}

// parseRequest decodes and validates a create or preview body. On failure
// the error response has been written.
func (h *AppointmentHandler) parseRequest(w http.ResponseWriter, r *http.Request) (appointment.Request, bool) {
	var body appointmentRequest
	if !decodeJSON(w, r, &body) {
		return appointment.Request{}, false
	}

	req := appointment.Request{
		Type:        body.Type,
		Title:       body.Title,
		IsAllDay:    body.IsAllDay,
		LocationID:  strings.TrimSpace(body.LocationID),
		CreatedBy:   strings.TrimSpace(body.CreatedBy),
		Status:      body.Status,
		ClientID:    optionalString(body.ClientID),
		ClinicianID: strings.TrimSpace(body.ClinicianID),
		ServiceID:   optionalString(body.ServiceID),
		Fee:         body.AppointmentFee,
		IsRecurring: body.IsRecurring,
		Rule:        strings.TrimSpace(body.RecurringRule),
	}
	if req.CreatedBy == "" {
		req.CreatedBy = auth.UserID(r.Context())
	}

	if body.StartDate != "" {
		t, err := timeparse.Parse(body.StartDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339 or YYYY-MM-DD format")
			return req, false
		}
		req.Start = t
	}
	if body.EndDate != "" {
		t, err := timeparse.Parse(body.EndDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339 or YYYY-MM-DD format")
			return req, false
		}
		req.End = t
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

// checkReferences confirms that the referenced rows exist and fills the fee
// from the service rate when none was given. An inactive location is only
// rejected when activeLocation is set.
func (h *AppointmentHandler) checkReferences(ctx context.Context, req *appointment.Request, activeLocation bool) (int, string) {
	loc, err := h.stores.Locations.GetByID(ctx, req.LocationID)
	if err != nil {
		return http.StatusInternalServerError, "failed to check location"
	}
	if loc == nil {
		return http.StatusBadRequest, "location not found"
	}
	if activeLocation && !loc.IsActive {
		return http.StatusBadRequest, "location is inactive"
	}

	clin, err := h.stores.Clinicians.GetByID(ctx, req.ClinicianID)
	if err != nil {
		return http.StatusInternalServerError, "failed to check clinician"
	}
	if clin == nil {
		return http.StatusBadRequest, "clinician not found"
	}

	if req.ClientID != nil {
		client, err := h.stores.Clients.GetByID(ctx, *req.ClientID)
		if err != nil {
			return http.StatusInternalServerError, "failed to check client"
		}
		if client == nil {
			return http.StatusBadRequest, "client not found"
		}
	}

	if req.ServiceID != nil {
		svc, err := h.stores.Services.GetByID(ctx, *req.ServiceID)
		if err != nil {
			return http.StatusInternalServerError, "failed to check service"
		}
		if svc == nil {
			return http.StatusBadRequest, "service not found"
		}
		if !req.Fee.Valid {
			req.Fee = decimal.NewNullDecimal(svc.Rate)
		}
	}
	return 0, ""
}

func (h *AppointmentHandler) writeScheduleError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, appointment.ErrMissingFields),
		errors.Is(err, appointment.ErrInvalidRequest),
		errors.Is(err, recurrence.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	if status, msg := h.checkReferences(r.Context(), &req, true); status != 0 {
		writeError(w, status, msg)
		return
	}

	appts, err := h.scheduler.Schedule(r.Context(), req)
	if err != nil {
		h.writeScheduleError(w, err, "failed to create appointment")
		return
	}

	master := appts[0]
	h.hub.Broadcast(ws.NewMessage(ws.EntityAppointment, ws.ActionCreated, master.ID, map[string]any{
		"count": len(appts),
	}).ForClinician(master.ClinicianID))

	if master.IsRecurring {
		writeJSON(w, http.StatusCreated, appts)
		return
	}
	writeJSON(w, http.StatusCreated, master)
}

type previewResponse struct {
	Rule         string              `json:"rule,omitempty"`
	Description  string              `json:"description,omitempty"`
	Count        int                 `json:"count"`
	Appointments []model.Appointment `json:"appointments"`
}

// Preview returns the series a create request would produce without
// storing anything.
func (h *AppointmentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	planned, err := h.scheduler.Plan(req)
	if err != nil {
		h.writeScheduleError(w, err, "failed to preview appointment")
		return
	}

	resp := previewResponse{Count: len(planned), Appointments: planned}
	if planned[0].IsRecurring {
		spec, err := recurrence.Parse(req.Rule)
		if err == nil {
			resp.Rule = spec.String()
			resp.Description = spec.Describe()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AppointmentFilter{
		ClinicianID: q.Get("clinician_id"),
		ClientID:    q.Get("client_id"),
	}

	if s := q.Get("start_date"); s != "" {
		t, err := timeparse.Parse(s, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		filter.From = &t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := timeparse.RangeEnd(s, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		filter.To = &t
	}

	appts, err := h.stores.Appointments.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.stores.Appointments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type appointmentUpdate struct {
	Title          *string             `json:"title"`
	IsAllDay       *bool               `json:"is_all_day"`
	StartDate      *string             `json:"start_date"`
	EndDate        *string             `json:"end_date"`
	LocationID     *string             `json:"location_id"`
	Status         *string             `json:"status" validate:"omitempty,oneof=SCHEDULED CANCELLED"`
	ClientID       *string             `json:"client_id"`
	ClinicianID    *string             `json:"clinician_id"`
	ServiceID      *string             `json:"service_id"`
	AppointmentFee decimal.NullDecimal `json:"appointment_fee"`
}

// Update edits a single occurrence. Moving the start without an end keeps
// the appointment's duration.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.stores.Appointments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	var body appointmentUpdate
	if !decodeJSON(w, r, &body) {
		return
	}
	prevClinician := a.ClinicianID

	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		a.Title = title
	}
	if body.IsAllDay != nil {
		a.IsAllDay = *body.IsAllDay
	}

	duration := a.EndDate.Sub(a.StartDate)
	if body.StartDate != nil {
		t, err := timeparse.Parse(*body.StartDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		a.StartDate = t
		a.EndDate = t.Add(duration)
	}
	if body.EndDate != nil {
		t, err := timeparse.Parse(*body.EndDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		a.EndDate = t
	}
	if a.EndDate.Before(a.StartDate) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	if body.Status != nil {
		a.Status = *body.Status
	}
	if body.LocationID != nil {
		a.LocationID = strings.TrimSpace(*body.LocationID)
	}
	if body.ClinicianID != nil {
		a.ClinicianID = strings.TrimSpace(*body.ClinicianID)
	}
	if body.ClientID != nil {
		a.ClientID = optionalString(body.ClientID)
	}
	if body.ServiceID != nil {
		a.ServiceID = optionalString(body.ServiceID)
	}
	if body.AppointmentFee.Valid {
		a.AppointmentFee = body.AppointmentFee
	}

	check := appointment.Request{
		LocationID:  a.LocationID,
		ClinicianID: a.ClinicianID,
		ClientID:    a.ClientID,
		ServiceID:   a.ServiceID,
		Fee:         a.AppointmentFee,
	}
	if status, msg := h.checkReferences(r.Context(), &check, body.LocationID != nil); status != 0 {
		writeError(w, status, msg)
		return
	}
	a.AppointmentFee = check.Fee

	updated, err := h.stores.Appointments.Update(r.Context(), *a)
	if err != nil {
		h.logger.Error("failed to update appointment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	h.record(r.Context(), fmt.Sprintf("Updated %s %q on %s", updated.Type, updated.Title, updated.StartDate.In(h.loc).Format("2006-01-02 15:04")), updated)
	msg := ws.NewMessage(ws.EntityAppointment, ws.ActionUpdated, updated.ID, nil)
	// a reassigned appointment must also leave the previous clinician's view
	if updated.ClinicianID == prevClinician {
		msg = msg.ForClinician(updated.ClinicianID)
	}
	h.hub.Broadcast(msg)
	writeJSON(w, http.StatusOK, updated)
}

// Cancel marks an appointment CANCELLED. With ?series=true the master and
// every sibling of its series are cancelled together.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.stores.Appointments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	if r.URL.Query().Get("series") == "true" && a.IsRecurring {
		masterID := a.ID
		if a.RecurringAppointmentID != nil {
			masterID = *a.RecurringAppointmentID
		}

		n, err := h.stores.Appointments.SetSeriesStatus(r.Context(), masterID, model.StatusCancelled)
		if err != nil {
			h.logger.Error("failed to cancel series", "master_id", masterID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to cancel series")
			return
		}

		h.record(r.Context(), fmt.Sprintf("Cancelled recurring %s %q (%d occurrences)", a.Type, a.Title, n), a)
		h.hub.Broadcast(ws.NewMessage(ws.EntityAppointment, ws.ActionCancelled, masterID, map[string]any{
			"series": true,
			"count":  n,
		}).ForClinician(a.ClinicianID))
		writeJSON(w, http.StatusOK, map[string]any{"cancelled": n, "series_id": masterID})
		return
	}

	updated, err := h.stores.Appointments.SetStatus(r.Context(), id, model.StatusCancelled)
	if err != nil {
		h.logger.Error("failed to cancel appointment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}

	h.record(r.Context(), fmt.Sprintf("Cancelled %s %q on %s", a.Type, a.Title, a.StartDate.In(h.loc).Format("2006-01-02 15:04")), a)
	h.hub.Broadcast(ws.NewMessage(ws.EntityAppointment, ws.ActionCancelled, id, nil).ForClinician(a.ClinicianID))
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": 1, "appointment": updated})
}

// ExportICS serves non-cancelled appointments in a range as an iCalendar
// file. The range defaults to 30 days back and 90 days ahead.
func (h *AppointmentHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := ical.DefaultRange(h.now().In(h.loc))

	if s := q.Get("start_date"); s != "" {
		t, err := timeparse.Parse(s, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		from = t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := timeparse.RangeEnd(s, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		to = t
	}

	name := "Practice calendar"
	clinicianID := q.Get("clinician_id")
	if clinicianID != "" {
		clin, err := h.stores.Clinicians.GetByID(r.Context(), clinicianID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get clinician")
			return
		}
		if clin == nil {
			writeError(w, http.StatusNotFound, "clinician not found")
			return
		}
		name = clin.FirstName + " " + clin.LastName
	}

	appts, err := h.stores.Appointments.ListActiveInRange(r.Context(), from, to, clinicianID)
	if err != nil {
		h.logger.Error("failed to list appointments for export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export appointments")
		return
	}

	locs, err := h.stores.Locations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export appointments")
		return
	}
	byID := make(map[string]model.Location, len(locs))
	for _, l := range locs {
		byID[l.ID] = l
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.ics"`)
	if err := ical.Write(w, name, appts, byID); err != nil {
		h.logger.Error("failed to write calendar", "error", err)
	}
}

func (h *AppointmentHandler) record(ctx context.Context, desc string, a *model.Appointment) {
	userID := auth.UserID(ctx)
	var uid *string
	if userID != "" {
		uid = &userID
	}
	if err := h.stores.History.Record(ctx, desc, uid, a.ClientID, a.ClientID != nil); err != nil {
		h.logger.Error("failed to record history", "appointment_id", a.ID, "error", err)
	}
}
