// Package appointment turns appointment requests into stored appointments,
// expanding recurring requests into a series linked to a master.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/recurrence"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingFields is returned for requests without their mandatory fields.
	ErrMissingFields = errors.New("missing required fields")

	ErrInvalidRequest = errors.New("invalid appointment request")
)

// Store persists single appointments.
type Store interface {
	Create(ctx context.Context, a model.Appointment) (*model.Appointment, error)
}

// HistoryRecorder writes activity log entries.
type HistoryRecorder interface {
	Record(ctx context.Context, description string, userID, clientID *string, hipaa bool) error
}

// Request describes an appointment to create. Rule is only read when
// IsRecurring is set.
type Request struct {
	Type        string
	Title       string
	IsAllDay    bool
	Start       time.Time
	End         time.Time // zero means same as Start
	LocationID  string
	CreatedBy   string
	Status      string
	ClientID    *string
	ClinicianID string
	ServiceID   *string
	Fee         decimal.NullDecimal
	IsRecurring bool
	Rule        string
}

// Validate checks the fields every appointment needs. Client is optional
// for the event type only.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if r.Start.IsZero() {
		missing = append(missing, "start_date")
	}
	if r.Type != model.AppointmentTypeEvent && (r.ClientID == nil || *r.ClientID == "") {
		missing = append(missing, "client_id")
	}
	if r.ClinicianID == "" {
		missing = append(missing, "clinician_id")
	}
	if r.LocationID == "" {
		missing = append(missing, "location_id")
	}
	if r.CreatedBy == "" {
		missing = append(missing, "created_by")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidRequest)
	}
	return nil
}

func (r Request) recurring() bool {
	return r.IsRecurring && strings.TrimSpace(r.Rule) != ""
}

type Scheduler struct {
	store   Store
	history HistoryRecorder
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler. history may be nil.
func NewScheduler(store Store, history HistoryRecorder, logger *slog.Logger) *Scheduler {
	return &Scheduler{store: store, history: history, logger: logger}
}

// Plan validates req and returns the appointments Schedule would create,
// master first, without storing them. Siblings carry no master reference yet.
func (s *Scheduler) Plan(req Request) ([]model.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	end := req.End
	if end.IsZero() {
		end = req.Start
	}

	base := model.Appointment{
		Type:           req.Type,
		Title:          strings.TrimSpace(req.Title),
		IsAllDay:       req.IsAllDay,
		LocationID:     req.LocationID,
		CreatedBy:      req.CreatedBy,
		Status:         req.Status,
		ClientID:       req.ClientID,
		ClinicianID:    req.ClinicianID,
		ServiceID:      req.ServiceID,
		AppointmentFee: req.Fee,
	}
	if base.Type == "" {
		base.Type = model.AppointmentTypeAppointment
	}
	if base.Status == "" {
		base.Status = model.StatusScheduled
	}

	if !req.recurring() {
		base.StartDate = req.Start
		base.EndDate = end
		return []model.Appointment{base}, nil
	}

	spec, err := recurrence.Parse(req.Rule)
	if err != nil {
		return nil, err
	}
	if len(spec.Ignored) > 0 {
		s.logger.Info("ignoring unknown BYDAY codes", "codes", spec.Ignored, "rule", spec.Text)
	}

	rule := spec.Text
	base.IsRecurring = true
	base.RecurringRule = &rule

	occs := recurrence.Expand(spec, req.Start, end)
	planned := make([]model.Appointment, 0, len(occs))
	for _, occ := range occs {
		a := base
		a.StartDate = occ.Start
		a.EndDate = occ.End
		planned = append(planned, a)
	}
	return planned, nil
}

// Schedule stores the appointments planned for req. The master is written
// first; if that fails nothing is stored and the error is returned. Each
// sibling is then written in start order referencing the master. A sibling
// that fails to store is logged and skipped, so the result may be shorter
// than the plan. There is no transaction around the series.
func (s *Scheduler) Schedule(ctx context.Context, req Request) ([]model.Appointment, error) {
	planned, err := s.Plan(req)
	if err != nil {
		return nil, err
	}

	master, err := s.store.Create(ctx, planned[0])
	if err != nil {
		return nil, fmt.Errorf("create master appointment: %w", err)
	}

	created := []model.Appointment{*master}
	for _, a := range planned[1:] {
		a.RecurringAppointmentID = &master.ID
		occ, err := s.store.Create(ctx, a)
		if err != nil {
			s.logger.Warn("failed to create recurring appointment",
				"master_id", master.ID,
				"start", a.StartDate.Format(time.RFC3339),
				"error", err,
			)
			continue
		}
		created = append(created, *occ)
	}

	if len(planned) > 1 {
		s.logger.Info("recurring series created",
			"master_id", master.ID,
			"planned", len(planned),
			"created", len(created),
		)
	}

	s.record(ctx, req, master, len(created))
	return created, nil
}

func (s *Scheduler) record(ctx context.Context, req Request, master *model.Appointment, n int) {
	if s.history == nil {
		return
	}

	desc := fmt.Sprintf("Scheduled %s %q on %s", master.Type, master.Title, master.StartDate.Format("2006-01-02 15:04"))
	if master.IsRecurring {
		desc = fmt.Sprintf("Scheduled recurring %s %q starting %s (%d occurrences)",
			master.Type, master.Title, master.StartDate.Format("2006-01-02 15:04"), n)
	}

	createdBy := req.CreatedBy
	if err := s.history.Record(ctx, desc, &createdBy, master.ClientID, master.ClientID != nil); err != nil {
		s.logger.Error("failed to record history", "master_id", master.ID, "error", err)
	}
}
