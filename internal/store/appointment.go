package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

const appointmentColumns = `id, type, title, is_all_day, start_date, end_date, location_id, created_by, status,
	client_id, clinician_id, is_recurring, recurring_rule, recurring_appointment_id, service_id, appointment_fee,
	created_at, updated_at`

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

// Create inserts a and returns the stored row. An empty ID is replaced by a
// new UUID and an empty status by SCHEDULED.
func (s *AppointmentStore) Create(ctx context.Context, a model.Appointment) (*model.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	if a.Type == "" {
		a.Type = model.AppointmentTypeAppointment
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (id, type, title, is_all_day, start_date, end_date, location_id, created_by, status,
			client_id, clinician_id, is_recurring, recurring_rule, recurring_appointment_id, service_id, appointment_fee)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.Title, boolToInt(a.IsAllDay), a.StartDate.UTC(), a.EndDate.UTC(), a.LocationID, a.CreatedBy, a.Status,
		nullString(a.ClientID), a.ClinicianID, boolToInt(a.IsRecurring), nullString(a.RecurringRule),
		nullString(a.RecurringAppointmentID), nullString(a.ServiceID), a.AppointmentFee,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	return s.GetByID(ctx, a.ID)
}

func (s *AppointmentStore) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	return a, nil
}

// List returns appointments matching f ordered by start time.
func (s *AppointmentStore) List(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	var where []string
	var args []any

	if f.ClinicianID != "" {
		where = append(where, "clinician_id = ?")
		args = append(args, f.ClinicianID)
	}
	if f.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.From != nil {
		where = append(where, "start_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "start_date <= ?")
		args = append(args, f.To.UTC())
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date ASC"

	return s.query(ctx, query, args...)
}

// ListSeries returns the master and every sibling of the series, in start order.
func (s *AppointmentStore) ListSeries(ctx context.Context, masterID string) ([]model.Appointment, error) {
	return s.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE id = ? OR recurring_appointment_id = ?
		 ORDER BY start_date ASC`,
		masterID, masterID,
	)
}

// ListUpcomingForClient returns a client's non-cancelled appointments starting at or after from.
func (s *AppointmentStore) ListUpcomingForClient(ctx context.Context, clientID string, from time.Time, limit int) ([]model.Appointment, error) {
	return s.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE client_id = ? AND status != ? AND start_date >= ?
		 ORDER BY start_date ASC
		 LIMIT ?`,
		clientID, model.StatusCancelled, from.UTC(), limit,
	)
}

// ListActiveInRange returns non-cancelled appointments overlapping [start, end).
func (s *AppointmentStore) ListActiveInRange(ctx context.Context, start, end time.Time, clinicianID string) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		 WHERE status != ? AND start_date < ? AND end_date > ?`
	args := []any{model.StatusCancelled, end.UTC(), start.UTC()}
	if clinicianID != "" {
		query += " AND clinician_id = ?"
		args = append(args, clinicianID)
	}
	query += " ORDER BY start_date ASC"
	return s.query(ctx, query, args...)
}

func (s *AppointmentStore) Update(ctx context.Context, a model.Appointment) (*model.Appointment, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE appointments
		 SET type = ?, title = ?, is_all_day = ?, start_date = ?, end_date = ?, location_id = ?, status = ?,
		     client_id = ?, clinician_id = ?, is_recurring = ?, recurring_rule = ?, recurring_appointment_id = ?,
		     service_id = ?, appointment_fee = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.Type, a.Title, boolToInt(a.IsAllDay), a.StartDate.UTC(), a.EndDate.UTC(), a.LocationID, a.Status,
		nullString(a.ClientID), a.ClinicianID, boolToInt(a.IsRecurring), nullString(a.RecurringRule),
		nullString(a.RecurringAppointmentID), nullString(a.ServiceID), a.AppointmentFee, a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return s.GetByID(ctx, a.ID)
}

// SetStatus changes the status of a single appointment.
func (s *AppointmentStore) SetStatus(ctx context.Context, id, status string) (*model.Appointment, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetSeriesStatus changes the status of a master and all of its siblings and
// returns the number of rows changed.
func (s *AppointmentStore) SetSeriesStatus(ctx context.Context, masterID, status string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? OR recurring_appointment_id = ?`,
		status, masterID, masterID,
	)
	if err != nil {
		return 0, fmt.Errorf("update series status: %w", err)
	}
	return result.RowsAffected()
}

func (s *AppointmentStore) query(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	var allDay, recurring int
	var clientID, rule, masterID, serviceID sql.NullString

	err := scanner.Scan(&a.ID, &a.Type, &a.Title, &allDay, &a.StartDate, &a.EndDate, &a.LocationID, &a.CreatedBy, &a.Status,
		&clientID, &a.ClinicianID, &recurring, &rule, &masterID, &serviceID, &a.AppointmentFee,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.IsAllDay = allDay != 0
	a.IsRecurring = recurring != 0
	a.ClientID = stringPtr(clientID)
	a.RecurringRule = stringPtr(rule)
	a.RecurringAppointmentID = stringPtr(masterID)
	a.ServiceID = stringPtr(serviceID)
	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
