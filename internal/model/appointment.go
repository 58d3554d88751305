package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AppointmentTypeAppointment = "appointment"
	AppointmentTypeEvent       = "event"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusCancelled = "CANCELLED"
)

type Appointment struct {
	ID                     string              `json:"id"`
	Type                   string              `json:"type"`
	Title                  string              `json:"title"`
	IsAllDay               bool                `json:"is_all_day"`
	StartDate              time.Time           `json:"start_date"`
	EndDate                time.Time           `json:"end_date"`
	LocationID             string              `json:"location_id"`
	CreatedBy              string              `json:"created_by"`
	Status                 string              `json:"status"`
	ClientID               *string             `json:"client_id"`
	ClinicianID            string              `json:"clinician_id"`
	IsRecurring            bool                `json:"is_recurring"`
	RecurringRule          *string             `json:"recurring_rule"`
	RecurringAppointmentID *string             `json:"recurring_appointment_id"`
	ServiceID              *string             `json:"service_id"`
	AppointmentFee         decimal.NullDecimal `json:"appointment_fee"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// IsMaster reports whether a is the first appointment of a recurring series.
func (a Appointment) IsMaster() bool {
	return a.IsRecurring && a.RecurringAppointmentID == nil
}

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	ClinicianID string
	ClientID    string
	From        *time.Time
	To          *time.Time
}
