// Package ical renders appointments as an iCalendar feed.
package ical

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/recurrence"
)

const productID = "-//MCW Practice Management//Scheduling//EN"

// uidDomain qualifies appointment ids into globally unique UIDs.
const uidDomain = "@mcw-practice"

// Build returns a calendar with one VEVENT per appointment. Series are
// exported as their stored occurrences; siblings carry a RELATED-TO pointing
// at the master so clients can group them.
func Build(name string, appointments []model.Appointment, locations map[string]model.Location) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, a := range appointments {
		ev := cal.AddEvent(a.ID + uidDomain)
		ev.SetDtStampTime(a.UpdatedAt.UTC())
		ev.SetCreatedTime(a.CreatedAt.UTC())
		ev.SetModifiedAt(a.UpdatedAt.UTC())
		ev.SetSummary(a.Title)

		if a.IsAllDay {
			ev.SetAllDayStartAt(a.StartDate)
			ev.SetAllDayEndAt(a.EndDate.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(a.StartDate.UTC())
			ev.SetEndAt(a.EndDate.UTC())
		}

		if loc, ok := locations[a.LocationID]; ok {
			ev.SetLocation(loc.Name + ", " + loc.Address)
		}

		if a.Status == model.StatusCancelled {
			ev.SetStatus(ics.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		}

		if a.RecurringRule != nil {
			if spec, err := recurrence.Parse(*a.RecurringRule); err == nil {
				ev.SetDescription(spec.Describe())
			}
		}
		if a.RecurringAppointmentID != nil {
			ev.AddProperty(ics.ComponentProperty("RELATED-TO"), *a.RecurringAppointmentID+uidDomain)
		}
	}

	return cal
}

// Write serializes the feed to w.
func Write(w io.Writer, name string, appointments []model.Appointment, locations map[string]model.Location) error {
	_, err := io.WriteString(w, Build(name, appointments, locations).Serialize())
	return err
}

// DefaultRange is the export window used when the caller gives none.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -30), now.AddDate(0, 0, 90)
}
