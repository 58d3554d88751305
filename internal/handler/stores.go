package handler

import (
	"database/sql"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/store"
)

// Stores groups the persistence layer the handlers share.
type Stores struct {
	Appointments *store.AppointmentStore
	Locations    *store.LocationStore
	Clinicians   *store.ClinicianStore
	Clients      *store.ClientStore
	Services     *store.ServiceStore
	History      *store.HistoryStore
}

func NewStores(db *sql.DB) Stores {
	return Stores{
		Appointments: store.NewAppointmentStore(db),
		Locations:    store.NewLocationStore(db),
		Clinicians:   store.NewClinicianStore(db),
		Clients:      store.NewClientStore(db),
		Services:     store.NewServiceStore(db),
		History:      store.NewHistoryStore(db),
	}
}
