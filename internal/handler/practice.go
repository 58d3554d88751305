package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	"github.com/shopspring/decimal"
)

// PracticeHandler serves the reference data appointments point at:
// services, clinicians and clients.
type PracticeHandler struct {
	stores Stores
	logger *slog.Logger
}

func NewPracticeHandler(st Stores, logger *slog.Logger) *PracticeHandler {
	return &PracticeHandler{stores: st, logger: logger}
}

type serviceRequest struct {
	Type         string          `json:"type" validate:"required"`
	Code         string          `json:"code" validate:"required,max=20"`
	Duration     int             `json:"duration" validate:"required,min=1,max=1440"`
	Description  string          `json:"description"`
	Rate         decimal.Decimal `json:"rate"`
	ClinicianIDs []string        `json:"clinician_ids"`
}

// ListServices lists all services, or only those a clinician offers when
// clinician_id is given.
func (h *PracticeHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	var (
		services []model.PracticeService
		err      error
	)
	if clinicianID := r.URL.Query().Get("clinician_id"); clinicianID != "" {
		services, err = h.stores.Services.ListForClinician(r.Context(), clinicianID)
	} else {
		services, err = h.stores.Services.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	if services == nil {
		services = []model.PracticeService{}
	}
	writeJSON(w, http.StatusOK, services)
}

// CreateService creates a service. A missing or zero rate falls back to the
// practice default.
func (h *PracticeHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "rate must not be negative")
		return
	}

	for _, id := range req.ClinicianIDs {
		clin, err := h.stores.Clinicians.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check clinician")
			return
		}
		if clin == nil {
			writeError(w, http.StatusBadRequest, "clinician not found")
			return
		}
	}

	svc, err := h.stores.Services.Create(r.Context(), strings.TrimSpace(req.Type), strings.TrimSpace(req.Code), req.Duration, req.Description, req.Rate)
	if err != nil {
		h.logger.Error("failed to create service", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create service")
		return
	}

	for _, id := range req.ClinicianIDs {
		if err := h.stores.Services.Assign(r.Context(), id, svc.ID); err != nil {
			h.logger.Warn("failed to assign service", "service_id", svc.ID, "clinician_id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, svc)
}

type clinicianRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

func (h *PracticeHandler) ListClinicians(w http.ResponseWriter, r *http.Request) {
	clinicians, err := h.stores.Clinicians.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list clinicians", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list clinicians")
		return
	}
	if clinicians == nil {
		clinicians = []model.Clinician{}
	}
	writeJSON(w, http.StatusOK, clinicians)
}

func (h *PracticeHandler) CreateClinician(w http.ResponseWriter, r *http.Request) {
	var req clinicianRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clin, err := h.stores.Clinicians.Create(r.Context(), strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if err != nil {
		h.logger.Error("failed to create clinician", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create clinician")
		return
	}
	writeJSON(w, http.StatusCreated, clin)
}

type clientRequest struct {
	LegalFirstName string `json:"legal_first_name" validate:"required"`
	LegalLastName  string `json:"legal_last_name" validate:"required"`
	PreferredName  string `json:"preferred_name"`
}

// ListClients lists clients; ?active=true leaves out inactive ones.
func (h *PracticeHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	clients, err := h.stores.Clients.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *PracticeHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.stores.Clients.Create(r.Context(),
		strings.TrimSpace(req.LegalFirstName), strings.TrimSpace(req.LegalLastName), strings.TrimSpace(req.PreferredName))
	if err != nil {
		h.logger.Error("failed to create client", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create client")
		return
	}
	writeJSON(w, http.StatusCreated, client)
}
