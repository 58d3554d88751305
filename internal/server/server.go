package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/handler"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/middleware"
	ws "github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/websocket"
)

// Options carries the settings the router needs from configuration.
type Options struct {
	// Location is the practice timezone used for times sent without an offset.
	Location *time.Location
	// IdentityHeader names the header holding the authenticated user id.
	IdentityHeader string
	// WebSocketOrigins lists extra origins allowed to open /ws.
	WebSocketOrigins []string
	// PortalOrigins lists the client portal origins allowed by CORS.
	PortalOrigins []string
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	opts         Options
	appointmentH *handler.AppointmentHandler
	locationH    *handler.LocationHandler
	practiceH    *handler.PracticeHandler
	historyH     *handler.HistoryHandler
	portalH      *handler.PortalHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	hub := ws.NewHub(logger.With("component", "websocket"))
	stores := handler.NewStores(db)

	return &Server{
		db:           db,
		hub:          hub,
		opts:         opts,
		appointmentH: handler.NewAppointmentHandler(stores, hub, opts.Location, logger.With("component", "appointment")),
		locationH:    handler.NewLocationHandler(stores, hub, logger.With("component", "location")),
		practiceH:    handler.NewPracticeHandler(stores, logger.With("component", "practice")),
		historyH:     handler.NewHistoryHandler(stores, logger.With("component", "history")),
		portalH:      handler.NewPortalHandler(stores, logger.With("component", "portal")),
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	httpLogger := middleware.RequestLogger(s.logger.With("component", "http"))
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)

	portalMux := http.NewServeMux()
	portalMux.HandleFunc("GET /portal/clients/{id}/appointments", s.portalH.UpcomingAppointments)
	portal := middleware.PortalCORS(s.opts.PortalOrigins)(
		middleware.RateLimit(s.rateLimiter, middleware.ByIP, 60, time.Minute)(portalMux))
	outerMux.Handle("/portal/", httpLogger(portal))

	// Back-office routes, behind the identity header set by the proxy
	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)
	identity := middleware.RequireIdentity(s.opts.IdentityHeader)
	outerMux.Handle("/api/", identity(httpLogger(apiMux)))
	outerMux.Handle("GET /ws", identity(httpLogger(ws.HandleWebSocket(s.hub, s.opts.WebSocketOrigins, s.logger.With("component", "websocket")))))

	return outerMux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"ws_clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimited(h http.HandlerFunc, limit int) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP, limit, time.Minute)(h)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Appointments
	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.Handle("POST /api/appointments/preview", s.rateLimited(s.appointmentH.Preview, 30))
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("GET /api/appointments/export.ics", s.appointmentH.ExportICS)
	mux.HandleFunc("GET /api/appointments/{id}", s.appointmentH.Get)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.appointmentH.Cancel)

	// Locations
	mux.HandleFunc("GET /api/locations", s.locationH.List)
	mux.HandleFunc("POST /api/locations", s.locationH.Create)
	mux.HandleFunc("PUT /api/locations/{id}", s.locationH.Update)
	mux.HandleFunc("DELETE /api/locations/{id}", s.locationH.Delete)

	// Practice reference data
	mux.HandleFunc("GET /api/services", s.practiceH.ListServices)
	mux.HandleFunc("POST /api/services", s.practiceH.CreateService)
	mux.HandleFunc("GET /api/clinicians", s.practiceH.ListClinicians)
	mux.HandleFunc("POST /api/clinicians", s.practiceH.CreateClinician)
	mux.HandleFunc("GET /api/clients", s.practiceH.ListClients)
	mux.HandleFunc("POST /api/clients", s.practiceH.CreateClient)

	// Audit trail
	mux.HandleFunc("GET /api/history", s.historyH.List)
}
