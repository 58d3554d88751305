package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades calendar connections and runs them as Hub
// clients. originPatterns lists the hosts allowed besides the request's own;
// an empty list allows same-origin only. ?clinician_id= sets the initial
// filter.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		clinicianID := r.URL.Query().Get("clinician_id")
		logger.Debug("websocket connected", "remote", r.RemoteAddr, "clinician_id", clinicianID)
		client := NewClient(hub, conn, clinicianID)
		client.Run(r.Context())
		logger.Debug("websocket disconnected", "remote", r.RemoteAddr)
	}
}
