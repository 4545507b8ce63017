package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"airwatch-server/internal/broadcast"
	"airwatch-server/internal/utils"
)

type healthHandler struct {
	db        *sql.DB
	hub       *broadcast.Hub
	startedAt time.Time
}

type healthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Viewers       int    `json:"viewers"`
}

func (h *healthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Store:         "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Viewers:       h.hub.SessionCount(),
	}

	var ok int
	if err := h.db.QueryRow(`SELECT 1`).Scan(&ok); err != nil {
		slog.Error("health: database connectivity check failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unreachable"
		utils.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func registerHealth(mux *http.ServeMux, db *sql.DB, hub *broadcast.Hub, startedAt time.Time) {
	h := &healthHandler{db: db, hub: hub, startedAt: startedAt}
	mux.HandleFunc("GET /health", h.handleHealth)
}
