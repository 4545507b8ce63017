package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"airwatch-server/internal/broadcast"
)

func NewMux(db *sql.DB, hub *broadcast.Hub, startedAt time.Time) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealth(mux, db, hub, startedAt)
	mux.HandleFunc("GET /ws", hub.HandleWS)
	return mux
}
