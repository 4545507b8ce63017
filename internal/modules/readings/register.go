package readings

import (
	"database/sql"
	"log/slog"
	"net/http"

	"airwatch-server/internal/broadcast"
	"airwatch-server/internal/modules/readings/controller"
	"airwatch-server/internal/modules/readings/repository"
	"airwatch-server/internal/modules/readings/service"
	"airwatch-server/internal/modules/readings/types"
	"airwatch-server/internal/mqtt"
)

// RegisterFeature wires the readings feature: repository over db, ingest
// service publishing into hub, REST routes on mux, and the MQTT ingest
// handler on subscriber (may be nil when MQTT is disabled).
func RegisterFeature(mux *http.ServeMux, db *sql.DB, hub *broadcast.Hub, subscriber mqtt.MessageSubscriber, site types.Location) *service.Service {
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, hub, site, slog.Default())
	controller.NewController(svc).RegisterRoutes(mux)
	if subscriber != nil {
		service.RegisterMQTTHandler(subscriber, svc, slog.Default())
	}
	return svc
}
