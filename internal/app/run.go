package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"airwatch-server/internal/broadcast"
	"airwatch-server/internal/config"
	"airwatch-server/internal/db"
	"airwatch-server/internal/db/migrate"
	"airwatch-server/internal/httpapi"
	"airwatch-server/internal/modules/readings"
	"airwatch-server/internal/modules/readings/types"
	"airwatch-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
		"siteLat", cfg.SiteLatitude,
		"siteLon", cfg.SiteLongitude,
	)

	startedAt := time.Now()

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}
	slog.Info("database ready")

	hub := broadcast.NewHub(cfg.WSSendBuffer, slog.Default())
	site := types.Location{Latitude: cfg.SiteLatitude, Longitude: cfg.SiteLongitude}

	// Set the MQTT handler before Connect so OnConnectHandler can subscribe
	// immediately; the broker may send queued messages right after CONNACK.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		subscriber = mqtt.NewSubscriber(cfg, slog.Default())
	}

	mux := httpapi.NewMux(dbConn, hub, startedAt)
	readings.RegisterFeature(mux, dbConn, hub, subscriberOrNil(subscriber), site)

	if subscriber != nil {
		// Short timeout so a down broker does not block startup; HTTP ingest
		// still works without MQTT.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	slog.Info("closing viewer sessions")
	hub.Shutdown()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// subscriberOrNil keeps the nil check explicit: a typed nil *Subscriber must
// not reach RegisterFeature as a non-nil interface.
func subscriberOrNil(s *mqtt.Subscriber) mqtt.MessageSubscriber {
	if s == nil {
		return nil
	}
	return s
}
