package service

import (
	"errors"
	"log/slog"

	"airwatch-server/internal/modules/readings/types"
	"airwatch-server/internal/mqtt"
)

// RegisterMQTTHandler routes readings arriving over the MQTT ingest path
// through the same Ingest pipeline as HTTP, so they are validated,
// persisted, and broadcast identically.
func RegisterMQTTHandler(subscriber mqtt.MessageSubscriber, svc *Service, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(payload types.ReadingPayload) error {
		stored, err := svc.Ingest(payload)
		if err != nil {
			var verr *types.ValidationError
			if errors.As(err, &verr) {
				// Invalid device payloads are dropped, not retried.
				logger.Warn("mqtt reading rejected", "field", verr.Field, "error", verr)
				return nil
			}
			logger.Error("mqtt reading ingest failed", "error", err)
			return err
		}

		logger.Debug("mqtt reading stored",
			"id", stored.ID,
			"timestamp", stored.Timestamp,
		)
		return nil
	})
}
