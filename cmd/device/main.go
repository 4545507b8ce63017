// Command device simulates a weather station: it emits randomized but
// plausible sensor payloads at a fixed interval, either straight to the
// HTTP ingest endpoint or over MQTT.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"airwatch-server/internal/modules/readings/types"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
		count      = flag.Int("count", 0, "number of readings to send before exiting, 0 for unlimited")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *count, logger); err != nil {
		logger.Error("simulator failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, count int, logger *slog.Logger) error {
	var send func(types.ReadingPayload) error
	if cfg.MQTT.Broker != "" {
		publisher, err := newMQTTPublisher(ctx, cfg)
		if err != nil {
			return err
		}
		defer publisher.close()
		send = publisher.send
		logger.Info("publishing over mqtt", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	} else {
		send = httpSender(cfg.Server.URL)
		logger.Info("posting over http", "url", cfg.Server.URL)
	}

	gen := newGenerator(types.Location{Latitude: cfg.Site.Latitude, Longitude: cfg.Site.Longitude})
	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	sent := 0
	for {
		payload := gen.next()
		if err := send(payload); err != nil {
			logger.Warn("send failed", "error", err)
		} else {
			sent++
			logger.Info("sent reading",
				"n", sent,
				"temperature", *payload.Temperature,
				"humidity", *payload.Humidity,
				"pm25", *payload.PM25,
			)
		}
		if count > 0 && sent >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func httpSender(baseURL string) func(types.ReadingPayload) error {
	client := &http.Client{Timeout: 10 * time.Second}
	url := baseURL + "/readings"
	return func(p types.ReadingPayload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post reading: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("post reading: status %d: %s", resp.StatusCode, msg)
		}
		return nil
	}
}

type mqttPublisher struct {
	client mqtt.Client
	topic  string
}

func newMQTTPublisher(ctx context.Context, cfg Config) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Broker, cfg.MQTT.Port)).
		SetClientID(cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	for !token.WaitTimeout(200 * time.Millisecond) {
		select {
		case <-ctx.Done():
			client.Disconnect(250)
			return nil, ctx.Err()
		default:
		}
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &mqttPublisher{client: client, topic: cfg.MQTT.Topic}, nil
}

func (p *mqttPublisher) send(payload types.ReadingPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, body)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *mqttPublisher) close() {
	p.client.Disconnect(250)
}
