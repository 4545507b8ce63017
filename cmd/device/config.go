package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's YAML configuration. Exactly one transport is
// active: MQTT when mqtt.broker is set, HTTP otherwise.
type Config struct {
	Server struct {
		URL string `yaml:"url"`
	} `yaml:"server"`
	MQTT struct {
		Broker   string `yaml:"broker"`
		Port     int    `yaml:"port"`
		Topic    string `yaml:"topic"`
		ClientID string `yaml:"client_id"`
	} `yaml:"mqtt"`
	IntervalSeconds int `yaml:"interval_seconds"`
	Site            struct {
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	} `yaml:"site"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	cfg.Server.URL = "http://localhost:8080"
	cfg.MQTT.Port = 1883
	cfg.MQTT.Topic = "airwatch/readings"
	cfg.MQTT.ClientID = "airwatch-device"
	cfg.IntervalSeconds = 5
	cfg.Site.Latitude = 1.3521
	cfg.Site.Longitude = 103.8198

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.IntervalSeconds <= 0 {
		return Config{}, fmt.Errorf("interval_seconds must be positive, got %d", cfg.IntervalSeconds)
	}
	if cfg.MQTT.Broker == "" && cfg.Server.URL == "" {
		return Config{}, fmt.Errorf("either server.url or mqtt.broker must be set")
	}
	return cfg, nil
}

// Interval is the delay between generated readings.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
