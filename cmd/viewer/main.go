// Command viewer follows the live reading feed of an airwatch server and
// prints every change to the current view. It stays useful when the push
// channel is down: the periodic poll keeps the view converging.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airwatch-server/internal/modules/readings/types"
	"airwatch-server/pkg/viewer"
)

func main() {
	var (
		serverURL    = flag.String("server", "http://localhost:8080", "base URL of the airwatch server")
		pollInterval = flag.Duration("poll", 30*time.Second, "interval between polls of the latest reading")
		noReconnect  = flag.Bool("no-reconnect", false, "exit the push channel permanently after the first disconnect")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sess, err := viewer.NewSession(*serverURL, viewer.Options{
		PollInterval: *pollInterval,
		Reconnect:    !*noReconnect,
		Logger:       logger,
		OnUpdate:     printReading,
	})
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching", "server", *serverURL, "poll_interval", *pollInterval)
	sess.Start(ctx)
	<-ctx.Done()
	sess.Close()
}

func printReading(r types.Reading) {
	fmt.Printf("%s  temp=%.1fC rh=%.0f%% voc=%.0f pm1=%.1f pm2.5=%.1f pm10=%.1f rain=%.1fmm wind=%.1fm/s %s\n",
		r.Timestamp.Format(time.RFC3339),
		r.Temperature, r.Humidity, r.VOCIndex,
		r.PM1, r.PM25, r.PM10,
		r.Rainfall, r.WindSpeed, r.WindDirection,
	)
}
