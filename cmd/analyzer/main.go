package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climascope/climascope/internal/analyzer"
	"github.com/climascope/climascope/internal/api"
	"github.com/climascope/climascope/internal/auth"
	"github.com/climascope/climascope/internal/config"
	"github.com/climascope/climascope/internal/mqtt"
	"github.com/climascope/climascope/internal/publish"
	"github.com/climascope/climascope/internal/recorder"
	"github.com/climascope/climascope/internal/store"
	"github.com/climascope/climascope/internal/transport"
	"github.com/climascope/climascope/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch-config", false, "log a notice when the config file changes on disk")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log))

	slog.Info("climascope-analyzer starting",
		"config", *configPath,
		"broker", cfg.MQTT.Broker,
		"input_topic", cfg.MQTT.InputTopic,
		"output_topic", cfg.MQTT.OutputTopic,
		"http_port", cfg.Server.HTTPPort,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// CSV recorder. Files are truncated and re-headed on every start.
	csv, err := recorder.Open(cfg.Recorder.Dir, recorder.Files{
		Measurements: cfg.Recorder.MeasurementsFile,
		OutOfRange:   cfg.Recorder.OutOfRangeFile,
		Context:      cfg.Recorder.ContextFile,
	})
	if err != nil {
		slog.Error("failed to open CSV recorder", "dir", cfg.Recorder.Dir, "err", err)
		os.Exit(1)
	}
	// Live store with background TTL eviction. It sits next to the CSV
	// recorder in a fan-out so both see every recorded row.
	st := store.New(cfg.Live.TTL, cfg.Live.MaxReadings)
	go st.Run(ctx)

	// MQTT client shared by the input listener and the results publisher.
	client := mqtt.New(mqtt.Config{
		Broker:    cfg.MQTT.Broker,
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password(),
		KeepAlive: cfg.MQTT.KeepAlive,
	})

	an := analyzer.New(
		analyzer.Options{
			Ranges: analyzer.Ranges{
				TempMin:  cfg.Analysis.TemperatureRange.Min,
				TempMax:  cfg.Analysis.TemperatureRange.Max,
				HumidMin: cfg.Analysis.HumidityRange.Min,
				HumidMax: cfg.Analysis.HumidityRange.Max,
			},
			Retention:     cfg.Analysis.Retention,
			ContextWindow: cfg.Analysis.ContextWindow,
		},
		recorder.NewMulti(csv, st),
		publish.NewMQTT(client, cfg.MQTT.OutputTopic),
	)

	// The listener registers its topic handler before the client connects.
	listener := transport.NewListener(client, cfg.MQTT.InputTopic, cfg.MQTT.QueueSize, an)
	go client.Run(ctx)
	go listener.Run(ctx)

	// WebSocket hub broadcasts the live snapshot to connected clients.
	hub := ws.New(st, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)

	// Combined HTTP server: REST API, WebSocket hub, and Prometheus metrics.
	authWrap := func(h http.Handler) http.Handler {
		return auth.APIKeyMiddleware(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
			h,
		)
	}
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", authWrap(api.New(st)))
	httpMux.Handle("/ws/stream", authWrap(hub))
	httpMux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	// Optional config file watcher. Broker and analysis settings are bound at
	// startup, so changes only take effect after a restart.
	if *watch {
		go func() {
			err := config.Watch(ctx, *configPath, func(_ *config.Config) {
				slog.Info("config file changed on disk, restart to apply")
			})
			if err != nil {
				slog.Error("config watcher failed", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("climascope-analyzer shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
	if err := csv.Close(); err != nil {
		slog.Error("closing CSV recorder", "err", err)
	}
}

// newLogger builds the slog logger from the log config: JSON by default,
// tint's colorized console handler when format is "console".
func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "console" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
