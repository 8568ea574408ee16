package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: "broker.local:1883"
  client_id: "analyzer-1"
  input_topic: "sensors/readings"
  output_topic: "sensors/results"
  keep_alive: 15s
  queue_size: 64
analysis:
  temperature_range: {min: 10, max: 40}
  humidity_range: {min: 20, max: 80}
  retention: 120s
  context_window: 45s
recorder:
  dir: "/var/lib/climascope"
server:
  http_port: 9090
  broadcast_interval: 2s
  auth:
    mode: apikey
    key_env: CLIMASCOPE_API_KEY
live:
  ttl: 10m
  max_readings: 1000
log:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTT.Broker != "broker.local:1883" {
		t.Errorf("broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.KeepAlive != 15*time.Second {
		t.Errorf("keep_alive: got %v", cfg.MQTT.KeepAlive)
	}
	if cfg.Analysis.TemperatureRange.Max != 40 {
		t.Errorf("temperature_range.max: got %v", cfg.Analysis.TemperatureRange.Max)
	}
	if cfg.Analysis.Retention != 120*time.Second {
		t.Errorf("retention: got %v", cfg.Analysis.Retention)
	}
	if cfg.Server.Auth.Mode != "apikey" {
		t.Errorf("auth.mode: got %q", cfg.Server.Auth.Mode)
	}
	if cfg.Live.MaxReadings != 1000 {
		t.Errorf("max_readings: got %d", cfg.Live.MaxReadings)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("log.format: got %q", cfg.Log.Format)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: "localhost:1337"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTT.InputTopic != DefaultInputTopic {
		t.Errorf("default input_topic: got %q, want %q", cfg.MQTT.InputTopic, DefaultInputTopic)
	}
	if cfg.Analysis.Retention != DefaultRetention {
		t.Errorf("default retention: got %v, want %v", cfg.Analysis.Retention, DefaultRetention)
	}
	if cfg.Analysis.ContextWindow != DefaultContextWindow {
		t.Errorf("default context_window: got %v, want %v", cfg.Analysis.ContextWindow, DefaultContextWindow)
	}
	if cfg.Analysis.TemperatureRange != (Range{Min: 18, Max: 30}) {
		t.Errorf("default temperature_range: got %+v", cfg.Analysis.TemperatureRange)
	}
	if cfg.Analysis.HumidityRange != (Range{Min: 30, Max: 70}) {
		t.Errorf("default humidity_range: got %+v", cfg.Analysis.HumidityRange)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("default http_port: got %d", cfg.Server.HTTPPort)
	}
	if cfg.Recorder.Dir != DefaultRecorderDir {
		t.Errorf("default recorder.dir: got %q", cfg.Recorder.Dir)
	}
}

func TestLoad_RejectsWindowExceedingRetention(t *testing.T) {
	path := writeConfig(t, `
analysis:
  retention: 20s
  context_window: 30s
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "exceeds retention") {
		t.Fatalf("Load: expected context window validation error, got %v", err)
	}
}

func TestLoad_RejectsInvertedRange(t *testing.T) {
	path := writeConfig(t, `
analysis:
  temperature_range: {min: 30, max: 18}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected inverted range to fail validation")
	}
}

func TestLoad_RejectsUnknownAuthMode(t *testing.T) {
	path := writeConfig(t, `
server:
  auth:
    mode: oauth
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected unknown auth mode to fail validation")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}
