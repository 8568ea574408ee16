package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
// Broker, topics, ranges, and window durations follow the sensor-node
// deployment this analyzer was built for.
const (
	DefaultBroker            = "localhost:1337"
	DefaultClientID          = "climascope-analyzer"
	DefaultInputTopic        = "reading/formatted"
	DefaultOutputTopic       = "analysis/results"
	DefaultKeepAlive         = 30 * time.Second
	DefaultQueueSize         = 256
	DefaultRetention         = 60 * time.Second
	DefaultContextWindow     = 30 * time.Second
	DefaultRecorderDir       = "data"
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
	DefaultLiveTTL           = 5 * time.Minute
	DefaultMaxReadings       = 600
)

// Config is the top-level configuration for the analyzer process.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Recorder RecorderConfig `yaml:"recorder"`
	Server   ServerConfig   `yaml:"server"`
	Live     LiveConfig     `yaml:"live"`
	Log      LogConfig      `yaml:"log"`
}

// MQTTConfig holds broker connection and topic settings.
type MQTTConfig struct {
	// Broker is the MQTT broker address (host:port).
	Broker string `yaml:"broker"`

	// ClientID identifies this analyzer to the broker.
	ClientID string `yaml:"client_id"`

	// Username is the broker username; empty disables authentication.
	Username string `yaml:"username"`

	// PasswordEnv is the name of the environment variable holding the
	// broker password.
	PasswordEnv string `yaml:"password_env"`

	// InputTopic carries formatted sensor readings into the analyzer.
	InputTopic string `yaml:"input_topic"`

	// OutputTopic receives every processed measurement.
	OutputTopic string `yaml:"output_topic"`

	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration `yaml:"keep_alive"`

	// QueueSize bounds the queue between the MQTT callback and the single
	// ingest worker. Overflow drops readings with a diagnostic.
	QueueSize int `yaml:"queue_size"`
}

// Password returns the broker password resolved from the environment.
// Returns empty if PasswordEnv is unset or the variable is not found.
func (m MQTTConfig) Password() string {
	if m.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(m.PasswordEnv)
}

// Range is an inclusive [Min, Max] acceptable range.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// AnalysisConfig holds the classification thresholds and window durations.
type AnalysisConfig struct {
	// TemperatureRange is the inclusive acceptable temperature range (°C).
	TemperatureRange Range `yaml:"temperature_range"`

	// HumidityRange is the inclusive acceptable humidity range (%).
	HumidityRange Range `yaml:"humidity_range"`

	// Retention is the rolling buffer horizon relative to the newest reading.
	Retention time.Duration `yaml:"retention"`

	// ContextWindow is the ± interval around an out-of-range reading used to
	// select context. Must not exceed Retention.
	ContextWindow time.Duration `yaml:"context_window"`
}

// RecorderConfig holds the CSV output location.
type RecorderConfig struct {
	// Dir is the directory the three CSV files are written to.
	Dir string `yaml:"dir"`

	MeasurementsFile string `yaml:"measurements_file"`
	OutOfRangeFile   string `yaml:"out_of_range_file"`
	ContextFile      string `yaml:"context_file"`
}

// ServerConfig holds the HTTP diagnostics surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub, and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval controls how often the WebSocket hub pushes the live
	// snapshot to connected clients.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Auth configures API key authentication for the REST API.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls HTTP API authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// LiveConfig controls the in-memory live store behind the API and hub.
type LiveConfig struct {
	// TTL is how long readings and anomalies remain visible after arrival.
	TTL time.Duration `yaml:"ttl"`

	// MaxReadings caps the recent-readings ring.
	MaxReadings int `yaml:"max_readings"`
}

// LogConfig controls slog output.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | console.
	Format string `yaml:"format"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:      DefaultBroker,
			ClientID:    DefaultClientID,
			InputTopic:  DefaultInputTopic,
			OutputTopic: DefaultOutputTopic,
			KeepAlive:   DefaultKeepAlive,
			QueueSize:   DefaultQueueSize,
		},
		Analysis: AnalysisConfig{
			TemperatureRange: Range{Min: 18, Max: 30},
			HumidityRange:    Range{Min: 30, Max: 70},
			Retention:        DefaultRetention,
			ContextWindow:    DefaultContextWindow,
		},
		Recorder: RecorderConfig{
			Dir: DefaultRecorderDir,
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		Live: LiveConfig{
			TTL:         DefaultLiveTTL,
			MaxReadings: DefaultMaxReadings,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if cfg.MQTT.InputTopic == "" {
		return fmt.Errorf("mqtt.input_topic is required")
	}
	if cfg.MQTT.OutputTopic == "" {
		return fmt.Errorf("mqtt.output_topic is required")
	}
	if cfg.MQTT.QueueSize <= 0 {
		return fmt.Errorf("mqtt.queue_size must be positive")
	}
	if cfg.Analysis.Retention <= 0 {
		return fmt.Errorf("analysis.retention must be positive")
	}
	if cfg.Analysis.ContextWindow <= 0 {
		return fmt.Errorf("analysis.context_window must be positive")
	}
	// The retention horizon must cover the context window, otherwise context
	// queries would reach for readings already evicted.
	if cfg.Analysis.ContextWindow > cfg.Analysis.Retention {
		return fmt.Errorf("analysis.context_window %v exceeds retention %v",
			cfg.Analysis.ContextWindow, cfg.Analysis.Retention)
	}
	for name, r := range map[string]Range{
		"analysis.temperature_range": cfg.Analysis.TemperatureRange,
		"analysis.humidity_range":    cfg.Analysis.HumidityRange,
	} {
		if r.Min >= r.Max {
			return fmt.Errorf("%s: min %v must be below max %v", name, r.Min, r.Max)
		}
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Live.TTL <= 0 {
		return fmt.Errorf("live.ttl must be positive")
	}
	if cfg.Live.MaxReadings <= 0 {
		return fmt.Errorf("live.max_readings must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("log.format %q unknown: want json|console", cfg.Log.Format)
	}
	return nil
}
