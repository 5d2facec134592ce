// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service ServiceConfig
	Hub     HubConfig
	Kafka   KafkaConfig
	Log     LogConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// HubConfig holds broadcast hub tuning.
type HubConfig struct {
	TranscriptCapacity int
	SubscriberBuffer   int
	DedupWindow        time.Duration
}

// KafkaConfig holds Kafka export settings. Disabled by default; when
// disabled the exporter runs in log-only mode.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicTranscripts string
	TopicCalls       string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-transcript-hub"),
			HTTPPort:    envOrDefault("HTTP_PORT", "8000"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Hub: HubConfig{
			TranscriptCapacity: envIntOrDefault("TRANSCRIPT_CAPACITY", 50),
			SubscriberBuffer:   envIntOrDefault("SUBSCRIBER_BUFFER", 64),
			DedupWindow:        envDurationOrDefault("DEDUP_WINDOW", time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:          envBoolOrDefault("KAFKA_ENABLED", false),
			Brokers:          envListOrDefault("KAFKA_BROKERS", nil),
			TopicTranscripts: envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "call.transcript.final"),
			TopicCalls:       envOrDefault("KAFKA_TOPIC_CALLS", "call.lifecycle"),
		},
		Log: LogConfig{
			Level:  envOrDefault("LOG_LEVEL", "info"),
			Format: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBoolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envListOrDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
