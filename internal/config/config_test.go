package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "METRICS_PORT",
		"TRANSCRIPT_CAPACITY", "SUBSCRIBER_BUFFER", "DEDUP_WINDOW",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_TRANSCRIPTS",
		"KAFKA_TOPIC_CALLS", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "svc-transcript-hub" {
		t.Errorf("expected default principal 'svc-transcript-hub', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8000" {
		t.Errorf("expected default HTTP port '8000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.MetricsPort != "9090" {
		t.Errorf("expected default metrics port '9090', got %s", cfg.Service.MetricsPort)
	}

	if cfg.Hub.TranscriptCapacity != 50 {
		t.Errorf("expected default capacity 50, got %d", cfg.Hub.TranscriptCapacity)
	}
	if cfg.Hub.SubscriberBuffer != 64 {
		t.Errorf("expected default buffer 64, got %d", cfg.Hub.SubscriberBuffer)
	}
	if cfg.Hub.DedupWindow != time.Second {
		t.Errorf("expected default dedup window 1s, got %v", cfg.Hub.DedupWindow)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicTranscripts != "call.transcript.final" {
		t.Errorf("unexpected transcript topic %s", cfg.Kafka.TopicTranscripts)
	}
	if cfg.Kafka.TopicCalls != "call.lifecycle" {
		t.Errorf("unexpected calls topic %s", cfg.Kafka.TopicCalls)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Log.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("TRANSCRIPT_CAPACITY", "100")
	t.Setenv("SUBSCRIBER_BUFFER", "8")
	t.Setenv("DEDUP_WINDOW", "2s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Service.HTTPPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Service.HTTPPort)
	}
	if cfg.Hub.TranscriptCapacity != 100 {
		t.Errorf("expected capacity 100, got %d", cfg.Hub.TranscriptCapacity)
	}
	if cfg.Hub.SubscriberBuffer != 8 {
		t.Errorf("expected buffer 8, got %d", cfg.Hub.SubscriberBuffer)
	}
	if cfg.Hub.DedupWindow != 2*time.Second {
		t.Errorf("expected window 2s, got %v", cfg.Hub.DedupWindow)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-1:9092" || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSCRIPT_CAPACITY", "not-a-number")
	t.Setenv("KAFKA_ENABLED", "maybe")
	t.Setenv("DEDUP_WINDOW", "soon")

	cfg := Load()

	if cfg.Hub.TranscriptCapacity != 50 {
		t.Errorf("expected fallback capacity 50, got %d", cfg.Hub.TranscriptCapacity)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected fallback Kafka disabled")
	}
	if cfg.Hub.DedupWindow != time.Second {
		t.Errorf("expected fallback window 1s, got %v", cfg.Hub.DedupWindow)
	}
}
