// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_transcript_hub"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Ingest metrics
	EventsIngested    *prometheus.CounterVec
	DuplicatesDropped prometheus.Counter
	WebhookRequests   *prometheus.CounterVec

	// Broadcast metrics
	BroadcastsTotal   *prometheus.CounterVec
	MessagesDropped   prometheus.Counter
	SubscribersActive prometheus.Gauge
	SubscribersTotal  prometheus.Counter

	// State metrics
	TranscriptsRetained prometheus.Gauge
	ActiveCalls         prometheus.Gauge

	// Kafka export metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Ingest metrics
		EventsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of provider events ingested by the hub",
		}, []string{"event_type"}),
		DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Total number of transcript fragments rejected as duplicates",
		}),
		WebhookRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Total number of webhook requests by processing result",
		}, []string{"result"}),

		// Broadcast metrics
		BroadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Total number of messages broadcast to subscribers",
		}, []string{"message_type"}),
		MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Total number of queued messages dropped to slow subscribers",
		}),
		SubscribersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers_active",
			Help:      "Number of currently connected subscribers",
		}),
		SubscribersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_total",
			Help:      "Total number of subscriber connections accepted",
		}),

		// State metrics
		TranscriptsRetained: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transcripts_retained",
			Help:      "Number of transcript records currently retained",
		}),
		ActiveCalls: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_calls",
			Help:      "Number of call sessions currently active",
		}),

		// Kafka export metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordEventIngested records a provider event reaching the hub.
func (m *Metrics) RecordEventIngested(eventType string) {
	m.EventsIngested.WithLabelValues(eventType).Inc()
}

// RecordDuplicateDropped records a transcript fragment rejected as a duplicate.
func (m *Metrics) RecordDuplicateDropped() {
	m.DuplicatesDropped.Inc()
}

// RecordWebhook records a webhook request outcome.
func (m *Metrics) RecordWebhook(result string) {
	m.WebhookRequests.WithLabelValues(result).Inc()
}

// RecordBroadcast records a message fanned out to subscribers.
func (m *Metrics) RecordBroadcast(messageType string) {
	m.BroadcastsTotal.WithLabelValues(messageType).Inc()
}

// RecordMessageDropped records a queued message dropped under backpressure.
func (m *Metrics) RecordMessageDropped() {
	m.MessagesDropped.Inc()
}

// RecordSubscriberConnect records a new subscriber connecting.
func (m *Metrics) RecordSubscriberConnect() {
	m.SubscribersTotal.Inc()
	m.SubscribersActive.Inc()
}

// RecordSubscriberDisconnect records a subscriber disconnecting.
func (m *Metrics) RecordSubscriberDisconnect() {
	m.SubscribersActive.Dec()
}

// SetTranscriptsRetained updates the retained transcript gauge.
func (m *Metrics) SetTranscriptsRetained(n int) {
	m.TranscriptsRetained.Set(float64(n))
}

// SetActiveCalls updates the active call gauge.
func (m *Metrics) SetActiveCalls(n int) {
	m.ActiveCalls.Set(float64(n))
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
