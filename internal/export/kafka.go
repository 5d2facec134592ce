// Package export mirrors the hub's outbound message stream to Kafka for
// downstream consumers. It attaches to the hub as a regular subscriber,
// so a slow or unavailable broker is subject to the same drop-oldest
// backpressure as any dashboard client and can never stall ingestion.
package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-transcript-hub/internal/hub"
	"voice-transcript-hub/internal/models"
	"voice-transcript-hub/internal/observability/metrics"
)

// Publisher publishes relay messages to separate Kafka topics for
// transcripts and call lifecycle changes.
type Publisher struct {
	writerTranscripts *kafka.Writer
	writerCalls       *kafka.Writer
	topicTranscripts  string
	topicCalls        string
	enabled           bool
	metrics           *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers          []string
	TopicTranscripts string
	TopicCalls       string
	Enabled          bool
}

// New creates a Kafka publisher. With a nil config, Enabled false, or no
// brokers it runs in log-only mode and never touches the network.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka export disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka export disabled, using log-only mode")
		return &Publisher{
			topicTranscripts: cfg.TopicTranscripts,
			topicCalls:       cfg.TopicCalls,
			enabled:          false,
			metrics:          m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTranscripts := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscripts,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	writerCalls := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicCalls,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscripts", cfg.TopicTranscripts).
		Str("topicCalls", cfg.TopicCalls).
		Msg("Kafka export publisher initialized")

	return &Publisher{
		writerTranscripts: writerTranscripts,
		writerCalls:       writerCalls,
		topicTranscripts:  cfg.TopicTranscripts,
		topicCalls:        cfg.TopicCalls,
		enabled:           true,
		metrics:           m,
	}
}

// Run subscribes to the hub and mirrors its message stream until ctx is
// cancelled. Publish errors are logged and counted, never propagated.
func (p *Publisher) Run(ctx context.Context, h *hub.Hub) {
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			p.Publish(ctx, msg)
		}
	}
}

// Publish routes a single relay message to its topic. Transcripts go to
// the transcript topic; call lifecycle messages go to the calls topic;
// everything else (initial replays, informational pass-throughs) is not
// exported.
func (p *Publisher) Publish(ctx context.Context, msg models.Message) {
	switch msg.Type {
	case models.MessageTranscript:
		p.publish(ctx, p.writerTranscripts, p.topicTranscripts, msg)
	case models.MessageCallStatus, models.MessageCallRemoved, models.MessageTranscriptsCleared:
		p.publish(ctx, p.writerCalls, p.topicCalls, msg)
	}
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic string, msg models.Message) {
	start := time.Now()

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal message")
		return
	}

	key := messageKey(msg)

	log.Debug().
		Str("topic", topic).
		Str("key", key).
		Str("messageType", msg.Type).
		Msg("Exporting message")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, msg.Type, nil, time.Since(start).Seconds())
		return
	}

	kmsg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "messageType", Value: []byte(msg.Type)},
		},
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, msg.Type, err, time.Since(start).Seconds())
		return
	}

	p.metrics.RecordKafkaPublish(topic, msg.Type, nil, time.Since(start).Seconds())
}

// messageKey keys exported messages by call id so one call's stream
// lands on one partition.
func messageKey(msg models.Message) string {
	switch data := msg.Data.(type) {
	case models.TranscriptRecord:
		return data.CallID
	case models.CallStatusData:
		return data.CallID
	case models.CallRemovedData:
		return data.CallID
	default:
		return ""
	}
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscripts != nil {
		if e := p.writerTranscripts.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerCalls != nil {
		if e := p.writerCalls.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing calls writer")
			err = e
		}
	}
	return err
}
