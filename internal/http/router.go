// Package http wires the service's HTTP surface: the provider webhook,
// the transcript WebSocket endpoint, and the REST convenience endpoints
// the dashboard uses.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voice-transcript-hub/internal/hub"
	"voice-transcript-hub/internal/ingest"
	"voice-transcript-hub/internal/models"
	"voice-transcript-hub/internal/observability/metrics"
	"voice-transcript-hub/internal/transport"
)

// maxWebhookBody caps webhook payload size at 1MB.
const maxWebhookBody = 1 << 20

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", handleInfo(h))
	r.Get("/health", handleHealth)
	r.Post("/vapi/webhook", handleWebhook(h))
	r.Post("/test-webhook", handleTestWebhook(h))
	r.Get("/ws/transcript", transport.Handler(h))
	r.Get("/ws/info", handleWSInfo(h))
	r.Get("/calls", handleCalls(h))
	r.Get("/transcripts", handleTranscripts(h))
	r.Get("/stats", handleStats(h))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// webhookResult is the acknowledgement body returned to the provider.
type webhookResult struct {
	Status      string `json:"status"`
	MessageType string `json:"message_type,omitempty"`
	Processed   bool   `json:"processed"`
	Reason      string `json:"reason,omitempty"`
}

// handleWebhook ingests one provider notification. Malformed payloads
// are rejected here; the hub only ever sees well-formed events.
func handleWebhook(h *hub.Hub) http.HandlerFunc {
	logger := log.With().Str("component", "webhook").Logger()
	m := metrics.DefaultMetrics

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			m.RecordWebhook("read_error")
			writeJSON(w, http.StatusBadRequest, webhookResult{Status: "error", Reason: "unreadable body"})
			return
		}

		event, eventType, err := ingest.Parse(body, time.Now().UTC())
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedEvent) {
				logger.Warn().Str("eventType", eventType).Msg("Unsupported event type")
				m.RecordWebhook("unsupported")
				writeJSON(w, http.StatusOK, webhookResult{
					Status:      "warning",
					MessageType: eventType,
					Processed:   false,
					Reason:      "unsupported_event_type",
				})
				return
			}
			logger.Warn().Err(err).Msg("Malformed webhook payload")
			m.RecordWebhook("malformed")
			writeJSON(w, http.StatusBadRequest, webhookResult{Status: "error", Reason: "malformed_payload"})
			return
		}

		h.Ingest(event)
		m.RecordWebhook("success")
		writeJSON(w, http.StatusOK, webhookResult{
			Status:      "success",
			MessageType: eventType,
			Processed:   true,
		})
	}
}

// handleTestWebhook injects a canned transcript event through the normal
// ingest path so the pipeline can be exercised without the provider.
func handleTestWebhook(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		h.Ingest(models.TranscriptFragment{
			ID:         "test_" + now.Format("150405.000000000"),
			CallID:     "test-call-123",
			Role:       models.RoleUser,
			Text:       "Hello, this is a test message from the API",
			Timestamp:  now,
			Confidence: 1.0,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"status":                     "test message sent",
			"websocket_clients_notified": h.SubscriberCount(),
		})
	}
}

func handleInfo(h *hub.Hub) http.HandlerFunc {
	supported := []string{
		ingest.TypeTranscript,
		ingest.TypeStatusUpdate,
		ingest.TypeCallStart,
		ingest.TypeCallEnd,
		ingest.TypeFunctionCall,
		ingest.TypeConversationUpdate,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		stats := h.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"message":               "Voice Transcript Hub",
			"status":                "running",
			"webhook_path":          "/vapi/webhook",
			"websocket_path":        "/ws/transcript",
			"active_calls":          stats.ActiveCalls,
			"total_transcripts":     stats.TotalTranscripts,
			"websocket_connections": stats.ActiveConnections,
			"supported_events":      supported,
		})
	}
}

func handleWSInfo(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"websocket_path":     "/ws/transcript",
			"active_connections": h.SubscriberCount(),
			"supported_message_types": []string{
				models.MessageTranscript,
				models.MessageCallStatus,
				models.MessageInitialData,
				models.MessageCallRemoved,
				models.MessageTranscriptsCleared,
				models.MessageFunctionCall,
				models.MessageConversationUpdate,
			},
		})
	}
}

func handleCalls(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls := h.ActiveCalls()
		writeJSON(w, http.StatusOK, map[string]any{
			"active_calls": calls,
			"count":        len(calls),
		})
	}
}

func handleTranscripts(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transcripts := h.Transcripts()
		writeJSON(w, http.StatusOK, map[string]any{
			"transcripts": transcripts,
			"total_count": len(transcripts),
		})
	}
}

func handleStats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Stats())
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
