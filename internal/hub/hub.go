package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-transcript-hub/internal/models"
	"voice-transcript-hub/internal/observability/metrics"
)

// DefaultSubscriberBuffer is the per-subscriber outbound queue depth.
const DefaultSubscriberBuffer = 64

// recentActivityWindow bounds the "recent" figure in Stats.
const recentActivityWindow = 5 * time.Minute

// Subscriber is one connected client's outbound leg: a bounded message
// queue drained by the transport. The hub only ever enqueues; when the
// queue is full the oldest pending message is dropped so a slow client
// never stalls ingestion or other clients.
type Subscriber struct {
	id uint64
	ch chan models.Message
}

// Messages returns the channel the transport drains. It is closed by
// Unsubscribe; a closed channel means the subscription is over.
func (s *Subscriber) Messages() <-chan models.Message {
	return s.ch
}

// Hub is the single owner of mutable relay state. All event ingestion,
// subscription changes, and broadcasts are serialized through one mutex,
// so every subscriber observes state changes in the same order.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	store    *Store
	subs     map[*Subscriber]struct{}
	bufSize  int
	nextID   uint64

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a Hub around the given registry and store. A non-positive
// bufSize falls back to DefaultSubscriberBuffer.
func New(registry *Registry, store *Store, bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = DefaultSubscriberBuffer
	}
	return &Hub{
		registry: registry,
		store:    store,
		subs:     make(map[*Subscriber]struct{}),
		bufSize:  bufSize,
		logger:   log.With().Str("component", "hub").Logger(),
		metrics:  metrics.DefaultMetrics,
	}
}

// Subscribe registers a new subscriber and immediately enqueues an
// initial_data message with the current transcript window and active
// session mapping, so a new client is never blind to history.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscriber{
		id: h.nextID,
		ch: make(chan models.Message, h.bufSize),
	}
	h.subs[sub] = struct{}{}

	h.enqueue(sub, models.Message{
		Type:        models.MessageInitialData,
		Transcripts: h.store.Snapshot(),
		ActiveCalls: h.registry.ListActive(),
	})

	h.metrics.RecordSubscriberConnect()
	h.logger.Info().Uint64("subscriberId", sub.id).Int("total", len(h.subs)).Msg("Subscriber connected")
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent;
// unsubscribing twice or passing nil is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)

	h.metrics.RecordSubscriberDisconnect()
	h.logger.Info().Uint64("subscriberId", sub.id).Int("total", len(h.subs)).Msg("Subscriber disconnected")
}

// Ingest is the single entry point for all inbound events. Safe for
// concurrent use; racing webhook deliveries are applied in some serial
// order with no interleaved partial updates.
func (h *Hub) Ingest(event models.Event) {
	if event == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case models.TranscriptFragment:
		h.ingestTranscript(e)
	case models.CallStatusChange:
		h.ingestStatusChange(e)
	case models.FunctionCallEvent:
		h.metrics.RecordEventIngested("function-call")
		h.broadcast(models.Message{
			Type: models.MessageFunctionCall,
			Data: models.FunctionCallData{
				CallID:       e.CallID,
				FunctionName: e.Name,
				Parameters:   e.Parameters,
				Timestamp:    e.Timestamp,
			},
		})
	case models.ConversationUpdate:
		h.metrics.RecordEventIngested("conversation-update")
		h.broadcast(models.Message{
			Type: models.MessageConversationUpdate,
			Data: models.ConversationUpdateData{
				CallID:       e.CallID,
				MessageCount: e.MessageCount,
				Timestamp:    e.Timestamp,
			},
		})
	case models.CallRemoved:
		h.metrics.RecordEventIngested("call-removed")
		h.removeCall(e.CallID)
		h.clearTranscripts()
	default:
		// Unknown variants are ignored, never fatal.
		h.logger.Warn().Str("callId", event.EventCallID()).Msg("Ignoring unknown event type")
	}

	h.metrics.SetTranscriptsRetained(h.store.Len())
	h.metrics.SetActiveCalls(h.registry.Len())
}

func (h *Hub) ingestTranscript(frag models.TranscriptFragment) {
	h.metrics.RecordEventIngested("transcript")

	rec, ok := h.store.Append(frag)
	if !ok {
		h.metrics.RecordDuplicateDropped()
		h.logger.Debug().
			Str("callId", frag.CallID).
			Str("fragmentId", frag.ID).
			Msg("Dropped duplicate transcript fragment")
		return
	}

	h.logger.Debug().
		Str("callId", rec.CallID).
		Str("role", string(rec.Role)).
		Int("length", len(rec.Text)).
		Msg("Transcript fragment recorded")

	h.broadcast(models.Message{Type: models.MessageTranscript, Data: rec})
}

func (h *Hub) ingestStatusChange(e models.CallStatusChange) {
	h.metrics.RecordEventIngested("status-update")

	sess := h.registry.Upsert(e.CallID, e.Status, e.Session)
	h.logger.Info().
		Str("callId", e.CallID).
		Str("status", string(e.Status)).
		Msg("Call status updated")

	h.broadcast(models.Message{
		Type: models.MessageCallStatus,
		Data: models.CallStatusData{CallID: e.CallID, Session: sess},
	})

	if e.Status.IsTerminal() {
		h.clearTranscripts()
		h.removeCall(e.CallID)
	}
}

// removeCall deletes the session and notifies subscribers. Callers hold
// the hub lock.
func (h *Hub) removeCall(callID string) {
	h.registry.Remove(callID)
	h.logger.Info().Str("callId", callID).Msg("Call removed")
	h.broadcast(models.Message{
		Type: models.MessageCallRemoved,
		Data: models.CallRemovedData{CallID: callID},
	})
}

// clearTranscripts wipes the transcript window and notifies subscribers.
// Callers hold the hub lock.
func (h *Hub) clearTranscripts() {
	h.store.Clear()
	h.broadcast(models.Message{
		Type: models.MessageTranscriptsCleared,
		Data: models.ClearedData{
			Message:   "All transcripts cleared",
			Timestamp: time.Now().UTC(),
		},
	})
}

// Broadcast delivers msg to every current subscriber. Delivery is
// enqueue-only and per-subscriber independent.
func (h *Hub) Broadcast(msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg models.Message) {
	for sub := range h.subs {
		h.enqueue(sub, msg)
	}
	h.metrics.RecordBroadcast(msg.Type)
}

// enqueue adds msg to a subscriber's queue without ever blocking. On a
// full queue the oldest pending message is evicted first. Callers hold
// the hub lock, so the channel cannot be closed concurrently.
func (h *Hub) enqueue(sub *Subscriber, msg models.Message) {
	select {
	case sub.ch <- msg:
		return
	default:
	}

	// Queue full: evict the oldest pending message and retry. The
	// transport may have drained a slot in between, so the retry can
	// still fail without an eviction having happened.
	select {
	case <-sub.ch:
		h.metrics.RecordMessageDropped()
		h.logger.Warn().Uint64("subscriberId", sub.id).Msg("Subscriber queue full, dropped oldest message")
	default:
	}
	select {
	case sub.ch <- msg:
	default:
		h.metrics.RecordMessageDropped()
	}
}

// Stats is the diagnostic read model consumed by the status endpoints.
type Stats struct {
	ActiveConnections int `json:"active_connections"`
	TotalTranscripts  int `json:"total_transcripts"`
	ActiveCalls       int `json:"active_calls"`
	RecentActivity    int `json:"recent_activity"`
}

// Stats returns a momentary consistent snapshot of hub counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		ActiveConnections: len(h.subs),
		TotalTranscripts:  h.store.Len(),
		ActiveCalls:       h.registry.Len(),
		RecentActivity:    h.store.CountSince(time.Now().Add(-recentActivityWindow)),
	}
}

// Transcripts returns a consistent snapshot of the retained transcript
// window for REST consumers.
func (h *Hub) Transcripts() []models.TranscriptRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Snapshot()
}

// ActiveCalls returns a consistent snapshot of the active session
// mapping for REST consumers.
func (h *Hub) ActiveCalls() map[string]models.CallSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.ListActive()
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
