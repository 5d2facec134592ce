// Package ingest translates provider webhook payloads into the typed
// events the hub accepts. Malformed payloads are rejected here and never
// reach the hub.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-transcript-hub/internal/models"
)

// Provider event type strings as they appear on the wire.
const (
	TypeTranscript         = "transcript"
	TypeStatusUpdate       = "status-update"
	TypeCallStart          = "call-start"
	TypeCallEnd            = "call-end"
	TypeFunctionCall       = "function-call"
	TypeConversationUpdate = "conversation-update"
)

var (
	// ErrMalformedPayload marks payloads that cannot be decoded or are
	// missing the event type.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrUnsupportedEvent marks well-formed payloads with an event type
	// this service does not handle.
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

// envelope is the outer webhook body. The provider wraps the event in a
// "message" object; test tooling may send the event bare.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// rawEvent covers every field any supported provider event can carry.
type rawEvent struct {
	Type       string  `json:"type"`
	Role       string  `json:"role"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	ID         string  `json:"id"`
	CallID     string  `json:"callId"`
	Status     string  `json:"status"`
	Call       struct {
		ID string `json:"id"`
	} `json:"call"`
	FunctionCall struct {
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters"`
	} `json:"functionCall"`
	Conversation []json.RawMessage `json:"conversation"`
}

// Parse decodes a webhook body into a typed event. It returns the event,
// the provider event type string, and an error wrapping either
// ErrMalformedPayload or ErrUnsupportedEvent on failure. now supplies
// timestamps for events the provider does not timestamp itself.
func Parse(body []byte, now time.Time) (models.Event, string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// Fall back to a bare event when there is no message wrapper.
	inner := env.Message
	if len(inner) == 0 {
		inner = body
	}

	var raw rawEvent
	if err := json.Unmarshal(inner, &raw); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.Type == "" {
		return nil, "", fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	switch raw.Type {
	case TypeTranscript:
		return parseTranscript(raw, now), raw.Type, nil
	case TypeStatusUpdate:
		callID := raw.CallID
		if callID == "" {
			callID = raw.ID
		}
		if callID == "" {
			callID = raw.Call.ID
		}
		return models.CallStatusChange{
			CallID: callID,
			Status: mapStatus(raw.Status),
		}, raw.Type, nil
	case TypeCallStart:
		return models.CallStatusChange{
			CallID: raw.Call.ID,
			Status: models.StatusActive,
		}, raw.Type, nil
	case TypeCallEnd:
		return models.CallStatusChange{
			CallID: raw.Call.ID,
			Status: models.StatusEnded,
		}, raw.Type, nil
	case TypeFunctionCall:
		return models.FunctionCallEvent{
			CallID:     raw.Call.ID,
			Name:       raw.FunctionCall.Name,
			Parameters: raw.FunctionCall.Parameters,
			Timestamp:  now,
		}, raw.Type, nil
	case TypeConversationUpdate:
		return models.ConversationUpdate{
			CallID:       raw.Call.ID,
			MessageCount: len(raw.Conversation),
			Timestamp:    now,
		}, raw.Type, nil
	default:
		return nil, raw.Type, fmt.Errorf("%w: %q", ErrUnsupportedEvent, raw.Type)
	}
}

func parseTranscript(raw rawEvent, now time.Time) models.TranscriptFragment {
	id := raw.ID
	if id == "" {
		id = fmt.Sprintf("%s_%d", raw.Call.ID, now.UnixNano())
	}
	confidence := raw.Confidence
	if confidence == 0 {
		confidence = 1.0
	}
	return models.TranscriptFragment{
		ID:         id,
		CallID:     raw.Call.ID,
		Role:       models.Role(raw.Role),
		Text:       raw.Transcript,
		Timestamp:  now,
		Confidence: confidence,
	}
}

// mapStatus folds provider status strings onto the call lifecycle. The
// provider reports intermediate states (ringing, in-progress, forwarding)
// that all mean the call is live.
func mapStatus(s string) models.CallStatus {
	switch s {
	case "queued":
		return models.StatusQueued
	case "ended":
		return models.StatusEnded
	case "failed":
		return models.StatusFailed
	default:
		return models.StatusActive
	}
}
