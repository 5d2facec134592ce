package ingest

import (
	"errors"
	"testing"
	"time"

	"voice-transcript-hub/internal/models"
)

var parseNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func TestParse_Transcript(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "transcript",
			"role": "user",
			"transcript": "hello there",
			"confidence": 0.87,
			"call": {"id": "call-1"}
		}
	}`)

	event, eventType, err := Parse(body, parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eventType != TypeTranscript {
		t.Errorf("expected type transcript, got %s", eventType)
	}

	frag, ok := event.(models.TranscriptFragment)
	if !ok {
		t.Fatalf("expected TranscriptFragment, got %T", event)
	}
	if frag.CallID != "call-1" {
		t.Errorf("expected call-1, got %s", frag.CallID)
	}
	if frag.Role != models.RoleUser {
		t.Errorf("expected role user, got %s", frag.Role)
	}
	if frag.Text != "hello there" {
		t.Errorf("expected text, got %q", frag.Text)
	}
	if frag.Confidence != 0.87 {
		t.Errorf("expected confidence 0.87, got %v", frag.Confidence)
	}
	if !frag.Timestamp.Equal(parseNow) {
		t.Errorf("expected timestamp %v, got %v", parseNow, frag.Timestamp)
	}
	if frag.ID == "" {
		t.Error("expected a generated fragment id")
	}
}

func TestParse_TranscriptDefaultConfidence(t *testing.T) {
	body := []byte(`{"message": {"type": "transcript", "role": "assistant", "transcript": "hi", "call": {"id": "call-1"}}}`)

	event, _, err := Parse(body, parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frag := event.(models.TranscriptFragment)
	if frag.Confidence != 1.0 {
		t.Errorf("expected default confidence 1.0, got %v", frag.Confidence)
	}
}

func TestParse_StatusUpdate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCallID string
		wantStatus models.CallStatus
	}{
		{
			name:       "callId field",
			body:       `{"message": {"type": "status-update", "status": "queued", "callId": "call-1"}}`,
			wantCallID: "call-1",
			wantStatus: models.StatusQueued,
		},
		{
			name:       "id fallback",
			body:       `{"message": {"type": "status-update", "status": "ended", "id": "call-2"}}`,
			wantCallID: "call-2",
			wantStatus: models.StatusEnded,
		},
		{
			name:       "call object fallback",
			body:       `{"message": {"type": "status-update", "status": "failed", "call": {"id": "call-3"}}}`,
			wantCallID: "call-3",
			wantStatus: models.StatusFailed,
		},
		{
			name:       "intermediate provider status maps to active",
			body:       `{"message": {"type": "status-update", "status": "in-progress", "callId": "call-4"}}`,
			wantCallID: "call-4",
			wantStatus: models.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, _, err := Parse([]byte(tt.body), parseNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			change, ok := event.(models.CallStatusChange)
			if !ok {
				t.Fatalf("expected CallStatusChange, got %T", event)
			}
			if change.CallID != tt.wantCallID {
				t.Errorf("expected call id %s, got %s", tt.wantCallID, change.CallID)
			}
			if change.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, change.Status)
			}
		})
	}
}

func TestParse_CallStartAndEnd(t *testing.T) {
	event, _, err := Parse([]byte(`{"message": {"type": "call-start", "call": {"id": "call-1"}}}`), parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change := event.(models.CallStatusChange); change.Status != models.StatusActive {
		t.Errorf("call-start: expected active, got %s", change.Status)
	}

	event, _, err = Parse([]byte(`{"message": {"type": "call-end", "call": {"id": "call-1"}, "endedReason": "hangup"}}`), parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change := event.(models.CallStatusChange); change.Status != models.StatusEnded {
		t.Errorf("call-end: expected ended, got %s", change.Status)
	}
}

func TestParse_FunctionCall(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "function-call",
			"call": {"id": "call-1"},
			"functionCall": {"name": "lookup_order", "parameters": {"order_id": "o-42"}}
		}
	}`)

	event, _, err := Parse(body, parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc, ok := event.(models.FunctionCallEvent)
	if !ok {
		t.Fatalf("expected FunctionCallEvent, got %T", event)
	}
	if fc.Name != "lookup_order" {
		t.Errorf("expected lookup_order, got %s", fc.Name)
	}
	if fc.Parameters["order_id"] != "o-42" {
		t.Errorf("expected parameters, got %+v", fc.Parameters)
	}
}

func TestParse_ConversationUpdate(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "conversation-update",
			"call": {"id": "call-1"},
			"conversation": [{"role": "user"}, {"role": "assistant"}, {"role": "user"}]
		}
	}`)

	event, _, err := Parse(body, parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cu, ok := event.(models.ConversationUpdate)
	if !ok {
		t.Fatalf("expected ConversationUpdate, got %T", event)
	}
	if cu.MessageCount != 3 {
		t.Errorf("expected 3 messages, got %d", cu.MessageCount)
	}
}

func TestParse_BareEventWithoutWrapper(t *testing.T) {
	body := []byte(`{"type": "transcript", "role": "user", "transcript": "no wrapper", "call": {"id": "call-1"}}`)

	event, _, err := Parse(body, parseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag := event.(models.TranscriptFragment); frag.Text != "no wrapper" {
		t.Errorf("expected bare event to parse, got %+v", frag)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing type", `{"message": {"role": "user"}}`},
		{"non-object message", `{"message": "hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.body), parseNow)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestParse_UnsupportedType(t *testing.T) {
	_, eventType, err := Parse([]byte(`{"message": {"type": "speech-update"}}`), parseNow)
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
	if eventType != "speech-update" {
		t.Errorf("expected the provider type to be reported, got %q", eventType)
	}
}

func TestParse_UnknownFieldsIgnored(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "transcript",
			"role": "user",
			"transcript": "hello",
			"call": {"id": "call-1"},
			"someFutureField": {"nested": true}
		}
	}`)

	if _, _, err := Parse(body, parseNow); err != nil {
		t.Errorf("unknown fields should be ignored, got %v", err)
	}
}
