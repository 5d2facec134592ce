// Package models defines the event types exchanged between the webhook
// ingestion side and the broadcast hub, the in-memory call/transcript
// state, and the outbound message envelope sent to dashboard clients.
package models

import "time"

// Role identifies the speaker of a transcript fragment.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// CallStatus is the lifecycle state of a call session.
type CallStatus string

const (
	StatusQueued CallStatus = "queued"
	StatusActive CallStatus = "active"
	StatusEnded  CallStatus = "ended"
	StatusFailed CallStatus = "failed"
)

// IsTerminal returns true if the status ends the call lifecycle.
// A terminal status removes the session and clears transcript state.
func (s CallStatus) IsTerminal() bool {
	return s == StatusEnded || s == StatusFailed
}

// Event is the closed set of inputs accepted by the hub. Exactly one
// concrete type per provider notification; the ingestion adapter maps
// raw webhook payloads onto these before they reach the hub.
type Event interface {
	// EventCallID returns the call the event belongs to.
	EventCallID() string
}

// TranscriptFragment is one unit of speech-to-text output.
type TranscriptFragment struct {
	ID         string
	CallID     string
	Role       Role
	Text       string
	Timestamp  time.Time
	Confidence float64
}

func (e TranscriptFragment) EventCallID() string { return e.CallID }

// CallStatusChange reports a call entering a new lifecycle state.
// Session carries an optional provider-supplied snapshot of session
// details (participants, metadata); it may be nil.
type CallStatusChange struct {
	CallID  string
	Status  CallStatus
	Session *CallSession
}

func (e CallStatusChange) EventCallID() string { return e.CallID }

// FunctionCallEvent reports a tool invocation made by the voice agent.
// Informational only; it mutates no hub state.
type FunctionCallEvent struct {
	CallID     string
	Name       string
	Parameters map[string]any
	Timestamp  time.Time
}

func (e FunctionCallEvent) EventCallID() string { return e.CallID }

// CallRemoved is an explicit provider-sent removal of a call.
type CallRemoved struct {
	CallID string
}

func (e CallRemoved) EventCallID() string { return e.CallID }

// ConversationUpdate reports that the provider-side conversation history
// changed. Informational only, forwarded to clients as a count.
type ConversationUpdate struct {
	CallID       string
	MessageCount int
	Timestamp    time.Time
}

func (e ConversationUpdate) EventCallID() string { return e.CallID }

// CallSession is the authoritative state for one active call.
type CallSession struct {
	CallID       string         `json:"call_id"`
	Status       CallStatus     `json:"status"`
	StartTime    time.Time      `json:"start_time"`
	Participants map[string]any `json:"participants,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// TranscriptRecord is a retained transcript fragment. Field names match
// the wire format the dashboard consumes.
type TranscriptRecord struct {
	ID         string    `json:"id"`
	CallID     string    `json:"call_id"`
	Role       Role      `json:"role"`
	Text       string    `json:"transcript"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// Outbound message types. initial_data is the only type carrying the
// transcripts and active_calls fields; all others carry a single data
// payload.
const (
	MessageTranscript         = "transcript"
	MessageCallStatus         = "call_status"
	MessageInitialData        = "initial_data"
	MessageCallRemoved        = "call_removed"
	MessageTranscriptsCleared = "transcripts_cleared"
	MessageFunctionCall       = "function_call"
	MessageConversationUpdate = "conversation_update"
)

// Message is the envelope delivered to every subscriber.
type Message struct {
	Type        string                 `json:"type"`
	Data        any                    `json:"data,omitempty"`
	Transcripts []TranscriptRecord     `json:"transcripts,omitempty"`
	ActiveCalls map[string]CallSession `json:"active_calls,omitempty"`
}

// CallStatusData is the data payload of a call_status message.
type CallStatusData struct {
	CallID  string      `json:"call_id"`
	Session CallSession `json:"session"`
}

// CallRemovedData is the data payload of a call_removed message.
type CallRemovedData struct {
	CallID string `json:"call_id"`
}

// ClearedData is the data payload of a transcripts_cleared message.
type ClearedData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// FunctionCallData is the data payload of a function_call message.
type FunctionCallData struct {
	CallID       string         `json:"call_id"`
	FunctionName string         `json:"function_name"`
	Parameters   map[string]any `json:"parameters"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ConversationUpdateData is the data payload of a conversation_update message.
type ConversationUpdateData struct {
	CallID       string    `json:"call_id"`
	MessageCount int       `json:"message_count"`
	Timestamp    time.Time `json:"timestamp"`
}
