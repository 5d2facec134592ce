package hub

import (
	"time"

	"voice-transcript-hub/internal/models"
)

// Registry owns the mapping from call id to call session. It is the
// single source of truth for which calls are active. At most one session
// exists per call id.
//
// Registry is not safe for concurrent use on its own; the Hub serializes
// all access.
type Registry struct {
	sessions map[string]*models.CallSession
	now      func() time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*models.CallSession),
		now:      time.Now,
	}
}

// Upsert creates the session for callID if absent, otherwise updates its
// status in place. A provider-supplied snapshot, when present, replaces
// the participants and metadata fields. Repeated identical calls leave
// the registry unchanged. The resulting session is returned by value.
func (r *Registry) Upsert(callID string, status models.CallStatus, snapshot *models.CallSession) models.CallSession {
	sess, ok := r.sessions[callID]
	if !ok {
		sess = &models.CallSession{
			CallID:    callID,
			StartTime: r.now().UTC(),
		}
		if snapshot != nil && !snapshot.StartTime.IsZero() {
			sess.StartTime = snapshot.StartTime
		}
		r.sessions[callID] = sess
	}
	sess.Status = status
	if snapshot != nil {
		if snapshot.Participants != nil {
			sess.Participants = snapshot.Participants
		}
		if snapshot.Metadata != nil {
			sess.Metadata = snapshot.Metadata
		}
	}
	return *sess
}

// Remove deletes the session for callID. Removing an absent id is a
// no-op; the return value reports whether a session existed.
func (r *Registry) Remove(callID string) bool {
	if _, ok := r.sessions[callID]; !ok {
		return false
	}
	delete(r.sessions, callID)
	return true
}

// Get returns the session for callID, if any.
func (r *Registry) Get(callID string) (models.CallSession, bool) {
	sess, ok := r.sessions[callID]
	if !ok {
		return models.CallSession{}, false
	}
	return *sess, true
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// ListActive returns a copy of the active session mapping.
func (r *Registry) ListActive() map[string]models.CallSession {
	out := make(map[string]models.CallSession, len(r.sessions))
	for id, sess := range r.sessions {
		out[id] = *sess
	}
	return out
}
