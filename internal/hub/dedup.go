// Package hub holds the in-memory core of the relay: the session
// registry, the bounded transcript store, duplicate detection, and the
// broadcast hub that fans events out to WebSocket subscribers.
package hub

import (
	"time"

	"voice-transcript-hub/internal/models"
)

// DefaultDedupWindow is how far apart two timestamps may be for
// fragments with identical role and text to still count as the same
// utterance redelivered by the provider.
const DefaultDedupWindow = time.Second

// Deduplicator decides whether an incoming transcript fragment repeats
// one already retained. Providers redeliver the same logical utterance
// under network retry, sometimes with a regenerated id, so an exact id
// match is not the only signal.
type Deduplicator struct {
	window time.Duration
}

// NewDeduplicator creates a Deduplicator with the given match window.
// A non-positive window falls back to DefaultDedupWindow.
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Deduplicator{window: window}
}

// IsDuplicate reports whether candidate duplicates any retained record.
// A record is a duplicate on an exact id match, or when role and text
// are identical and the timestamps differ by less than the window.
// Only currently retained records are consulted; a near-duplicate of an
// already evicted record is re-admitted.
func (d *Deduplicator) IsDuplicate(candidate models.TranscriptFragment, existing []models.TranscriptRecord) bool {
	for _, rec := range existing {
		if rec.ID == candidate.ID {
			return true
		}
		if rec.Role == candidate.Role && rec.Text == candidate.Text {
			delta := candidate.Timestamp.Sub(rec.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta < d.window {
				return true
			}
		}
	}
	return false
}
