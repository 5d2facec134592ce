package hub

import (
	"sort"
	"time"

	"voice-transcript-hub/internal/models"
)

// DefaultStoreCapacity is the rolling window of transcript records kept
// for replay to newly connected clients.
const DefaultStoreCapacity = 50

// Store is the bounded, ordered transcript history. Records are kept in
// ascending timestamp order with insertion order breaking ties; once the
// capacity is exceeded the oldest records are evicted.
//
// Store is not safe for concurrent use on its own; the Hub serializes
// all access.
type Store struct {
	capacity int
	dedup    *Deduplicator
	records  []models.TranscriptRecord
}

// NewStore creates a Store with the given capacity and duplicate policy.
// A non-positive capacity falls back to DefaultStoreCapacity.
func NewStore(capacity int, dedup *Deduplicator) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	if dedup == nil {
		dedup = NewDeduplicator(DefaultDedupWindow)
	}
	return &Store{
		capacity: capacity,
		dedup:    dedup,
	}
}

// Append records a fragment unless the Deduplicator flags it against the
// currently retained window. It returns the stored record and true when
// appended, or a zero record and false for duplicates.
func (s *Store) Append(frag models.TranscriptFragment) (models.TranscriptRecord, bool) {
	if s.dedup.IsDuplicate(frag, s.records) {
		return models.TranscriptRecord{}, false
	}

	rec := models.TranscriptRecord{
		ID:         frag.ID,
		CallID:     frag.CallID,
		Role:       frag.Role,
		Text:       frag.Text,
		Timestamp:  frag.Timestamp,
		Confidence: frag.Confidence,
	}
	s.records = append(s.records, rec)

	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp.Before(s.records[j].Timestamp)
	})

	if excess := len(s.records) - s.capacity; excess > 0 {
		s.records = append(s.records[:0], s.records[excess:]...)
	}
	return rec, true
}

// Clear drops every retained record. Used when a call ends.
func (s *Store) Clear() {
	s.records = s.records[:0]
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	return len(s.records)
}

// CountSince returns how many retained records carry a timestamp at or
// after t. Feeds the recent-activity figure in the stats read model.
func (s *Store) CountSince(t time.Time) int {
	n := 0
	for _, rec := range s.records {
		if !rec.Timestamp.Before(t) {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the retained records in ascending timestamp
// order. Callers may hold it without affecting the store.
func (s *Store) Snapshot() []models.TranscriptRecord {
	out := make([]models.TranscriptRecord, len(s.records))
	copy(out, s.records)
	return out
}
