package hub

import (
	"testing"
	"time"

	"voice-transcript-hub/internal/models"
)

var dedupBase = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func record(id string, role models.Role, text string, ts time.Time) models.TranscriptRecord {
	return models.TranscriptRecord{
		ID:        id,
		CallID:    "c1",
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
}

func fragment(id string, role models.Role, text string, ts time.Time) models.TranscriptFragment {
	return models.TranscriptFragment{
		ID:        id,
		CallID:    "c1",
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
}

func TestDeduplicator_IsDuplicate(t *testing.T) {
	existing := []models.TranscriptRecord{
		record("a1", models.RoleUser, "hello", dedupBase),
		record("a2", models.RoleAssistant, "hi there", dedupBase.Add(2*time.Second)),
	}

	tests := []struct {
		name      string
		candidate models.TranscriptFragment
		want      bool
	}{
		{
			name:      "exact id match",
			candidate: fragment("a1", models.RoleAssistant, "different text", dedupBase.Add(time.Hour)),
			want:      true,
		},
		{
			name:      "same role and text within window",
			candidate: fragment("b1", models.RoleUser, "hello", dedupBase.Add(500*time.Millisecond)),
			want:      true,
		},
		{
			name:      "same role and text, candidate earlier",
			candidate: fragment("b2", models.RoleUser, "hello", dedupBase.Add(-700*time.Millisecond)),
			want:      true,
		},
		{
			name:      "same role and text outside window",
			candidate: fragment("b3", models.RoleUser, "hello", dedupBase.Add(1500*time.Millisecond)),
			want:      false,
		},
		{
			name:      "same role and text exactly at window boundary",
			candidate: fragment("b4", models.RoleUser, "hello", dedupBase.Add(time.Second)),
			want:      false,
		},
		{
			name:      "same text different role",
			candidate: fragment("b5", models.RoleAssistant, "hello", dedupBase),
			want:      false,
		},
		{
			name:      "same role different text",
			candidate: fragment("b6", models.RoleUser, "goodbye", dedupBase),
			want:      false,
		},
		{
			name:      "fresh fragment",
			candidate: fragment("b7", models.RoleUser, "something new", dedupBase.Add(10*time.Second)),
			want:      false,
		},
	}

	d := NewDeduplicator(time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsDuplicate(tt.candidate, existing); got != tt.want {
				t.Errorf("IsDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeduplicator_EmptyWindow(t *testing.T) {
	d := NewDeduplicator(time.Second)
	if d.IsDuplicate(fragment("a1", models.RoleUser, "hello", dedupBase), nil) {
		t.Error("expected no duplicate against empty window")
	}
}

func TestNewDeduplicator_DefaultWindow(t *testing.T) {
	d := NewDeduplicator(0)
	if d.window != DefaultDedupWindow {
		t.Errorf("expected default window %v, got %v", DefaultDedupWindow, d.window)
	}
}
