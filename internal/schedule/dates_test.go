package schedule

import (
	"testing"
	"time"
)

func TestExtractDate(t *testing.T) {
	// Saturday March 15 2025.
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		message string
		want    string
	}{
		{"I have a meeting tomorrow at 3pm", "2025-03-16"},
		{"schedule it for next week", "2025-03-22"},
		{"dentist next monday", "2025-03-17"},
		{"dentist next saturday", "2025-03-22"}, // same weekday rolls a full week
		{"party on March 20", "2025-03-20"},
		{"party on march 20th", "2025-03-20"},
		{"party on 20 March", "2025-03-20"},
		{"it happened on January 5", "2026-01-05"}, // past this year rolls to next
		{"deadline is 2025-04-01", "2025-04-01"},
		{"wake me up at 7", ""},
		{"meeting on February 30", ""}, // not a real date
	}

	for _, tt := range tests {
		if got := ExtractDate(tt.message, now); got != tt.want {
			t.Errorf("ExtractDate(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		message string
		want    string
	}{
		{"add dinner in the kitchen at 6", "Kitchen"},
		{"I'll work in the living room today", "Living Room"},
		{"turn on the light in bedroom", "Bedroom"},
		{"turn on the light", ""},
		{"in the garage please", ""},
	}

	for _, tt := range tests {
		if got := ExtractLocation(tt.message, reg); got != tt.want {
			t.Errorf("ExtractLocation(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
