package schedule

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		activity string
		message  string
		want     Recurrence
	}{
		{"Wake up", "", Recurring},
		{"Breakfast", "", Recurring},
		{"Dentist appointment", "", OneTime},
		{"Doctor visit", "", OneTime},
		{"Team meeting", "", OneTime},
		{"Birthday party", "", OneTime},

		// Recurring keywords in the activity win over one-time message cues.
		{"Lunch", "I have a lunch with Sarah tomorrow", Recurring},

		// Message phrasing decides for neutral activities.
		{"Yoga", "add yoga every morning at 6", Recurring},
		{"Yoga", "I'm going to a yoga session this evening", OneTime},
		{"Call mom", "I need to call mom at 5", OneTime},

		// Neutral activity, neutral message defaults to one-time.
		{"Watering plants", "", OneTime},
	}

	for _, tt := range tests {
		if got := Classify(tt.activity, tt.message); got != tt.want {
			t.Errorf("Classify(%q, %q) = %v, want %v", tt.activity, tt.message, got, tt.want)
		}
	}
}

func TestRecurrenceString(t *testing.T) {
	if OneTime.String() != "one_time" || Recurring.String() != "recurring" {
		t.Errorf("got %q and %q", OneTime, Recurring)
	}
}
