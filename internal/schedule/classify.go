package schedule

import "strings"

// Recurrence classifies how a schedule entry repeats.
type Recurrence int

const (
	// OneTime entries are scoped to a single calendar date.
	OneTime Recurrence = iota
	// Recurring entries belong to the base schedule and apply every day.
	Recurring
)

// String returns the recurrence name for logs and messages.
func (r Recurrence) String() string {
	if r == Recurring {
		return "recurring"
	}
	return "one-time"
}

// Activities that are part of a daily routine. A match here classifies as
// Recurring regardless of message phrasing.
var recurringActivities = []string{
	"wake up", "wake", "breakfast", "lunch", "dinner",
	"work", "continue working", "exercise", "morning exercise",
	"relaxation", "relaxation time", "prepare for bed", "sleep", "bedtime",
}

// Activities that are inherently single occurrences.
var oneTimeActivities = []string{
	"meeting", "appointment", "doctor", "dentist", "gym",
	"visit", "event", "party", "wedding", "birthday",
	"conference", "seminar", "workshop", "class", "therapy",
	"checkup", "consultation", "session",
}

// Message phrasings used as tie-breakers when the activity name alone is
// not conclusive.
var (
	oneTimePhrases = []string{
		"i have a", "i have an", "i need to", "i'm going to",
		"i'm attending", "i'm visiting", "i'm going to the",
		"this afternoon", "this evening", "this morning",
	}
	recurringPhrases = []string{
		"every day", "daily", "always", "usually", "regularly",
		"every morning", "every evening", "every week",
	}
)

// Classify decides whether an activity is a one-time event or a recurring
// routine. Routine-keyword matches are always Recurring; known one-off
// keywords are OneTime; otherwise the user message is inspected for
// phrasing clues. Unknown activities default to OneTime so they never
// silently become permanent fixtures.
func Classify(activity, userMessage string) Recurrence {
	if strings.TrimSpace(activity) == "" {
		return OneTime
	}

	activityLower := strings.ToLower(activity)
	messageLower := strings.ToLower(userMessage)

	for _, kw := range recurringActivities {
		if strings.Contains(activityLower, kw) {
			return Recurring
		}
	}

	for _, kw := range oneTimeActivities {
		if strings.Contains(activityLower, kw) {
			return OneTime
		}
	}

	if messageLower != "" {
		for _, phrase := range oneTimePhrases {
			if strings.Contains(messageLower, phrase) {
				return OneTime
			}
		}
		for _, phrase := range recurringPhrases {
			if strings.Contains(messageLower, phrase) {
				return Recurring
			}
		}
	}

	return OneTime
}
