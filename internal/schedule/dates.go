package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form used across the system.
const DateLayout = "2006-01-02"

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var weekdayNumbers = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

var (
	isoDatePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	monthDayPatterns = map[string]*regexp.Regexp{}
	dayMonthPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for name := range monthNumbers {
		monthDayPatterns[name] = regexp.MustCompile(name + `\s+(\d{1,2})(?:st|nd|rd|th)?`)
		dayMonthPatterns[name] = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+` + name)
	}
}

// ExtractDate finds a calendar date in a user message and resolves it
// relative to now. Recognized forms, in order:
//
//   - "tomorrow" (+1 day), "next week" (+7 days)
//   - "next <weekday>" — the next occurrence, rolling a full week if
//     today already is that weekday
//   - "March 15th" / "15th March" — current year, rolled to next year if
//     the date has already passed
//   - a literal YYYY-MM-DD
//
// Returns "" when nothing matches; callers default to today. Month-name
// dates never resolve to the past (they roll forward a year instead);
// explicit YYYY-MM-DD may still name a past date, which the add
// operation rejects.
func ExtractDate(message string, now time.Time) string {
	if message == "" {
		return ""
	}
	messageLower := strings.ToLower(strings.TrimSpace(message))

	if strings.Contains(messageLower, "tomorrow") {
		return now.AddDate(0, 0, 1).Format(DateLayout)
	}
	if strings.Contains(messageLower, "next week") {
		return now.AddDate(0, 0, 7).Format(DateLayout)
	}

	for name, weekday := range weekdayNumbers {
		if !strings.Contains(messageLower, "next "+name) {
			continue
		}
		ahead := (int(weekday) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead).Format(DateLayout)
	}

	for name, pattern := range monthDayPatterns {
		if d, ok := resolveMonthDay(pattern, messageLower, monthNumbers[name], now); ok {
			return d
		}
	}
	for name, pattern := range dayMonthPatterns {
		if d, ok := resolveMonthDay(pattern, messageLower, monthNumbers[name], now); ok {
			return d
		}
	}

	if m := isoDatePattern.FindString(message); m != "" {
		if _, err := time.Parse(DateLayout, m); err == nil {
			return m
		}
	}

	return ""
}

func resolveMonthDay(pattern *regexp.Regexp, messageLower string, month time.Month, now time.Time) (string, bool) {
	m := pattern.FindStringSubmatch(messageLower)
	if m == nil {
		return "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	target := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	// Reject nonsense like February 31, which time.Date normalizes into
	// the next month.
	if target.Month() != month || target.Day() != day {
		return "", false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if target.Before(today) {
		target = time.Date(now.Year()+1, month, day, 0, 0, 0, 0, now.Location())
		if target.Month() != month || target.Day() != day {
			return "", false
		}
	}
	return target.Format(DateLayout), true
}

// ExtractLocation finds an "in <room>" phrase in a user message and
// returns the matching registry room name, or "" when none matches.
func ExtractLocation(message string, reg Registry) string {
	if message == "" {
		return ""
	}
	messageLower := strings.ToLower(message)
	for _, room := range reg.RoomNames() {
		roomLower := strings.ToLower(room)
		if strings.Contains(messageLower, "in "+roomLower) || strings.Contains(messageLower, "in the "+roomLower) {
			return room
		}
	}
	return ""
}
