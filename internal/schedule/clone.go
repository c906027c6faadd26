package schedule

// MergeClone builds a daily clone from the base schedule and one day's
// events. Events win time-slot collisions against base items; the result
// is sorted by time. Inputs are not mutated.
func MergeClone(base []Item, events []Event) []Item {
	clone := make([]Item, 0, len(base)+len(events))
	for _, it := range base {
		clone = append(clone, it.Clone())
	}

	for _, ev := range events {
		item := ev.Item.Clone()
		replaced := false
		for i := range clone {
			if clone[i].Time == item.Time {
				clone[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			clone = append(clone, item)
		}
	}

	SortByTime(clone)
	return clone
}

// FindByTime returns the first item whose normalized time equals t.
// When activity is non-empty the activity must match as well,
// disambiguating multiple items sharing a time slot. Returns nil when
// nothing matches.
func FindByTime(items []Item, t, activity string) *Item {
	want := NormalizeTime(t)
	for i := range items {
		if NormalizeTime(items[i].Time) != want {
			continue
		}
		if activity != "" && items[i].Activity != activity {
			continue
		}
		return &items[i]
	}
	return nil
}

// CountAtTime reports how many items share the normalized time slot t.
func CountAtTime(items []Item, t string) int {
	want := NormalizeTime(t)
	n := 0
	for i := range items {
		if NormalizeTime(items[i].Time) == want {
			n++
		}
	}
	return n
}

// Firing is one schedule entry whose time matched the current clock.
type Firing struct {
	Time     string
	Activity string
	Action   *Action
	Location string
}

// MatchDue returns a firing record for every item whose normalized time
// equals now (HH:MM, leniently normalized). Items with unparseable times
// are skipped. Callers are responsible for once-per-minute deduplication.
func MatchDue(items []Item, now string) []Firing {
	nowMinute := minuteOfDay(NormalizeTime(now))
	if nowMinute < 0 {
		return nil
	}

	var due []Firing
	for _, it := range items {
		if minuteOfDay(NormalizeTime(it.Time)) != nowMinute {
			continue
		}
		due = append(due, Firing{
			Time:     it.Time,
			Activity: it.Activity,
			Action:   it.Action.Clone(),
			Location: it.Location,
		})
	}
	return due
}

// NextActivityTime finds the start time of the first item strictly after
// now, or "" if the rest of the day is open-ended. Used to compute when
// the current activity's window closes.
func NextActivityTime(items []Item, now string) string {
	nowMinute := minuteOfDay(NormalizeTime(now))
	if nowMinute < 0 {
		return ""
	}

	best := ""
	bestMinute := -1
	for _, it := range items {
		m := minuteOfDay(NormalizeTime(it.Time))
		if m <= nowMinute {
			continue
		}
		if bestMinute < 0 || m < bestMinute {
			bestMinute = m
			best = it.Time
		}
	}
	return best
}
