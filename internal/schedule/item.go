// Package schedule defines the schedule data model and the pure algorithms
// that operate on it: time validation, activity derivation, one-time vs
// recurring classification, date extraction, and daily-clone merging.
// Persistence lives in internal/store; orchestration in internal/state.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DeviceState is the commanded state of a device in an action.
type DeviceState string

const (
	StateOn  DeviceState = "ON"
	StateOff DeviceState = "OFF"
)

// Valid reports whether s is one of the two known states.
func (s DeviceState) Valid() bool {
	return s == StateOn || s == StateOff
}

// Bool converts the device state to its boolean form (ON = true).
func (s DeviceState) Bool() bool {
	return s == StateOn
}

// DeviceCommand names one device and the state it should be set to.
type DeviceCommand struct {
	Room   string      `json:"room"`
	Device string      `json:"device"`
	State  DeviceState `json:"state"`
}

// Action is the device-action set attached to a schedule item.
type Action struct {
	Devices []DeviceCommand `json:"devices"`
}

// Clone returns a deep copy of the action.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	out := &Action{Devices: make([]DeviceCommand, len(a.Devices))}
	copy(out.Devices, a.Devices)
	return out
}

// Item is a single schedule entry. Time and Activity are required;
// Action and Location are optional and may be derived from the activity
// name when absent.
type Item struct {
	Time     string  `json:"time"`
	Activity string  `json:"activity"`
	Action   *Action `json:"action,omitempty"`
	Location string  `json:"location,omitempty"`
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	out.Action = it.Action.Clone()
	return out
}

// Event is a schedule item scoped to exactly one calendar date.
// Events are never promoted into the base schedule.
type Event struct {
	Date string `json:"date"` // YYYY-MM-DD
	Item
}

// Registry is the fixed room → device-names mapping that schedule items
// are validated against. Unknown pairs are rejected, never created.
type Registry map[string][]string

// HasRoom reports whether room is configured.
func (r Registry) HasRoom(room string) bool {
	_, ok := r[room]
	return ok
}

// HasDevice reports whether device is configured in room.
func (r Registry) HasDevice(room, device string) bool {
	for _, d := range r[room] {
		if d == device {
			return true
		}
	}
	return false
}

// RoomNames returns configured room names in sorted order, for error
// messages and prompts.
func (r Registry) RoomNames() []string {
	names := make([]string, 0, len(r))
	for room := range r {
		names = append(names, room)
	}
	sort.Strings(names)
	return names
}

// ValidateTime checks that s is a clock time in H:MM or HH:MM form with
// hours 0-23 and minutes 0-59, and returns it zero-padded to HH:MM.
func ValidateTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("time must be a non-empty string")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("time must be in HH:MM format, got %q", s)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("time must be in HH:MM format, got %q", s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("time must be in HH:MM format, got %q", s)
	}
	if hours < 0 || hours > 23 {
		return "", fmt.Errorf("time hours must be 0-23, got %d", hours)
	}
	if minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("time minutes must be 0-59, got %d", minutes)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// NormalizeTime is a lenient form of ValidateTime: it additionally accepts
// "." as the separator ("14.30" → "14:30") and a missing minutes field
// ("14:" → "14:00"). If normalization fails the input is returned
// unchanged so the caller's validation produces the error.
func NormalizeTime(s string) string {
	if s == "" {
		return s
	}
	candidate := strings.ReplaceAll(s, ".", ":")
	parts := strings.Split(candidate, ":")
	if len(parts) != 2 {
		return s
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return s
	}
	minutes := 0
	if m := strings.TrimSpace(parts[1]); m != "" {
		minutes, err = strconv.Atoi(m)
		if err != nil {
			return s
		}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// ValidateItem checks an item's shape against the registry. Every failure
// names the offending field; callers surface the message directly.
func ValidateItem(it Item, reg Registry) error {
	if _, err := ValidateTime(it.Time); err != nil {
		return fmt.Errorf("schedule item time: %w", err)
	}
	if strings.TrimSpace(it.Activity) == "" {
		return fmt.Errorf("schedule item activity must be a non-empty string")
	}
	if it.Action != nil {
		if len(it.Action.Devices) == 0 {
			return fmt.Errorf("schedule item action.devices must be a non-empty list")
		}
		for i, cmd := range it.Action.Devices {
			if strings.TrimSpace(cmd.Room) == "" {
				return fmt.Errorf("schedule item action.devices[%d].room must be a non-empty string", i)
			}
			if !reg.HasRoom(cmd.Room) {
				return fmt.Errorf("schedule item action.devices[%d].room must be one of %v, got %q", i, reg.RoomNames(), cmd.Room)
			}
			if strings.TrimSpace(cmd.Device) == "" {
				return fmt.Errorf("schedule item action.devices[%d].device must be a non-empty string", i)
			}
			if !reg.HasDevice(cmd.Room, cmd.Device) {
				return fmt.Errorf("schedule item action.devices[%d].device must be one of %v in %s, got %q", i, reg[cmd.Room], cmd.Room, cmd.Device)
			}
			if !cmd.State.Valid() {
				return fmt.Errorf("schedule item action.devices[%d].state must be ON or OFF, got %q", i, cmd.State)
			}
		}
	}
	if it.Location != "" && !reg.HasRoom(it.Location) {
		return fmt.Errorf("schedule item location must be one of %v, got %q", reg.RoomNames(), it.Location)
	}
	return nil
}

// minuteOfDay converts an HH:MM string to minutes since midnight.
// Returns -1 for unparseable input.
func minuteOfDay(t string) int {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) != 2 {
		return -1
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return -1
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return -1
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}

// SortByTime sorts items chronologically in place. Lexical order on
// normalized HH:MM strings matches chronological order.
func SortByTime(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time < items[j].Time
	})
}
