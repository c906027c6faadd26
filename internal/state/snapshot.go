package state

import (
	"fmt"
	"strings"

	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/store"
)

// Snapshot is a read model of the assistant state, used to build the
// LLM system prompt.
type Snapshot struct {
	User        store.UserInfo
	DevicesOn   []store.DeviceStatus
	Schedule    []schedule.Item
	Suppressed  []string // "room device" pairs with notifications disabled
	DoNotRemind []string
	Date        string
	Time        string
}

// Snapshot assembles the current state view.
func (m *Manager) Snapshot() (Snapshot, error) {
	now := m.now()

	user, err := m.store.GetUserInfo()
	if err != nil {
		return Snapshot{}, err
	}
	on, err := m.store.DevicesOn()
	if err != nil {
		return Snapshot{}, err
	}
	items, err := m.TodaySchedule(now.Format(schedule.DateLayout))
	if err != nil {
		return Snapshot{}, err
	}
	suppressed, err := m.store.SuppressedDevices()
	if err != nil {
		return Snapshot{}, err
	}
	noRemind, err := m.store.DoNotRemindList()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		User:        user,
		DevicesOn:   on,
		Schedule:    items,
		Suppressed:  suppressed,
		DoNotRemind: noRemind,
		Date:        now.Format(schedule.DateLayout),
		Time:        now.Format("15:04"),
	}, nil
}

// Describe renders the snapshot as prompt-friendly text.
func (s Snapshot) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s, time: %s\n", s.Date, s.Time)
	if s.User.Name != "" {
		fmt.Fprintf(&b, "User: %s", s.User.Name)
		if s.User.Condition != "" {
			fmt.Fprintf(&b, " (%s)", s.User.Condition)
		}
		b.WriteString("\n")
	}
	if s.User.CurrentLocation != "" {
		fmt.Fprintf(&b, "User location: %s\n", s.User.CurrentLocation)
	}

	if len(s.DevicesOn) == 0 {
		b.WriteString("All devices are OFF.\n")
	} else {
		b.WriteString("Devices ON: ")
		for i, d := range s.DevicesOn {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s %s", d.Room, d.Device)
		}
		b.WriteString("\n")
	}

	if len(s.Suppressed) > 0 {
		fmt.Fprintf(&b, "Do-not-notify devices: %s\n", strings.Join(s.Suppressed, ", "))
	}
	if len(s.DoNotRemind) > 0 {
		fmt.Fprintf(&b, "Do-not-remind activities: %s\n", strings.Join(s.DoNotRemind, ", "))
	}

	if len(s.Schedule) > 0 {
		b.WriteString("Today's schedule:\n")
		for _, it := range s.Schedule {
			fmt.Fprintf(&b, "  %s %s", it.Time, it.Activity)
			if it.Location != "" {
				fmt.Fprintf(&b, " (%s)", it.Location)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
