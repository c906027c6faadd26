package state

import "github.com/hearthd/hearth/internal/schedule"

// DefaultBaseSchedule is the recurring schedule installed on first run.
func DefaultBaseSchedule() []schedule.Item {
	return []schedule.Item{
		{
			Time:     "07:00",
			Activity: "Wake up",
			Action: &schedule.Action{Devices: []schedule.DeviceCommand{
				{Room: "Bedroom", Device: "Alarm", State: schedule.StateOn},
				{Room: "Bedroom", Device: "Light", State: schedule.StateOn},
			}},
			Location: "Bedroom",
		},
		{Time: "07:30", Activity: "Morning exercise"},
		{Time: "08:00", Activity: "Breakfast", Location: "Kitchen"},
		{
			Time:     "09:00",
			Activity: "Work",
			Action: &schedule.Action{Devices: []schedule.DeviceCommand{
				{Room: "Living Room", Device: "Light", State: schedule.StateOn},
				{Room: "Living Room", Device: "AC", State: schedule.StateOn},
			}},
			Location: "Living Room",
		},
		{Time: "12:00", Activity: "Lunch", Location: "Kitchen"},
		{Time: "13:00", Activity: "Continue Working", Location: "Living Room"},
		{Time: "18:00", Activity: "Dinner", Location: "Kitchen"},
		{Time: "20:00", Activity: "Relaxation time"},
		{
			Time:     "22:00",
			Activity: "Prepare for bed",
			Action: &schedule.Action{Devices: []schedule.DeviceCommand{
				{Room: "Bedroom", Device: "AC", State: schedule.StateOn},
				{Room: "Bedroom", Device: "Light", State: schedule.StateOn},
			}},
			Location: "Bedroom",
		},
		{
			Time:     "23:00",
			Activity: "Sleep",
			Action: &schedule.Action{Devices: []schedule.DeviceCommand{
				{Room: "Bedroom", Device: "Light", State: schedule.StateOff},
			}},
			Location: "Bedroom",
		},
	}
}
