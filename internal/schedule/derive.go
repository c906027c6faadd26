package schedule

import (
	"fmt"
	"strings"
	"sync"
)

// Derived is the result of an activity lookup: the default device actions
// and required location for a known activity, or both nil/empty for an
// unknown one. Unknown activities are not an error.
type Derived struct {
	Action   *Action
	Location string
}

// Deriver maps activity names to their default device actions and
// required locations. This lets the system populate technical fields when
// the model creates schedule items from plain activity names. Lookup is
// case-insensitive exact match.
//
// The zero value is not usable; construct with NewDeriver.
type Deriver struct {
	mu       sync.RWMutex
	defaults map[string]Derived // keyed by lowercased activity name
	reg      Registry
}

// NewDeriver builds a deriver seeded with the built-in activity table,
// validated against reg.
func NewDeriver(reg Registry) *Deriver {
	d := &Deriver{
		defaults: make(map[string]Derived),
		reg:      reg,
	}
	for activity, def := range builtinDefaults() {
		// Built-in entries referencing rooms absent from a custom
		// registry are skipped rather than failing startup.
		if d.valid(def) {
			d.defaults[strings.ToLower(activity)] = def
		}
	}
	return d
}

func builtinDefaults() map[string]Derived {
	on := func(room string, devices ...string) *Action {
		a := &Action{}
		for _, dev := range devices {
			a.Devices = append(a.Devices, DeviceCommand{Room: room, Device: dev, State: StateOn})
		}
		return a
	}
	return map[string]Derived{
		"Wake up":          {Action: on("Bedroom", "Alarm", "Light"), Location: "Bedroom"},
		"Morning exercise": {},
		"Breakfast":        {Location: "Kitchen"},
		"Work":             {Action: on("Living Room", "Light", "AC"), Location: "Living Room"},
		"Meeting":          {Action: on("Living Room", "Light", "AC"), Location: "Living Room"},
		"Continue Working": {Action: on("Living Room", "Light", "AC"), Location: "Living Room"},
		"Lunch":            {Location: "Kitchen"},
		"Dinner":           {Location: "Kitchen"},
		"Relaxation time":  {},
		"Prepare for bed":  {Action: on("Bedroom", "AC", "Light"), Location: "Bedroom"},
		"Sleep": {
			Action:   &Action{Devices: []DeviceCommand{{Room: "Bedroom", Device: "Light", State: StateOff}}},
			Location: "Bedroom",
		},
	}
}

func (d *Deriver) valid(def Derived) bool {
	if def.Location != "" && !d.reg.HasRoom(def.Location) {
		return false
	}
	if def.Action != nil {
		for _, cmd := range def.Action.Devices {
			if !d.reg.HasDevice(cmd.Room, cmd.Device) || !cmd.State.Valid() {
				return false
			}
		}
	}
	return true
}

// Derive looks up defaults for an activity name. Unknown activities yield
// an empty Derived, never an error. Returned actions are deep copies.
func (d *Deriver) Derive(activity string) Derived {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return Derived{}
	}

	d.mu.RLock()
	def, ok := d.defaults[strings.ToLower(activity)]
	d.mu.RUnlock()
	if !ok {
		return Derived{}
	}
	return Derived{Action: def.Action.Clone(), Location: def.Location}
}

// AddMapping registers or replaces an activity mapping, validating the
// action and location against the registry. Used to extend the activity
// vocabulary at runtime without code changes.
func (d *Deriver) AddMapping(activity string, action *Action, location string) error {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return fmt.Errorf("activity must be a non-empty string")
	}
	if location != "" && !d.reg.HasRoom(location) {
		return fmt.Errorf("location must be one of %v, got %q", d.reg.RoomNames(), location)
	}
	if action != nil {
		if len(action.Devices) == 0 {
			return fmt.Errorf("action.devices must be a non-empty list")
		}
		for i, cmd := range action.Devices {
			if !d.reg.HasRoom(cmd.Room) {
				return fmt.Errorf("action.devices[%d].room must be one of %v, got %q", i, d.reg.RoomNames(), cmd.Room)
			}
			if !d.reg.HasDevice(cmd.Room, cmd.Device) {
				return fmt.Errorf("action.devices[%d].device must be one of %v in %s, got %q", i, d.reg[cmd.Room], cmd.Room, cmd.Device)
			}
			if !cmd.State.Valid() {
				return fmt.Errorf("action.devices[%d].state must be ON or OFF, got %q", i, cmd.State)
			}
		}
	}

	d.mu.Lock()
	d.defaults[strings.ToLower(activity)] = Derived{Action: action.Clone(), Location: location}
	d.mu.Unlock()
	return nil
}

// ApplyDerivation fills an item's missing Action/Location from the
// activity table. Explicitly supplied values are never overridden.
func (d *Deriver) ApplyDerivation(it Item) Item {
	if it.Action != nil && it.Location != "" {
		return it
	}
	def := d.Derive(it.Activity)
	if it.Action == nil && def.Action != nil {
		it.Action = def.Action
	}
	if it.Location == "" && def.Location != "" {
		it.Location = def.Location
	}
	return it
}

// DeriveMissing returns a copy of items with every item's missing
// Action/Location backfilled from the activity table. The input slice is
// not mutated; callers use this on read paths so persisted records stay
// as written.
func (d *Deriver) DeriveMissing(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, d.ApplyDerivation(it.Clone()))
	}
	return out
}
