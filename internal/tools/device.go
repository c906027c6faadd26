package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthd/hearth/internal/schedule"
)

var roomAliases = map[string]string{
	"bedroom":     "Bedroom",
	"bathroom":    "Bathroom",
	"kitchen":     "Kitchen",
	"livingroom":  "Living Room",
	"living room": "Living Room",
	"living":      "Living Room",
}

var deviceAliases = map[string]string{
	"light":            "Light",
	"lights":           "Light",
	"lamp":             "Light",
	"lamps":            "Light",
	"ac":               "AC",
	"air conditioner":  "AC",
	"airconditioner":   "AC",
	"air conditioning": "AC",
	"tv":               "TV",
	"television":       "TV",
	"fan":              "Fan",
	"fans":             "Fan",
	"alarm":            "Alarm",
	"alarms":           "Alarm",
}

// NormalizeRoom maps loose room references ("livingroom", "living") to
// the registry's canonical names. Unknown input passes through.
func NormalizeRoom(room string, reg schedule.Registry) string {
	lower := strings.ToLower(strings.TrimSpace(room))
	if lower == "" {
		return room
	}
	if canonical, ok := roomAliases[lower]; ok && reg.HasRoom(canonical) {
		return canonical
	}
	for _, name := range reg.RoomNames() {
		if strings.ToLower(name) == lower {
			return name
		}
	}
	return room
}

// NormalizeDevice maps loose device references ("lights", "television")
// to canonical names. Unknown input passes through.
func NormalizeDevice(device string, reg schedule.Registry) string {
	lower := strings.ToLower(strings.TrimSpace(device))
	if lower == "" {
		return device
	}
	if canonical, ok := deviceAliases[lower]; ok {
		return canonical
	}
	for _, devices := range reg {
		for _, d := range devices {
			if strings.ToLower(d) == lower {
				return d
			}
		}
	}
	return device
}

// splitRoomPrefix handles device names that embed the room, like
// "Kitchen Light", returning the room and the bare device name.
func splitRoomPrefix(device string, reg schedule.Registry) (room, bare string) {
	lower := strings.ToLower(device)
	for _, name := range reg.RoomNames() {
		prefix := strings.ToLower(name)
		if strings.HasPrefix(lower, prefix) {
			rest := strings.TrimSpace(device[len(name):])
			if rest != "" {
				return name, rest
			}
		}
	}
	return "", device
}

func (r *Router) handleDeviceControl(ctx context.Context, args map[string]any) (Result, error) {
	room := stringArg(args, "room")
	device := stringArg(args, "device")
	action := stringArg(args, "action")

	var missing []string
	if room == "" {
		missing = append(missing, "room")
	}
	if device == "" {
		missing = append(missing, "device")
	}
	if action == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		return nil, MissingArgs(missing...)
	}

	actionUpper := strings.ToUpper(strings.TrimSpace(action))
	if actionUpper != "ON" && actionUpper != "OFF" {
		return nil, &ValidationError{
			Message: fmt.Sprintf("Invalid action: '%s'. Must be 'ON' or 'OFF'.", action),
		}
	}

	reg := r.state.Registry()

	// "Kitchen Light" style device names carry their own room.
	if prefixRoom, bare := splitRoomPrefix(device, reg); prefixRoom != "" {
		room, device = prefixRoom, bare
	}

	roomNorm := NormalizeRoom(room, reg)
	deviceNorm := NormalizeDevice(device, reg)
	newState := schedule.DeviceState(actionUpper)

	prev, err := r.state.SetDevice(roomNorm, deviceNorm, newState)
	if err != nil {
		return nil, &NotFoundError{
			Message: fmt.Sprintf("Device '%s' not found in room '%s'. Available devices: %v",
				deviceNorm, roomNorm, reg[roomNorm]),
		}
	}

	return Result{
		"room":           roomNorm,
		"device":         deviceNorm,
		"action":         actionUpper,
		"previous_state": prev.Bool(),
		"new_state":      newState.Bool(),
		"message":        fmt.Sprintf("Set %s %s to %s", roomNorm, deviceNorm, actionUpper),
	}, nil
}
