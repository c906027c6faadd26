// Package notify runs proactive house checks and manages the "leave it
// on" preference flow that follows a notification.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/store"
	"github.com/hearthd/hearth/internal/toolcall"
	"github.com/hearthd/hearth/internal/tools"
)

// Notification records a delivered house-check message and the devices
// it covered, kept so a follow-up "leave it on" can be attributed.
type Notification struct {
	Message string
	Devices []store.DeviceStatus
}

// Service detects devices left ON away from the user and notifies
// once per location change.
type Service struct {
	state  *state.Manager
	router *tools.Router
	logger *slog.Logger
}

// NewService wires the house-check service.
func NewService(st *state.Manager, router *tools.Router, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: st, router: router, logger: logger}
}

// PotentialIssues lists devices that are ON in rooms other than the
// user's current location.
func (s *Service) PotentialIssues() ([]store.DeviceStatus, error) {
	location, err := s.state.Location()
	if err != nil {
		return nil, err
	}

	on, err := s.state.DevicesOn()
	if err != nil {
		return nil, err
	}

	var issues []store.DeviceStatus
	for _, d := range on {
		if d.Room != location {
			issues = append(issues, d)
		}
	}
	return issues, nil
}

// RunHouseCheck inspects the house and, when warranted, delivers one
// notification covering every unsuppressed device left ON elsewhere.
// Callers trigger it on location changes, not on a timer.
func (s *Service) RunHouseCheck(ctx context.Context) (*Notification, error) {
	issues, err := s.PotentialIssues()
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, nil
	}

	var toNotify []store.DeviceStatus
	for _, d := range issues {
		suppressed, err := s.state.DoNotNotify(d.Room, d.Device)
		if err != nil {
			return nil, err
		}
		if !suppressed {
			toNotify = append(toNotify, d)
		}
	}
	if len(toNotify) == 0 {
		s.logger.Debug("house check: all devices suppressed")
		return nil, nil
	}

	message := buildMessage(toNotify)
	res := s.router.Dispatch(ctx, toolcall.Call{
		Tool:      "chat_message",
		Arguments: map[string]any{"message": message},
	})
	if res["success"] != true {
		s.logger.Warn("house check notification not delivered", "error", res["error"])
		return nil, nil
	}

	s.logger.Info("house check notification", "devices", len(toNotify))
	return &Notification{Message: message, Devices: toNotify}, nil
}

func buildMessage(devices []store.DeviceStatus) string {
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Room + " " + d.Device
	}

	if len(names) == 1 {
		return fmt.Sprintf("I noticed the %s is still ON. Would you like me to turn it off?", names[0])
	}
	list := strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	return fmt.Sprintf("I noticed these devices are still ON: %s. Would you like me to turn them off?", list)
}

var leaveItOnPhrases = []string{
	"leave it on",
	"leave it",
	"that's fine",
	"thats fine",
	"it's fine",
	"its fine",
	"that's okay",
	"thats okay",
	"it's okay",
	"its okay",
	"don't worry",
	"dont worry",
	"no problem",
	"it's intentional",
	"its intentional",
	"keep it on",
	"keep on",
}

// ReconcilePreference inspects a user reply to the most recent
// notification. A "leave it on" reply persists a do-not-notify
// preference for every device that notification covered and returns a
// confirmation message; anything else returns "".
func (s *Service) ReconcilePreference(userText string, last *Notification) (string, error) {
	if last == nil || len(last.Devices) == 0 {
		return "", nil
	}

	msg := strings.ToLower(strings.TrimSpace(userText))
	matched := false
	for _, phrase := range leaveItOnPhrases {
		if strings.Contains(msg, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return "", nil
	}

	for _, d := range last.Devices {
		if err := s.state.SetDoNotNotify(d.Room, d.Device, true); err != nil {
			return "", err
		}
		s.logger.Info("notification preference set", "room", d.Room, "device", d.Device)
	}

	if len(last.Devices) == 1 {
		d := last.Devices[0]
		return fmt.Sprintf("Got it! I won't notify you about %s %s anymore.", d.Room, d.Device), nil
	}
	names := make([]string, len(last.Devices))
	for i, d := range last.Devices {
		names[i] = d.Room + " " + d.Device
	}
	return fmt.Sprintf("Got it! I won't notify you about these devices anymore: %s.",
		strings.Join(names, ", ")), nil
}
