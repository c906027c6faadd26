package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/store"
	"github.com/hearthd/hearth/internal/toolcall"
)

// Tick runs the once-per-minute schedule check. It fires due items,
// executes their device actions, and returns the messages emitted this
// minute. Repeat calls within the same minute are no-ops; a day rollover
// clears the fired set and purges stale events and clones.
func (a *Agent) Tick(ctx context.Context, now time.Time) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	date := now.Format(schedule.DateLayout)
	minute := now.Format("15:04")
	if date == a.lastTickDate && minute == a.lastTickMin {
		return nil, nil
	}
	if date != a.lastTickDate {
		a.fired = make(map[string]struct{})
		a.current = nil
		if a.lastTickDate != "" {
			if err := a.state.ResetDaily(); err != nil {
				a.logger.Warn("daily cleanup failed", "error", err)
			}
		}
	}
	a.lastTickDate, a.lastTickMin = date, minute

	firings, err := a.state.CheckDue(now)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range firings {
		key := f.Time + "|" + f.Activity
		if _, done := a.fired[key]; done {
			continue
		}
		a.fired[key] = struct{}{}

		out = append(out, a.fire(ctx, f, date, minute)...)
	}
	return out, nil
}

// fire delivers one schedule firing: the reminder, the device actions,
// and a location prompt when the user is elsewhere.
func (a *Agent) fire(ctx context.Context, f schedule.Firing, date, minute string) []string {
	var out []string

	msg := "It's time to: " + f.Activity
	res := a.router.Dispatch(ctx, toolcall.Call{
		Tool:      "chat_message",
		Arguments: map[string]any{"message": msg},
	})
	if res["success"] == true {
		out = append(out, msg)
		if err := a.store.AppendMessage(store.RoleNotification, msg); err != nil {
			a.logger.Warn("record reminder failed", "error", err)
		}
	} else {
		a.logger.Info("reminder suppressed", "activity", f.Activity)
	}

	if f.Action != nil {
		for _, d := range f.Action.Devices {
			res := a.router.Dispatch(ctx, toolcall.Call{
				Tool: "e_device_control",
				Arguments: map[string]any{
					"room":   d.Room,
					"device": d.Device,
					"action": string(d.State),
				},
			})
			if res["success"] != true {
				a.logger.Warn("scheduled device action failed",
					"room", d.Room, "device", d.Device, "error", res["error"])
			}
		}
	}

	if f.Location != "" {
		loc, err := a.state.Location()
		if err == nil && loc != "" && loc != f.Location {
			move := fmt.Sprintf("Please move to %s for %s.", f.Location, f.Activity)
			out = append(out, move)
			if err := a.store.AppendMessage(store.RoleNotification, move); err != nil {
				a.logger.Warn("record reminder failed", "error", err)
			}
		}
	}

	end := ""
	if items, err := a.state.TodaySchedule(date); err == nil {
		end = schedule.NextActivityTime(items, minute)
	}
	a.current = &ActivityContext{
		Activity: f.Activity,
		Time:     f.Time,
		Location: f.Location,
		EndTime:  end,
	}
	return out
}

// MoveTo updates the user's location and, when it actually changed,
// runs a house check. Returns the notification message if one was sent.
func (a *Agent) MoveTo(ctx context.Context, room string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.state.SetLocation(room); err != nil {
		return "", err
	}
	if room == a.lastLocation {
		return "", nil
	}
	a.lastLocation = room

	if a.notifier == nil {
		return "", nil
	}
	n, err := a.notifier.RunHouseCheck(ctx)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", nil
	}

	a.recent = n
	if err := a.store.AppendMessage(store.RoleNotification, n.Message); err != nil {
		return "", err
	}
	return n.Message, nil
}
