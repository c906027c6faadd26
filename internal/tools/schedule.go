package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hearthd/hearth/internal/schedule"
)

func (r *Router) handleScheduleModifier(ctx context.Context, args map[string]any) (Result, error) {
	op := stringArg(args, "operation")
	if op == "" {
		op = stringArg(args, "modify_type")
	}
	if op == "" {
		return nil, &ValidationError{
			Message: "operation is required. Must be 'add', 'delete', or 'change'",
		}
	}

	itemTime := schedule.NormalizeTime(stringArg(args, "time"))
	oldTime := schedule.NormalizeTime(stringArg(args, "old_time"))
	activity := stringArg(args, "activity")
	oldActivity := stringArg(args, "old_activity")
	userMessage := stringArg(args, "user_message")

	switch op {
	case "add":
		return r.scheduleAdd(itemTime, activity, userMessage, args)
	case "delete":
		return r.scheduleDelete(itemTime, oldActivity)
	case "change":
		return r.scheduleChange(oldTime, oldActivity, itemTime, activity)
	default:
		return nil, &ValidationError{
			Message: fmt.Sprintf("Invalid operation: '%s'. Must be 'add', 'delete', or 'change'", op),
		}
	}
}

func (r *Router) scheduleAdd(itemTime, activity, userMessage string, args map[string]any) (Result, error) {
	if itemTime == "" {
		return nil, &ValidationError{Message: "time required for add operation"}
	}
	if activity == "" {
		return nil, &ValidationError{Message: "activity required for add operation"}
	}

	reg := r.state.Registry()
	item := schedule.Item{Time: itemTime, Activity: activity}

	if err := r.fillAddFields(&item, userMessage); err != nil {
		return nil, err
	}

	// Explicit action/location from the caller override derivation.
	if a, ok := args["action"].(map[string]any); ok {
		action, err := actionFromMap(a)
		if err != nil {
			return nil, &ValidationError{Message: "Invalid action: " + err.Error()}
		}
		item.Action = action
	}
	if loc := stringArg(args, "location"); loc != "" {
		item.Location = loc
	}

	if err := schedule.ValidateItem(item, reg); err != nil {
		return nil, &ValidationError{Message: "Invalid schedule item: " + err.Error()}
	}

	today := r.state.Today()
	targetDate := schedule.ExtractDate(userMessage, r.state.Now())
	if targetDate == "" {
		targetDate = today
	}
	if targetDate < today {
		return nil, &PastDateError{Date: targetDate}
	}

	recurrence := schedule.Classify(activity, userMessage)

	var message string
	if recurrence == schedule.OneTime {
		ev := schedule.Event{Date: targetDate, Item: item}
		if err := r.state.AddEvent(ev); err != nil {
			return nil, err
		}
		if targetDate == today {
			if err := r.spliceToday(today, item); err != nil {
				return nil, err
			}
		}
		message = fmt.Sprintf("Added one-time event '%s' at %s", activity, itemTime)
		if targetDate != today {
			message += " for " + targetDate
		}
	} else {
		if err := r.state.UpsertBaseItem(item); err != nil {
			return nil, err
		}
		if targetDate == today {
			if err := r.spliceToday(today, item); err != nil {
				return nil, err
			}
		}
		message = fmt.Sprintf("Added recurring activity '%s' at %s", activity, itemTime)
		if targetDate != today {
			message += fmt.Sprintf(" (will appear in schedule starting from %s)", targetDate)
		}
	}

	return Result{
		"operation": "add",
		"time":      itemTime,
		"activity":  activity,
		"date":      targetDate,
		"recurring": recurrence == schedule.Recurring,
		"message":   message,
	}, nil
}

// fillAddFields populates action/location: preserved from a matching
// base schedule item when one exists, derived from the activity
// otherwise. A location named in the user message overrides both and
// retargets any action devices to that room.
func (r *Router) fillAddFields(item *schedule.Item, userMessage string) error {
	base, err := r.state.BaseSchedule()
	if err != nil {
		return err
	}

	if existing := schedule.FindByTime(base, item.Time, item.Activity); existing != nil {
		if existing.Action != nil {
			item.Action = existing.Action.Clone()
		}
		item.Location = existing.Location
		return nil
	}

	derived := r.state.Derive(item.Activity)
	if derived.Action != nil {
		item.Action = derived.Action
	}
	if derived.Location != "" {
		item.Location = derived.Location
	}

	if loc := schedule.ExtractLocation(userMessage, r.state.Registry()); loc != "" {
		item.Location = loc
		if item.Action != nil {
			for i := range item.Action.Devices {
				item.Action.Devices[i].Room = loc
			}
		}
	}
	return nil
}

func (r *Router) spliceToday(today string, item schedule.Item) error {
	items, err := r.state.TodaySchedule(today)
	if err != nil {
		return err
	}
	items = append(items, item)
	return r.state.SetTodaySchedule(today, items)
}

func (r *Router) scheduleDelete(itemTime, activity string) (Result, error) {
	if itemTime == "" {
		return nil, &ValidationError{Message: "time required for delete operation"}
	}

	today := r.state.Today()
	items, err := r.state.TodaySchedule(today)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, it := range items {
		if schedule.NormalizeTime(it.Time) != itemTime {
			continue
		}
		if activity != "" && !strings.EqualFold(it.Activity, activity) {
			continue
		}
		idx = i
		break
	}
	if idx < 0 {
		return nil, &NotFoundError{
			Message: fmt.Sprintf("Schedule item at %s not found in today's schedule", itemTime),
		}
	}

	removed := items[idx].Activity
	items = append(items[:idx], items[idx+1:]...)
	if err := r.state.SetTodaySchedule(today, items); err != nil {
		return nil, err
	}

	return Result{
		"operation": "delete",
		"time":      itemTime,
		"activity":  removed,
		"message":   fmt.Sprintf("Deleted schedule item at %s", itemTime),
	}, nil
}

func (r *Router) scheduleChange(oldTime, oldActivity, newTime, newActivity string) (Result, error) {
	if oldTime == "" {
		return nil, &ValidationError{Message: "old_time required for change operation"}
	}
	if newTime == "" && newActivity == "" {
		return nil, &ValidationError{
			Message: "At least one of time or activity must be provided for change operation",
		}
	}

	today := r.state.Today()
	items, err := r.state.TodaySchedule(today)
	if err != nil {
		return nil, err
	}

	// Two items can share a time slot (a one-time event beside a moved
	// routine). Changing one of them blindly would be order-dependent.
	if oldActivity == "" && schedule.CountAtTime(items, oldTime) > 1 {
		return nil, &ConflictError{
			Message: fmt.Sprintf("Multiple items at %s; old_activity required to disambiguate", oldTime),
		}
	}

	idx := -1
	firstAtTime := ""
	for i, it := range items {
		if schedule.NormalizeTime(it.Time) != oldTime {
			continue
		}
		if firstAtTime == "" {
			firstAtTime = it.Activity
		}
		if oldActivity == "" || it.Activity == oldActivity {
			idx = i
			break
		}
	}
	if idx < 0 {
		if firstAtTime != "" {
			return nil, &ConflictError{
				Message: fmt.Sprintf("Activity mismatch: expected '%s' but found '%s' at %s",
					oldActivity, firstAtTime, oldTime),
			}
		}
		return nil, &NotFoundError{
			Message: fmt.Sprintf("Schedule item at %s not found in today's schedule", oldTime),
		}
	}

	old := items[idx]
	item := schedule.Item{Time: old.Time, Activity: old.Activity}
	if newTime != "" {
		item.Time = newTime
	}
	if newActivity != "" {
		item.Activity = newActivity
	}

	// Recompute action/location for the (possibly new) activity.
	if err := r.fillAddFields(&item, ""); err != nil {
		return nil, err
	}
	if err := schedule.ValidateItem(item, r.state.Registry()); err != nil {
		return nil, &ValidationError{Message: "Invalid schedule item: " + err.Error()}
	}

	items = append(items[:idx], items[idx+1:]...)
	items = append(items, item)
	if err := r.state.SetTodaySchedule(today, items); err != nil {
		return nil, err
	}

	var parts []string
	if newTime != "" && newTime != oldTime {
		parts = append(parts, fmt.Sprintf("time from %s to %s", oldTime, newTime))
	}
	if newActivity != "" && newActivity != old.Activity {
		parts = append(parts, fmt.Sprintf("activity to '%s'", newActivity))
	}
	changeMsg := "schedule item"
	if len(parts) > 0 {
		changeMsg = strings.Join(parts, " and ")
	}

	return Result{
		"operation": "change",
		"old_time":  oldTime,
		"time":      item.Time,
		"activity":  item.Activity,
		"message":   "Changed " + changeMsg,
	}, nil
}

func actionFromMap(m map[string]any) (*schedule.Action, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var a schedule.Action
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
