// Package state coordinates device, schedule, and user state on top of
// the persistence layer. It owns daily schedule materialization: the
// recurring base schedule is cloned once per day, one-time events are
// spliced in, and the clone becomes the single mutable schedule for
// that day.
package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/store"
)

// Manager is the single entry point for assistant state. All methods
// are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	reg     schedule.Registry
	deriver *schedule.Deriver
	logger  *slog.Logger

	now func() time.Time
}

// NewManager wires a manager over the store. It seeds device rows for
// the registry, loads learned activity derivations, and installs the
// default recurring schedule when none exists yet.
func NewManager(st *store.Store, reg schedule.Registry, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:   st,
		reg:     reg,
		deriver: schedule.NewDeriver(reg),
		logger:  logger,
		now:     time.Now,
	}

	if err := st.SeedDevices(reg); err != nil {
		return nil, fmt.Errorf("seed devices: %w", err)
	}

	learned, err := st.Derivations()
	if err != nil {
		return nil, fmt.Errorf("load derivations: %w", err)
	}
	for activity, d := range learned {
		if err := m.deriver.AddMapping(activity, d.Action, d.Location); err != nil {
			logger.Warn("skipping stored derivation", "activity", activity, "error", err)
		}
	}

	base, err := st.BaseSchedule()
	if err != nil {
		return nil, fmt.Errorf("load base schedule: %w", err)
	}
	if len(base) == 0 {
		if err := st.ReplaceBaseSchedule(DefaultBaseSchedule()); err != nil {
			return nil, fmt.Errorf("seed base schedule: %w", err)
		}
		logger.Info("seeded default base schedule")
	}

	return m, nil
}

// Registry returns the room and device registry.
func (m *Manager) Registry() schedule.Registry {
	return m.reg
}

// Today returns the current date in schedule form.
func (m *Manager) Today() string {
	return m.now().Format(schedule.DateLayout)
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// DeviceState returns the current state of a device. Pairs outside the
// registry read as OFF rather than erroring; only writes are strict.
func (m *Manager) DeviceState(room, device string) (schedule.DeviceState, error) {
	if !m.reg.HasDevice(room, device) {
		return schedule.StateOff, nil
	}
	return m.store.GetDeviceState(room, device)
}

// SetDevice validates the target against the registry and updates its
// state, returning the previous state.
func (m *Manager) SetDevice(room, device string, state schedule.DeviceState) (schedule.DeviceState, error) {
	if !m.reg.HasDevice(room, device) {
		return "", fmt.Errorf("device %s/%s not in registry", room, device)
	}
	if !state.Valid() {
		return "", fmt.Errorf("invalid state %q", state)
	}
	return m.store.SetDeviceState(room, device, state)
}

// DevicesOn lists devices currently ON.
func (m *Manager) DevicesOn() ([]store.DeviceStatus, error) {
	return m.store.DevicesOn()
}

// Location returns the user's current location.
func (m *Manager) Location() (string, error) {
	return m.store.GetLocation()
}

// SetLocation updates the user's location. The room must exist in the
// registry.
func (m *Manager) SetLocation(room string) error {
	if !m.reg.HasRoom(room) {
		return fmt.Errorf("room %q not in registry", room)
	}
	return m.store.SetLocation(room)
}

// UserInfo returns the stored profile.
func (m *Manager) UserInfo() (store.UserInfo, error) {
	return m.store.GetUserInfo()
}

// SetUserInfo replaces the stored profile.
func (m *Manager) SetUserInfo(info store.UserInfo) error {
	return m.store.SetUserInfo(info)
}

// Derive resolves the action and location for an activity.
func (m *Manager) Derive(activity string) schedule.Derived {
	return m.deriver.Derive(activity)
}

// LearnDerivation records a new activity-to-action mapping, both in
// memory and persistently.
func (m *Manager) LearnDerivation(activity string, action *schedule.Action, location string) error {
	if err := m.deriver.AddMapping(activity, action, location); err != nil {
		return err
	}
	return m.store.SaveDerivation(activity, action, location)
}

// BaseSchedule returns the recurring schedule.
func (m *Manager) BaseSchedule() ([]schedule.Item, error) {
	return m.store.BaseSchedule()
}

// UpsertBaseItem adds or replaces a recurring schedule item.
func (m *Manager) UpsertBaseItem(it schedule.Item) error {
	if err := schedule.ValidateItem(it, m.reg); err != nil {
		return err
	}
	return m.store.UpsertBaseItem(it)
}

// AddEvent persists a one-time event.
func (m *Manager) AddEvent(ev schedule.Event) error {
	if err := schedule.ValidateItem(ev.Item, m.reg); err != nil {
		return err
	}
	if _, err := time.Parse(schedule.DateLayout, ev.Date); err != nil {
		return fmt.Errorf("invalid date %q", ev.Date)
	}
	return m.store.AddEvent(ev)
}

// TodaySchedule returns the materialized schedule for date, building it
// from the base schedule and that day's one-time events on first
// access. Items missing an action or location are backfilled from the
// derivation table on every read; the persisted clone keeps only what
// was explicitly written, so later derivation updates reach old items.
func (m *Manager) TodaySchedule(date string) ([]schedule.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.todayScheduleLocked(date)
}

func (m *Manager) todayScheduleLocked(date string) ([]schedule.Item, error) {
	items, ok, err := m.store.GetClone(date)
	if err != nil {
		return nil, err
	}
	if !ok {
		items, err = m.materializeLocked(date)
		if err != nil {
			return nil, err
		}
	}

	return m.deriver.DeriveMissing(items), nil
}

func (m *Manager) materializeLocked(date string) ([]schedule.Item, error) {
	base, err := m.store.BaseSchedule()
	if err != nil {
		return nil, err
	}
	events, err := m.store.EventsOn(date)
	if err != nil {
		return nil, err
	}

	items := schedule.MergeClone(base, events)
	if err := m.store.SaveClone(date, items); err != nil {
		return nil, err
	}
	m.logger.Info("materialized daily schedule",
		"date", date, "base_items", len(base), "events", len(events))
	return items, nil
}

// SetTodaySchedule replaces the materialized schedule for date.
func (m *Manager) SetTodaySchedule(date string, items []schedule.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule.SortByTime(items)
	return m.store.SaveClone(date, items)
}

// CheckDue returns the schedule items firing at now, after the daily
// schedule has been materialized.
func (m *Manager) CheckDue(now time.Time) ([]schedule.Firing, error) {
	items, err := m.TodaySchedule(now.Format(schedule.DateLayout))
	if err != nil {
		return nil, err
	}
	return schedule.MatchDue(items, now.Format("15:04")), nil
}

// ResetDaily drops one-time events and materialized schedules older
// than today. Called on day rollover.
func (m *Manager) ResetDaily() error {
	today := m.Today()

	events, err := m.store.DeleteEventsBefore(today)
	if err != nil {
		return err
	}
	clones, err := m.store.DeleteClonesBefore(today)
	if err != nil {
		return err
	}
	if events > 0 || clones > 0 {
		m.logger.Info("daily cleanup", "events_removed", events, "clones_removed", clones)
	}
	return nil
}

// Reset restores a clean demo state: every device OFF, all one-time
// events dropped, the clone for date rebuilt from the base schedule
// alone, and reminder suppressions cleared.
func (m *Manager) Reset(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ResetDevices(); err != nil {
		return err
	}
	if _, err := m.store.DeleteAllEvents(); err != nil {
		return err
	}
	if err := m.store.DeleteClone(date); err != nil {
		return err
	}
	if err := m.store.ClearDoNotRemind(); err != nil {
		return err
	}
	if _, err := m.materializeLocked(date); err != nil {
		return err
	}
	m.logger.Info("state reset", "date", date)
	return nil
}

// DeleteOneTime removes one-time events on date, all of them when time
// is empty.
func (m *Manager) DeleteOneTime(date, time string) (int, error) {
	return m.store.DeleteEvents(date, time)
}

// DoNotNotify reports whether house-check notifications for a device
// are suppressed.
func (m *Manager) DoNotNotify(room, device string) (bool, error) {
	return m.store.DoNotNotify(room, device)
}

// SetDoNotNotify records a notification preference for a device.
func (m *Manager) SetDoNotNotify(room, device string, suppress bool) error {
	return m.store.SetDoNotNotify(room, device, suppress)
}

// AddDoNotRemind suppresses reminders matching item.
func (m *Manager) AddDoNotRemind(item string) error {
	return m.store.AddDoNotRemind(item)
}

// DoNotRemindList returns all reminder suppressions.
func (m *Manager) DoNotRemindList() ([]string, error) {
	return m.store.DoNotRemindList()
}
