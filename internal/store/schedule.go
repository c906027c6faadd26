package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hearthd/hearth/internal/schedule"
)

func marshalAction(a *schedule.Action) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal action: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalAction(s sql.NullString) (*schedule.Action, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var a schedule.Action
	if err := json.Unmarshal([]byte(s.String), &a); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	return &a, nil
}

// BaseSchedule returns the recurring schedule sorted by time.
func (s *Store) BaseSchedule() ([]schedule.Item, error) {
	rows, err := s.db.Query(`
		SELECT time, activity, action_json, location FROM schedule_items
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []schedule.Item
	for rows.Next() {
		var it schedule.Item
		var action sql.NullString
		if err := rows.Scan(&it.Time, &it.Activity, &action, &it.Location); err != nil {
			return nil, err
		}
		if it.Action, err = unmarshalAction(action); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schedule.SortByTime(items)
	return items, nil
}

// UpsertBaseItem inserts a recurring item or replaces the one at the
// same time and activity.
func (s *Store) UpsertBaseItem(it schedule.Item) error {
	action, err := marshalAction(it.Action)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO schedule_items (id, time, activity, action_json, location)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(time, activity) DO UPDATE SET
			action_json = excluded.action_json,
			location = excluded.location
	`, NewID(), it.Time, it.Activity, action, it.Location)
	return err
}

// DeleteBaseItem removes the recurring item at time. When activity is
// non-empty it must also match. Reports whether a row was removed.
func (s *Store) DeleteBaseItem(time, activity string) (bool, error) {
	var res sql.Result
	var err error
	if activity != "" {
		res, err = s.db.Exec(`
			DELETE FROM schedule_items WHERE time = ? AND activity = ?
		`, time, activity)
	} else {
		res, err = s.db.Exec(`DELETE FROM schedule_items WHERE time = ?`, time)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ReplaceBaseSchedule swaps the entire recurring schedule.
func (s *Store) ReplaceBaseSchedule(items []schedule.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM schedule_items`); err != nil {
		return err
	}
	for _, it := range items {
		action, err := marshalAction(it.Action)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO schedule_items (id, time, activity, action_json, location)
			VALUES (?, ?, ?, ?, ?)
		`, NewID(), it.Time, it.Activity, action, it.Location); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddEvent persists a one-time event.
func (s *Store) AddEvent(ev schedule.Event) error {
	action, err := marshalAction(ev.Action)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO one_time_events (id, date, time, activity, action_json, location)
		VALUES (?, ?, ?, ?, ?, ?)
	`, NewID(), ev.Date, ev.Time, ev.Activity, action, ev.Location)
	return err
}

// EventsOn returns the one-time events for a date, sorted by time.
func (s *Store) EventsOn(date string) ([]schedule.Event, error) {
	rows, err := s.db.Query(`
		SELECT date, time, activity, action_json, location
		FROM one_time_events WHERE date = ? ORDER BY time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []schedule.Event
	for rows.Next() {
		var ev schedule.Event
		var action sql.NullString
		if err := rows.Scan(&ev.Date, &ev.Time, &ev.Activity, &action, &ev.Location); err != nil {
			return nil, err
		}
		if ev.Action, err = unmarshalAction(action); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// DeleteEvents removes one-time events on date. An empty time removes
// every event that day; otherwise only the one at that time. Reports
// how many were removed.
func (s *Store) DeleteEvents(date, time string) (int, error) {
	var res sql.Result
	var err error
	if time == "" {
		res, err = s.db.Exec(`DELETE FROM one_time_events WHERE date = ?`, date)
	} else {
		res, err = s.db.Exec(`DELETE FROM one_time_events WHERE date = ? AND time = ?`, date, time)
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteAllEvents drops every one-time event.
func (s *Store) DeleteAllEvents() (int, error) {
	res, err := s.db.Exec(`DELETE FROM one_time_events`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteClone removes the materialized schedule for a date.
func (s *Store) DeleteClone(date string) error {
	_, err := s.db.Exec(`DELETE FROM daily_clones WHERE date = ?`, date)
	return err
}

// DeleteEventsBefore drops one-time events older than date and reports
// how many were removed.
func (s *Store) DeleteEventsBefore(date string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM one_time_events WHERE date < ?`, date)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// GetClone returns the materialized schedule for a date. The bool
// reports whether one exists.
func (s *Store) GetClone(date string) ([]schedule.Item, bool, error) {
	var blob string
	err := s.db.QueryRow(`
		SELECT schedule_json FROM daily_clones WHERE date = ?
	`, date).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []schedule.Item
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal clone: %w", err)
	}
	return items, true, nil
}

// SaveClone stores the materialized schedule for a date, replacing any
// existing one.
func (s *Store) SaveClone(date string, items []schedule.Item) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal clone: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO daily_clones (date, schedule_json) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET schedule_json = excluded.schedule_json
	`, date, string(blob))
	return err
}

// DeleteClonesBefore drops materialized schedules older than date.
func (s *Store) DeleteClonesBefore(date string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM daily_clones WHERE date < ?`, date)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SaveDerivation persists a learned activity-to-action mapping.
func (s *Store) SaveDerivation(activity string, action *schedule.Action, location string) error {
	a, err := marshalAction(action)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO activity_derivations (activity, action_json, location)
		VALUES (?, ?, ?)
		ON CONFLICT(activity) DO UPDATE SET
			action_json = excluded.action_json,
			location = excluded.location
	`, activity, a, location)
	return err
}

// Derivations returns all persisted activity mappings.
func (s *Store) Derivations() (map[string]schedule.Derived, error) {
	rows, err := s.db.Query(`SELECT activity, action_json, location FROM activity_derivations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]schedule.Derived)
	for rows.Next() {
		var activity, location string
		var action sql.NullString
		if err := rows.Scan(&activity, &action, &location); err != nil {
			return nil, err
		}
		a, err := unmarshalAction(action)
		if err != nil {
			return nil, err
		}
		out[activity] = schedule.Derived{Action: a, Location: location}
	}

	return out, rows.Err()
}
