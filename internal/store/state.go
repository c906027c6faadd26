package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/hearthd/hearth/internal/schedule"
)

// UserInfo holds the profile of the person the assistant serves.
type UserInfo struct {
	Name            string
	Condition       string
	CurrentLocation string
}

// DeviceStatus is a device row with its current state.
type DeviceStatus struct {
	Room   string
	Device string
	State  schedule.DeviceState
}

// SeedDevices ensures every device in the registry has a row, defaulting
// to OFF. Existing rows keep their state.
func (s *Store) SeedDevices(reg schedule.Registry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for room, devices := range reg {
		for _, device := range devices {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO devices (room, device, state) VALUES (?, ?, 'OFF')
			`, room, device); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetDeviceState returns the current state of a device.
func (s *Store) GetDeviceState(room, device string) (schedule.DeviceState, error) {
	var state string
	err := s.db.QueryRow(`
		SELECT state FROM devices WHERE room = ? AND device = ?
	`, room, device).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("device %s/%s not found", room, device)
	}
	if err != nil {
		return "", err
	}
	return schedule.DeviceState(state), nil
}

// SetDeviceState updates a device's state and reports the previous one.
func (s *Store) SetDeviceState(room, device string, state schedule.DeviceState) (schedule.DeviceState, error) {
	prev, err := s.GetDeviceState(room, device)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`
		UPDATE devices SET state = ? WHERE room = ? AND device = ?
	`, string(state), room, device)
	if err != nil {
		return "", err
	}
	return prev, nil
}

// DevicesOn returns all devices currently in the ON state, ordered by
// room then device.
func (s *Store) DevicesOn() ([]DeviceStatus, error) {
	rows, err := s.db.Query(`
		SELECT room, device, state FROM devices
		WHERE state = 'ON' ORDER BY room, device
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeviceStatus
	for rows.Next() {
		var d DeviceStatus
		var state string
		if err := rows.Scan(&d.Room, &d.Device, &state); err != nil {
			return nil, err
		}
		d.State = schedule.DeviceState(state)
		out = append(out, d)
	}

	return out, rows.Err()
}

// ResetDevices turns every device OFF.
func (s *Store) ResetDevices() error {
	_, err := s.db.Exec(`UPDATE devices SET state = 'OFF'`)
	return err
}

// GetUserInfo returns the stored user profile, creating an empty row on
// first access.
func (s *Store) GetUserInfo() (UserInfo, error) {
	var info UserInfo
	err := s.db.QueryRow(`
		SELECT name, condition, current_location FROM user_info WHERE id = 1
	`).Scan(&info.Name, &info.Condition, &info.CurrentLocation)
	if errors.Is(err, sql.ErrNoRows) {
		return UserInfo{}, nil
	}
	if err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

// SetUserInfo replaces the stored user profile.
func (s *Store) SetUserInfo(info UserInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO user_info (id, name, condition, current_location)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			condition = excluded.condition,
			current_location = excluded.current_location
	`, info.Name, info.Condition, info.CurrentLocation)
	return err
}

// SetLocation updates only the user's current location.
func (s *Store) SetLocation(location string) error {
	info, err := s.GetUserInfo()
	if err != nil {
		return err
	}
	info.CurrentLocation = location
	return s.SetUserInfo(info)
}

// GetLocation returns the user's current location.
func (s *Store) GetLocation() (string, error) {
	info, err := s.GetUserInfo()
	if err != nil {
		return "", err
	}
	return info.CurrentLocation, nil
}

// SetDoNotNotify records whether house-check notifications for a device
// should be suppressed.
func (s *Store) SetDoNotNotify(room, device string, suppress bool) error {
	v := 0
	if suppress {
		v = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO notification_preferences (room, device, do_not_notify)
		VALUES (?, ?, ?)
		ON CONFLICT(room, device) DO UPDATE SET do_not_notify = excluded.do_not_notify
	`, room, device, v)
	return err
}

// DoNotNotify reports whether notifications for a device are suppressed.
func (s *Store) DoNotNotify(room, device string) (bool, error) {
	var v int
	err := s.db.QueryRow(`
		SELECT do_not_notify FROM notification_preferences
		WHERE room = ? AND device = ?
	`, room, device).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// SuppressedDevices lists "room device" keys with notifications disabled.
func (s *Store) SuppressedDevices() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT room, device FROM notification_preferences WHERE do_not_notify = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var room, device string
		if err := rows.Scan(&room, &device); err != nil {
			return nil, err
		}
		out = append(out, room+" "+device)
	}
	sort.Strings(out)

	return out, rows.Err()
}

// AddDoNotRemind records a schedule item the user asked not to be
// reminded about.
func (s *Store) AddDoNotRemind(item string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO do_not_remind (item) VALUES (?)`, item)
	return err
}

// DoNotRemindList returns all suppressed reminder items.
func (s *Store) DoNotRemindList() ([]string, error) {
	rows, err := s.db.Query(`SELECT item FROM do_not_remind ORDER BY item`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

// ClearDoNotRemind drops all reminder suppressions.
func (s *Store) ClearDoNotRemind() error {
	_, err := s.db.Exec(`DELETE FROM do_not_remind`)
	return err
}
