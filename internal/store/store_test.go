package store

import (
	"path/filepath"
	"testing"

	"github.com/hearthd/hearth/internal/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testRegistry() schedule.Registry {
	return schedule.Registry{
		"Bedroom":     {"Light", "Alarm", "AC"},
		"Living Room": {"Light", "TV"},
	}
}

func TestDeviceStates(t *testing.T) {
	s := newTestStore(t)

	if err := s.SeedDevices(testRegistry()); err != nil {
		t.Fatalf("SeedDevices: %v", err)
	}

	state, err := s.GetDeviceState("Bedroom", "Light")
	if err != nil {
		t.Fatalf("GetDeviceState: %v", err)
	}
	if state != schedule.StateOff {
		t.Errorf("seeded state = %q, want OFF", state)
	}

	prev, err := s.SetDeviceState("Bedroom", "Light", schedule.StateOn)
	if err != nil {
		t.Fatalf("SetDeviceState: %v", err)
	}
	if prev != schedule.StateOff {
		t.Errorf("previous state = %q, want OFF", prev)
	}

	// Seeding again must not reset states.
	if err := s.SeedDevices(testRegistry()); err != nil {
		t.Fatalf("SeedDevices again: %v", err)
	}
	state, _ = s.GetDeviceState("Bedroom", "Light")
	if state != schedule.StateOn {
		t.Errorf("state after reseed = %q, want ON", state)
	}

	on, err := s.DevicesOn()
	if err != nil {
		t.Fatalf("DevicesOn: %v", err)
	}
	if len(on) != 1 || on[0].Room != "Bedroom" || on[0].Device != "Light" {
		t.Errorf("DevicesOn = %+v", on)
	}

	if _, err := s.GetDeviceState("Garage", "Light"); err == nil {
		t.Error("expected error for unknown device")
	}

	if err := s.ResetDevices(); err != nil {
		t.Fatalf("ResetDevices: %v", err)
	}
	on, _ = s.DevicesOn()
	if len(on) != 0 {
		t.Errorf("DevicesOn after reset = %+v", on)
	}
}

func TestUserInfo(t *testing.T) {
	s := newTestStore(t)

	info, err := s.GetUserInfo()
	if err != nil {
		t.Fatalf("GetUserInfo on empty store: %v", err)
	}
	if info != (UserInfo{}) {
		t.Errorf("empty store returned %+v", info)
	}

	want := UserInfo{Name: "Somchai", Condition: "wheelchair user", CurrentLocation: "Bedroom"}
	if err := s.SetUserInfo(want); err != nil {
		t.Fatalf("SetUserInfo: %v", err)
	}

	got, err := s.GetUserInfo()
	if err != nil {
		t.Fatalf("GetUserInfo: %v", err)
	}
	if got != want {
		t.Errorf("GetUserInfo = %+v, want %+v", got, want)
	}

	if err := s.SetLocation("Kitchen"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	loc, err := s.GetLocation()
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if loc != "Kitchen" {
		t.Errorf("GetLocation = %q, want Kitchen", loc)
	}

	// Location update must not clobber the rest of the profile.
	got, _ = s.GetUserInfo()
	if got.Name != "Somchai" {
		t.Errorf("SetLocation clobbered name: %+v", got)
	}
}

func TestNotificationPreferences(t *testing.T) {
	s := newTestStore(t)

	suppressed, err := s.DoNotNotify("Living Room", "TV")
	if err != nil {
		t.Fatalf("DoNotNotify: %v", err)
	}
	if suppressed {
		t.Error("unset preference should default to false")
	}

	if err := s.SetDoNotNotify("Living Room", "TV", true); err != nil {
		t.Fatalf("SetDoNotNotify: %v", err)
	}
	suppressed, _ = s.DoNotNotify("Living Room", "TV")
	if !suppressed {
		t.Error("preference not persisted")
	}

	keys, err := s.SuppressedDevices()
	if err != nil {
		t.Fatalf("SuppressedDevices: %v", err)
	}
	if len(keys) != 1 || keys[0] != "Living Room TV" {
		t.Errorf("SuppressedDevices = %v", keys)
	}

	if err := s.SetDoNotNotify("Living Room", "TV", false); err != nil {
		t.Fatalf("SetDoNotNotify off: %v", err)
	}
	suppressed, _ = s.DoNotNotify("Living Room", "TV")
	if suppressed {
		t.Error("preference not cleared")
	}
}

func TestDoNotRemind(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddDoNotRemind("morning exercise"); err != nil {
		t.Fatalf("AddDoNotRemind: %v", err)
	}
	// Duplicate adds are fine.
	if err := s.AddDoNotRemind("morning exercise"); err != nil {
		t.Fatalf("AddDoNotRemind duplicate: %v", err)
	}

	items, err := s.DoNotRemindList()
	if err != nil {
		t.Fatalf("DoNotRemindList: %v", err)
	}
	if len(items) != 1 || items[0] != "morning exercise" {
		t.Errorf("DoNotRemindList = %v", items)
	}

	if err := s.ClearDoNotRemind(); err != nil {
		t.Fatalf("ClearDoNotRemind: %v", err)
	}
	items, _ = s.DoNotRemindList()
	if len(items) != 0 {
		t.Errorf("DoNotRemindList after clear = %v", items)
	}
}

func TestBaseSchedule(t *testing.T) {
	s := newTestStore(t)

	items := []schedule.Item{
		{Time: "12:00", Activity: "Lunch", Location: "Kitchen"},
		{Time: "07:00", Activity: "Wake up", Action: &schedule.Action{Devices: []schedule.DeviceCommand{
			{Room: "Bedroom", Device: "Alarm", State: schedule.StateOn},
		}}},
	}
	if err := s.ReplaceBaseSchedule(items); err != nil {
		t.Fatalf("ReplaceBaseSchedule: %v", err)
	}

	got, err := s.BaseSchedule()
	if err != nil {
		t.Fatalf("BaseSchedule: %v", err)
	}
	if len(got) != 2 || got[0].Time != "07:00" || got[1].Time != "12:00" {
		t.Fatalf("BaseSchedule = %+v", got)
	}
	if got[0].Action == nil || got[0].Action.Devices[0].Device != "Alarm" {
		t.Errorf("action round trip failed: %+v", got[0].Action)
	}
	if got[1].Action != nil {
		t.Errorf("nil action round trip failed: %+v", got[1].Action)
	}

	// Upsert replaces the slot.
	if err := s.UpsertBaseItem(schedule.Item{Time: "12:00", Activity: "Lunch", Location: "Living Room"}); err != nil {
		t.Fatalf("UpsertBaseItem: %v", err)
	}
	got, _ = s.BaseSchedule()
	if len(got) != 2 || got[1].Location != "Living Room" {
		t.Errorf("upsert result = %+v", got)
	}

	removed, err := s.DeleteBaseItem("12:00", "")
	if err != nil {
		t.Fatalf("DeleteBaseItem: %v", err)
	}
	if !removed {
		t.Error("DeleteBaseItem reported nothing removed")
	}
	removed, _ = s.DeleteBaseItem("12:00", "")
	if removed {
		t.Error("second delete should remove nothing")
	}
}

func TestOneTimeEvents(t *testing.T) {
	s := newTestStore(t)

	events := []schedule.Event{
		{Date: "2025-03-16", Item: schedule.Item{Time: "14:00", Activity: "Dentist"}},
		{Date: "2025-03-16", Item: schedule.Item{Time: "09:00", Activity: "Pharmacy"}},
		{Date: "2025-03-10", Item: schedule.Item{Time: "10:00", Activity: "Old thing"}},
	}
	for _, ev := range events {
		if err := s.AddEvent(ev); err != nil {
			t.Fatalf("AddEvent: %v", err)
		}
	}

	got, err := s.EventsOn("2025-03-16")
	if err != nil {
		t.Fatalf("EventsOn: %v", err)
	}
	if len(got) != 2 || got[0].Activity != "Pharmacy" || got[1].Activity != "Dentist" {
		t.Errorf("EventsOn = %+v", got)
	}

	n, err := s.DeleteEventsBefore("2025-03-16")
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteEventsBefore removed %d, want 1", n)
	}
}

func TestDailyClones(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.GetClone("2025-03-16"); err != nil || ok {
		t.Fatalf("GetClone on empty store: ok=%v err=%v", ok, err)
	}

	items := []schedule.Item{
		{Time: "07:00", Activity: "Wake up"},
		{Time: "10:00", Activity: "Dentist"},
	}
	if err := s.SaveClone("2025-03-16", items); err != nil {
		t.Fatalf("SaveClone: %v", err)
	}

	got, ok, err := s.GetClone("2025-03-16")
	if err != nil || !ok {
		t.Fatalf("GetClone: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].Activity != "Dentist" {
		t.Errorf("GetClone = %+v", got)
	}

	// Save again replaces.
	if err := s.SaveClone("2025-03-16", items[:1]); err != nil {
		t.Fatalf("SaveClone replace: %v", err)
	}
	got, _, _ = s.GetClone("2025-03-16")
	if len(got) != 1 {
		t.Errorf("replaced clone = %+v", got)
	}

	if _, err := s.DeleteClonesBefore("2025-03-17"); err != nil {
		t.Fatalf("DeleteClonesBefore: %v", err)
	}
	if _, ok, _ := s.GetClone("2025-03-16"); ok {
		t.Error("clone survived DeleteClonesBefore")
	}
}

func TestDerivations(t *testing.T) {
	s := newTestStore(t)

	action := &schedule.Action{Devices: []schedule.DeviceCommand{
		{Room: "Living Room", Device: "TV", State: schedule.StateOn},
	}}
	if err := s.SaveDerivation("movie night", action, "Living Room"); err != nil {
		t.Fatalf("SaveDerivation: %v", err)
	}

	got, err := s.Derivations()
	if err != nil {
		t.Fatalf("Derivations: %v", err)
	}
	d, ok := got["movie night"]
	if !ok {
		t.Fatalf("Derivations = %+v, missing movie night", got)
	}
	if d.Location != "Living Room" || d.Action == nil || d.Action.Devices[0].Device != "TV" {
		t.Errorf("derivation = %+v", d)
	}
}

func TestChatHistoryAndSummary(t *testing.T) {
	s := newTestStore(t)

	turns := []struct{ role, content string }{
		{"user", "turn on the light"},
		{"assistant", "Set Bedroom Light to ON"},
		{"user", "thanks"},
	}
	for _, turn := range turns {
		if err := s.AppendMessage(turn.role, turn.content); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	n, err := s.CountMessages()
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if n != 3 {
		t.Errorf("CountMessages = %d, want 3", n)
	}

	msgs, err := s.RecentMessages(2)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "Set Bedroom Light to ON" || msgs[1].Content != "thanks" {
		t.Errorf("RecentMessages = %+v", msgs)
	}

	sum, err := s.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary on empty store: %v", err)
	}
	if sum.Text != "" || sum.LastSummarizedTurn != 0 {
		t.Errorf("empty summary = %+v", sum)
	}

	want := Summary{
		Text:               "User controlled the bedroom light.",
		KeyEvents:          []KeyEvent{{Type: "device_control", Description: "Bedroom Light ON", Turn: 2}},
		LastSummarizedTurn: 3,
	}
	if err := s.SaveSummary(want); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	got, err := s.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if got.Text != want.Text || got.LastSummarizedTurn != 3 || len(got.KeyEvents) != 1 {
		t.Errorf("GetSummary = %+v", got)
	}

	if err := s.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if n, _ := s.CountMessages(); n != 0 {
		t.Errorf("CountMessages after clear = %d", n)
	}
}
