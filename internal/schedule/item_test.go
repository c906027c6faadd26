package schedule

import (
	"strings"
	"testing"
)

func testRegistry() Registry {
	return Registry{
		"Bedroom":     {"Light", "Alarm", "AC"},
		"Bathroom":    {"Light"},
		"Kitchen":     {"Light", "Alarm"},
		"Living Room": {"Light", "TV", "AC", "Fan"},
	}
}

func TestValidateTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{"8:00", "08:00", false},
		{"23:59", "23:59", false},
		{"0:05", "00:05", false},
		{" 14:30 ", "14:30", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"-1:00", "", true},
		{"noon", "", true},
		{"14", "", true},
		{"14:00:00", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14.30", "14:30"},
		{"14.00", "14:00"},
		{"2.30", "02:30"},
		{"8:00", "08:00"},
		{"14:", "14:00"},
		{"garbage", "garbage"}, // unparseable input passes through
		{"25:00", "25:00"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTime(tt.in); got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateItem(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name    string
		item    Item
		wantErr string // substring of the error, "" for valid
	}{
		{
			name: "ok minimal",
			item: Item{Time: "08:00", Activity: "Breakfast"},
		},
		{
			name: "ok with action and location",
			item: Item{
				Time:     "07:00",
				Activity: "Wake up",
				Action: &Action{Devices: []DeviceCommand{
					{Room: "Bedroom", Device: "Alarm", State: StateOn},
				}},
				Location: "Bedroom",
			},
		},
		{
			name:    "bad time",
			item:    Item{Time: "25:00", Activity: "Breakfast"},
			wantErr: "hours must be 0-23",
		},
		{
			name:    "missing activity",
			item:    Item{Time: "08:00", Activity: "  "},
			wantErr: "activity must be a non-empty string",
		},
		{
			name:    "empty action devices",
			item:    Item{Time: "08:00", Activity: "Work", Action: &Action{}},
			wantErr: "action.devices must be a non-empty list",
		},
		{
			name: "unknown room in action",
			item: Item{Time: "08:00", Activity: "Work", Action: &Action{Devices: []DeviceCommand{
				{Room: "Garage", Device: "Light", State: StateOn},
			}}},
			wantErr: "action.devices[0].room",
		},
		{
			name: "unknown device in room",
			item: Item{Time: "08:00", Activity: "Work", Action: &Action{Devices: []DeviceCommand{
				{Room: "Bathroom", Device: "TV", State: StateOn},
			}}},
			wantErr: "action.devices[0].device",
		},
		{
			name: "bad state",
			item: Item{Time: "08:00", Activity: "Work", Action: &Action{Devices: []DeviceCommand{
				{Room: "Bedroom", Device: "Light", State: "MAYBE"},
			}}},
			wantErr: "state must be ON or OFF",
		},
		{
			name:    "unknown location",
			item:    Item{Time: "08:00", Activity: "Work", Location: "Garage"},
			wantErr: "location must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item, reg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateItem: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	orig := Item{
		Time:     "09:00",
		Activity: "Work",
		Action: &Action{Devices: []DeviceCommand{
			{Room: "Living Room", Device: "Light", State: StateOn},
		}},
	}

	cp := orig.Clone()
	cp.Action.Devices[0].State = StateOff

	if orig.Action.Devices[0].State != StateOn {
		t.Error("Clone shares device slice with original")
	}
}

func TestSortByTime(t *testing.T) {
	items := []Item{
		{Time: "12:00", Activity: "Lunch"},
		{Time: "07:00", Activity: "Wake up"},
		{Time: "09:00", Activity: "Work"},
	}
	SortByTime(items)

	want := []string{"07:00", "09:00", "12:00"}
	for i, w := range want {
		if items[i].Time != w {
			t.Errorf("items[%d].Time = %q, want %q", i, items[i].Time, w)
		}
	}
}
