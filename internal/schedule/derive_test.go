package schedule

import "testing"

func TestDeriveBuiltins(t *testing.T) {
	d := NewDeriver(testRegistry())

	got := d.Derive("Wake up")
	if got.Location != "Bedroom" {
		t.Errorf("Wake up location = %q, want Bedroom", got.Location)
	}
	if got.Action == nil || len(got.Action.Devices) != 2 {
		t.Fatalf("Wake up action = %+v, want 2 devices", got.Action)
	}

	// Lookup ignores case.
	if d.Derive("wake UP").Location != "Bedroom" {
		t.Error("derivation should be case-insensitive")
	}

	// Unknown activity yields an empty derivation.
	unknown := d.Derive("Underwater basket weaving")
	if unknown.Action != nil || unknown.Location != "" {
		t.Errorf("unknown activity derived %+v", unknown)
	}
}

func TestDeriveReturnsCopies(t *testing.T) {
	d := NewDeriver(testRegistry())

	a := d.Derive("Wake up")
	a.Action.Devices[0].State = StateOff

	b := d.Derive("Wake up")
	if b.Action.Devices[0].State != StateOn {
		t.Error("Derive returned shared action state")
	}
}

func TestAddMapping(t *testing.T) {
	d := NewDeriver(testRegistry())

	action := &Action{Devices: []DeviceCommand{
		{Room: "Living Room", Device: "TV", State: StateOn},
	}}
	if err := d.AddMapping("Movie night", action, "Living Room"); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}

	got := d.Derive("movie night")
	if got.Location != "Living Room" {
		t.Errorf("location = %q, want Living Room", got.Location)
	}
	if got.Action == nil || got.Action.Devices[0].Device != "TV" {
		t.Errorf("action = %+v", got.Action)
	}

	// Invalid room rejected.
	bad := &Action{Devices: []DeviceCommand{
		{Room: "Garage", Device: "Light", State: StateOn},
	}}
	if err := d.AddMapping("Tinkering", bad, ""); err == nil {
		t.Error("expected error for unknown room")
	}
}

func TestApplyDerivationPreservesExplicit(t *testing.T) {
	d := NewDeriver(testRegistry())

	explicit := Item{
		Time:     "07:00",
		Activity: "Wake up",
		Action: &Action{Devices: []DeviceCommand{
			{Room: "Kitchen", Device: "Alarm", State: StateOn},
		}},
		Location: "Kitchen",
	}
	got := d.ApplyDerivation(explicit)
	if got.Location != "Kitchen" {
		t.Errorf("explicit location overridden: %q", got.Location)
	}
	if got.Action.Devices[0].Room != "Kitchen" {
		t.Errorf("explicit action overridden: %+v", got.Action)
	}
}

func TestDeriveMissing(t *testing.T) {
	d := NewDeriver(testRegistry())

	items := []Item{
		{Time: "08:00", Activity: "Breakfast"},
		{Time: "23:00", Activity: "Sleep"},
	}
	out := d.DeriveMissing(items)

	if out[0].Location != "Kitchen" {
		t.Errorf("Breakfast location = %q, want Kitchen", out[0].Location)
	}
	if out[1].Action == nil || out[1].Action.Devices[0].State != StateOff {
		t.Errorf("Sleep action = %+v, want Bedroom Light OFF", out[1].Action)
	}

	// Input untouched.
	if items[0].Location != "" {
		t.Error("DeriveMissing mutated its input")
	}
}
