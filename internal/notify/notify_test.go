package notify

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/store"
	"github.com/hearthd/hearth/internal/tools"
)

func testRegistry() schedule.Registry {
	return schedule.Registry{
		"Bedroom":     {"Light", "Alarm", "AC"},
		"Bathroom":    {"Light"},
		"Kitchen":     {"Light", "Alarm"},
		"Living Room": {"Light", "TV", "AC", "Fan"},
	}
}

func newTestService(t *testing.T) (*Service, *state.Manager) {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "hearth.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.DiscardHandler)
	mgr, err := state.NewManager(st, testRegistry(), logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	router := tools.NewRouter(mgr, nil, logger)
	return NewService(mgr, router, logger), mgr
}

func TestHouseCheckNotifiesForRemoteDevices(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	if err := mgr.SetLocation("Bedroom"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	if _, err := mgr.SetDevice("Living Room", "TV", schedule.StateOn); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	n, err := svc.RunHouseCheck(ctx)
	if err != nil {
		t.Fatalf("RunHouseCheck: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notification")
	}
	want := "I noticed the Living Room TV is still ON. Would you like me to turn it off?"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
	if len(n.Devices) != 1 || n.Devices[0].Room != "Living Room" || n.Devices[0].Device != "TV" {
		t.Errorf("devices = %+v", n.Devices)
	}
}

func TestHouseCheckIgnoresCurrentRoom(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	if err := mgr.SetLocation("Bedroom"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	if _, err := mgr.SetDevice("Bedroom", "Light", schedule.StateOn); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	n, err := svc.RunHouseCheck(ctx)
	if err != nil {
		t.Fatalf("RunHouseCheck: %v", err)
	}
	if n != nil {
		t.Fatalf("expected no notification, got %q", n.Message)
	}
}

func TestHouseCheckMultipleDevices(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	if err := mgr.SetLocation("Bedroom"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	for _, d := range [][2]string{{"Kitchen", "Light"}, {"Living Room", "Fan"}, {"Living Room", "TV"}} {
		if _, err := mgr.SetDevice(d[0], d[1], schedule.StateOn); err != nil {
			t.Fatalf("SetDevice(%s %s): %v", d[0], d[1], err)
		}
	}

	n, err := svc.RunHouseCheck(ctx)
	if err != nil {
		t.Fatalf("RunHouseCheck: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notification")
	}
	if !strings.HasPrefix(n.Message, "I noticed these devices are still ON: ") {
		t.Errorf("message = %q", n.Message)
	}
	if !strings.Contains(n.Message, ", and ") {
		t.Errorf("message missing final conjunction: %q", n.Message)
	}
	if len(n.Devices) != 3 {
		t.Errorf("devices = %d, want 3", len(n.Devices))
	}
}

func TestReconcilePreferenceSuppressesDevice(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	if err := mgr.SetLocation("Bedroom"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	if _, err := mgr.SetDevice("Living Room", "TV", schedule.StateOn); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	n, err := svc.RunHouseCheck(ctx)
	if err != nil || n == nil {
		t.Fatalf("RunHouseCheck: %v, %v", n, err)
	}

	reply, err := svc.ReconcilePreference("it's fine, leave it on", n)
	if err != nil {
		t.Fatalf("ReconcilePreference: %v", err)
	}
	want := "Got it! I won't notify you about Living Room TV anymore."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}

	suppressed, err := mgr.DoNotNotify("Living Room", "TV")
	if err != nil {
		t.Fatalf("DoNotNotify: %v", err)
	}
	if !suppressed {
		t.Error("preference not persisted")
	}

	n2, err := svc.RunHouseCheck(ctx)
	if err != nil {
		t.Fatalf("RunHouseCheck: %v", err)
	}
	if n2 != nil {
		t.Fatalf("suppressed device notified again: %q", n2.Message)
	}
}

func TestReconcilePreferenceIgnoresOtherReplies(t *testing.T) {
	svc, _ := newTestService(t)

	last := &Notification{Devices: []store.DeviceStatus{{Room: "Kitchen", Device: "Light", State: "ON"}}}
	for _, msg := range []string{"turn it off please", "what time is it?", ""} {
		reply, err := svc.ReconcilePreference(msg, last)
		if err != nil {
			t.Fatalf("ReconcilePreference(%q): %v", msg, err)
		}
		if reply != "" {
			t.Errorf("ReconcilePreference(%q) = %q, want empty", msg, reply)
		}
	}

	reply, err := svc.ReconcilePreference("leave it on", nil)
	if err != nil {
		t.Fatalf("ReconcilePreference: %v", err)
	}
	if reply != "" {
		t.Errorf("nil notification reply = %q, want empty", reply)
	}
}

func TestReconcilePreferenceMultipleDevices(t *testing.T) {
	svc, mgr := newTestService(t)

	last := &Notification{Devices: []store.DeviceStatus{
		{Room: "Kitchen", Device: "Light", State: "ON"},
		{Room: "Living Room", Device: "Fan", State: "ON"},
	}}
	reply, err := svc.ReconcilePreference("don't worry about those", last)
	if err != nil {
		t.Fatalf("ReconcilePreference: %v", err)
	}
	if !strings.Contains(reply, "Kitchen Light") || !strings.Contains(reply, "Living Room Fan") {
		t.Errorf("reply = %q", reply)
	}

	for _, d := range last.Devices {
		suppressed, err := mgr.DoNotNotify(d.Room, d.Device)
		if err != nil {
			t.Fatalf("DoNotNotify: %v", err)
		}
		if !suppressed {
			t.Errorf("%s %s not suppressed", d.Room, d.Device)
		}
	}
}
