package power

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

type rig struct {
	rec     *Recorder
	radio   *FakeRadio
	display *FakeDisplay
	wake    *FakeWake
	sleeper *FakeSleeper
	ctrl    *Controller
}

func newRig() *rig {
	rec := &Recorder{}
	r := &rig{
		rec:     rec,
		radio:   &FakeRadio{Rec: rec},
		display: &FakeDisplay{Rec: rec},
		wake:    &FakeWake{Rec: rec},
		sleeper: &FakeSleeper{Rec: rec},
	}
	r.ctrl = NewController(r.radio, r.display, r.wake, r.sleeper, Config{WakePin: 33, Trigger: AnyHigh})
	return r
}

func equalSteps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestShutdownOrder(t *testing.T) {
	r := newRig()
	if err := r.ctrl.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{"disconnect", "deactivate", "display off", "configure wake", "arm wake", "deep sleep"}
	if !equalSteps(r.rec.Steps, want) {
		t.Errorf("steps: got %v, want %v", r.rec.Steps, want)
	}
	if !r.sleeper.Asleep {
		t.Error("sleeper not reached")
	}
	if r.wake.Pin != 33 || r.wake.Trigger != AnyHigh || !r.wake.Armed {
		t.Errorf("wake: got pin=%d trigger=%v armed=%v", r.wake.Pin, r.wake.Trigger, r.wake.Armed)
	}
}

func TestShutdownStopsAtFirstFailure(t *testing.T) {
	cases := []struct {
		name   string
		inject func(*rig)
		steps  []string
		inErr  string
	}{
		{"deactivate", func(r *rig) { r.radio.DeactivateError = errors.New("rfkill missing") },
			[]string{"disconnect", "deactivate"}, "deactivate radio"},
		{"display", func(r *rig) { r.display.Err = errors.New("nack") },
			[]string{"disconnect", "deactivate", "display off"}, "display off"},
		{"configure", func(r *rig) { r.wake.ConfigureErr = errors.New("busy") },
			[]string{"disconnect", "deactivate", "display off", "configure wake"}, "configure wake pin 33"},
		{"sleep", func(r *rig) { r.sleeper.Err = errors.New("denied") },
			[]string{"disconnect", "deactivate", "display off", "configure wake", "arm wake", "deep sleep"}, "deep sleep"},
	}

	for _, c := range cases {
		r := newRig()
		c.inject(r)
		err := r.ctrl.Shutdown()
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.inErr) {
			t.Errorf("%s: error %q does not name step %q", c.name, err, c.inErr)
		}
		if !equalSteps(r.rec.Steps, c.steps) {
			t.Errorf("%s: steps: got %v, want %v", c.name, r.rec.Steps, c.steps)
		}
	}
}

func TestShutdownWithoutRadioOrDisplay(t *testing.T) {
	rec := &Recorder{}
	wake := &FakeWake{Rec: rec}
	sleeper := &FakeSleeper{Rec: rec}
	ctrl := NewController(nil, nil, wake, sleeper, Config{WakePin: 4, Trigger: AllLow})

	if err := ctrl.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	want := []string{"configure wake", "arm wake", "deep sleep"}
	if !equalSteps(rec.Steps, want) {
		t.Errorf("steps: got %v, want %v", rec.Steps, want)
	}
	if wake.Trigger != AllLow {
		t.Errorf("trigger: got %v, want all-low", wake.Trigger)
	}
}

func TestShutdownNoWake(t *testing.T) {
	ctrl := NewController(nil, nil, nil, &FakeSleeper{}, Config{})
	if err := ctrl.Shutdown(); !errors.Is(err, ErrNoWake) {
		t.Errorf("got %v, want ErrNoWake", err)
	}
}

func TestTriggerFromConfig(t *testing.T) {
	one, zero, two := 1, 0, 2
	if TriggerFromConfig(nil) != AnyHigh {
		t.Error("missing trigger should be any-high")
	}
	if TriggerFromConfig(&one) != AnyHigh {
		t.Error("1 should be any-high")
	}
	if TriggerFromConfig(&zero) != AllLow {
		t.Error("0 should be all-low")
	}
	if TriggerFromConfig(&two) != AllLow {
		t.Error("2 should be all-low")
	}
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

func TestNetRadio(t *testing.T) {
	conn := &closeCounter{}
	r := NewNetRadio(conn, []string{"rfkill", "block", "wifi"})
	var ran []string
	r.run = func(name string, args ...string) error {
		ran = append([]string{name}, args...)
		return nil
	}

	if err := r.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	r.Disconnect()
	if conn.n != 1 {
		t.Errorf("Close calls: got %d, want 1", conn.n)
	}

	if err := r.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if strings.Join(ran, " ") != "rfkill block wifi" {
		t.Errorf("command: got %v", ran)
	}
}

func TestNetRadioOffline(t *testing.T) {
	r := NewNetRadio(nil, nil)
	if err := r.Disconnect(); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
	if err := r.Deactivate(); err != nil {
		t.Errorf("Deactivate: %v", err)
	}
}

func TestWakeSleeper(t *testing.T) {
	wake := &FakeWake{Woken: make(chan struct{})}
	resets := 0
	s := NewWakeSleeper(wake, ResetFunc(func() error { resets++; return nil }), true)
	var wrote string
	s.writeFile = func(name string, data []byte, perm os.FileMode) error {
		wrote = name + "=" + string(data)
		return nil
	}

	close(wake.Woken)
	if err := s.DeepSleep(); err != nil {
		t.Fatalf("DeepSleep: %v", err)
	}
	if wrote != SysPowerState+"=mem" {
		t.Errorf("suspend write: got %q", wrote)
	}
	if resets != 1 {
		t.Errorf("resets: got %d, want 1", resets)
	}
}

func TestWakeSleeperSuspendError(t *testing.T) {
	s := NewWakeSleeper(&FakeWake{}, ResetFunc(func() error { return nil }), true)
	s.writeFile = func(string, []byte, os.FileMode) error { return errors.New("permission denied") }
	if err := s.DeepSleep(); err == nil {
		t.Error("expected suspend error")
	}
}

func TestRebooter(t *testing.T) {
	var published []string
	resets := 0
	r := NewRebooter(func(msg string) error {
		published = append(published, msg)
		return nil
	}, ResetFunc(func() error { resets++; return nil }))
	r.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	var slept time.Duration
	r.sleep = func(d time.Duration) { slept = d }

	if err := r.Reboot("command"); err != nil {
		t.Fatalf("Reboot: %v", err)
	}
	if len(published) != 1 || published[0] != "rebooting at 2026-01-01T12:00:00Z" {
		t.Errorf("published: got %v", published)
	}
	if slept != time.Second {
		t.Errorf("delay: got %v, want 1s", slept)
	}
	if resets != 1 {
		t.Errorf("resets: got %d, want 1", resets)
	}
}

func TestRebooterAnnounceFailureStillResets(t *testing.T) {
	resets := 0
	r := NewRebooter(func(string) error { return errors.New("offline") }, ResetFunc(func() error { resets++; return nil }))
	r.sleep = func(time.Duration) {}

	if err := r.Reboot("timer"); err != nil {
		t.Fatalf("Reboot: %v", err)
	}
	if resets != 1 {
		t.Errorf("resets: got %d, want 1", resets)
	}
}

func TestRebooterResetError(t *testing.T) {
	r := NewRebooter(nil, ResetFunc(func() error { return errors.New("exec failed") }))
	r.sleep = func(time.Duration) {}
	if err := r.Reboot("timer"); err == nil {
		t.Error("expected reset error")
	}
}
