package internal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/light-delay/internal/button"
	"github.com/sweeney/light-delay/internal/clock"
	"github.com/sweeney/light-delay/internal/countdown"
	"github.com/sweeney/light-delay/internal/display"
	"github.com/sweeney/light-delay/internal/encoder"
	"github.com/sweeney/light-delay/internal/gpio"
	"github.com/sweeney/light-delay/internal/mqtt"
	"github.com/sweeney/light-delay/internal/power"
	"github.com/sweeney/light-delay/internal/queue"
)

// TestIntegrationFullFlow drives the device from dialing through light off
// and grace expiry to the power-down sequence using fakes.
func TestIntegrationFullFlow(t *testing.T) {
	clk := clock.NewFake(0xFFFF0000) // close to wrap
	canvas := display.NewFakeCanvas()
	publisher := mqtt.NewFakePublisher()
	tasks := queue.New(queue.DefaultCapacity)

	start := 0
	dec, err := encoder.New(encoder.Config{Min: 0, Max: 180, Mode: encoder.Bounded, Init: &start})
	if err != nil {
		t.Fatalf("encoder.New: %v", err)
	}
	enc := gpio.NewFakeEncoder(dec)

	sched := countdown.New(clk, countdown.LightSwitchFunc(func() error {
		return publisher.Publish("lightswitchfeed", mqtt.FormatValue(0), true, mqtt.AtLeastOnce)
	}), countdown.Options{})
	presenter := display.NewPresenter(canvas, clk, display.Options{})

	// Switch: settled presses post a click to the queue.
	sw := gpio.NewFakeSwitch(true)
	deb := button.New(sw, button.Config{Sleep: func(time.Duration) {}}, func(pressed bool) {
		if pressed {
			tasks.Post(func() { sched.Click(dec.Value()) })
		}
	})
	sw.OnEdge(deb.Edge)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deb.Run(ctx)

	press := func() {
		sw.Script(false)
		sw.Edge()
		waitTask(t, tasks)
		sw.Script(true)
		sw.Edge()
	}

	if err := presenter.Splash(dec.Min()); err != nil {
		t.Fatalf("Splash: %v", err)
	}

	// Dial 2 minutes and click once the splash throttle has passed.
	enc.Turn(2)
	if dec.Value() != 2 {
		t.Fatalf("value: got %d, want 2", dec.Value())
	}
	clk.Advance(time.Second)
	press()
	if sched.Phase() != countdown.CountingDown {
		t.Fatalf("phase: got %v, want COUNTING_DOWN", sched.Phase())
	}

	if _, err := presenter.Repaint(dec.Value(), sched.Snapshot()); err != nil {
		t.Fatalf("Repaint: %v", err)
	}
	if !frameHas(canvas, "TIMER: 2:00") {
		t.Errorf("frame missing TIMER: 2:00, got %+v", canvas.LastFrame())
	}

	// Run the countdown across the tick wrap.
	for i := 0; i < 120; i++ {
		clk.Advance(time.Second)
		sched.Tick()
	}
	if sched.Phase() != countdown.GracePeriod {
		t.Fatalf("phase: got %v, want GRACE_PERIOD", sched.Phase())
	}
	if len(publisher.Messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(publisher.Messages))
	}
	if m := publisher.Messages[0]; m.Payload != "0" || !m.Retained || m.QoS != 1 {
		t.Errorf("light off message: got %+v", m)
	}

	if _, err := presenter.Repaint(dec.Value(), sched.Snapshot()); err != nil {
		t.Fatalf("Repaint: %v", err)
	}
	if !frameHas(canvas, "SLEEP_IN: 0:42") {
		t.Errorf("frame missing SLEEP_IN: 0:42, got %+v", canvas.LastFrame())
	}

	for i := 0; i < 42; i++ {
		clk.Advance(time.Second)
		sched.Tick()
	}
	if !sched.Shutdown() {
		t.Fatalf("expected sleep request, phase %v", sched.Phase())
	}
	if len(publisher.Messages) != 1 {
		t.Errorf("light off should publish once, got %d", len(publisher.Messages))
	}

	// Power down.
	rec := &power.Recorder{}
	radio := &power.FakeRadio{Rec: rec}
	wake := &power.FakeWake{Rec: rec}
	sleeper := &power.FakeSleeper{Rec: rec}
	ctrl := power.NewController(radio, presenter, wake, sleeper, power.Config{WakePin: 33, Trigger: power.AnyHigh})
	if err := ctrl.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !canvas.PoweredOff {
		t.Error("display should be powered off")
	}
	got := strings.Join(rec.Steps, ",")
	if got != "disconnect,deactivate,configure wake,arm wake,deep sleep" {
		t.Errorf("steps: got %s", got)
	}
}

// TestIntegrationCancelDuringGrace re-arms from the grace period and then
// cancels with a zero click.
func TestIntegrationCancelDuringGrace(t *testing.T) {
	clk := clock.NewFake(0)
	publisher := mqtt.NewFakePublisher()
	sched := countdown.New(clk, countdown.LightSwitchFunc(func() error {
		return publisher.Publish("lightswitchfeed", "0", true, mqtt.AtLeastOnce)
	}), countdown.Options{})

	sched.Click(1)
	clk.Advance(time.Minute)
	sched.Tick()
	if sched.Phase() != countdown.GracePeriod {
		t.Fatalf("phase: got %v, want GRACE_PERIOD", sched.Phase())
	}

	sched.Click(3)
	if sched.Phase() != countdown.CountingDown || sched.Snapshot().Sleep.Armed {
		t.Fatalf("re-arm: got %+v", sched.Snapshot())
	}

	sched.Click(0)
	if sched.Phase() != countdown.Idle {
		t.Fatalf("phase: got %v, want IDLE", sched.Phase())
	}
	for i := 0; i < 300; i++ {
		clk.Advance(time.Second)
		sched.Tick()
	}
	if len(publisher.Messages) != 1 {
		t.Errorf("publishes: got %d, want 1", len(publisher.Messages))
	}
	if sched.Shutdown() {
		t.Error("cancelled session must not request sleep")
	}
}

func waitTask(t *testing.T, q *queue.Queue) {
	t.Helper()
	select {
	case task := <-q.C():
		task()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for click")
	}
}

func frameHas(c *display.FakeCanvas, s string) bool {
	for _, op := range c.LastFrame() {
		if op.S == s {
			return true
		}
	}
	return false
}
