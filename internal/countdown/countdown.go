// Package countdown implements the light-off countdown and the grace period
// that follows it before the device goes to sleep.
//
// The Scheduler is pure state: it is driven by Click and Tick, reads time
// from an injected clock.Source, and reports the light-off action through the
// LightSwitch it was built with. It is not safe for concurrent use; the main
// loop owns it.
package countdown

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sweeney/light-delay/internal/clock"
)

// DefaultGrace is the delay between switching the light off and sleeping.
const DefaultGrace = 42 * time.Second

// Phase of the scheduler.
type Phase int

const (
	Idle Phase = iota
	CountingDown
	GracePeriod
	SleepRequested
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case CountingDown:
		return "COUNTING_DOWN"
	case GracePeriod:
		return "GRACE_PERIOD"
	case SleepRequested:
		return "SLEEP_REQUESTED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// LightSwitch turns the remote light off.
type LightSwitch interface {
	LightOff() error
}

// LightSwitchFunc adapts a function to LightSwitch.
type LightSwitchFunc func() error

// LightOff calls f.
func (f LightSwitchFunc) LightOff() error { return f() }

// Timer is one countdown. Remaining is only meaningful when Armed.
type Timer struct {
	Armed     bool
	Deadline  clock.Ticks
	Remaining int // seconds, rounded half to even
}

func (t *Timer) arm(now clock.Ticks, d time.Duration) {
	t.Armed = true
	t.Deadline = clock.AddDuration(now, d)
	t.Remaining = remainingSeconds(t.Deadline, now)
}

func (t *Timer) clear() {
	*t = Timer{}
}

func remainingSeconds(deadline, now clock.Ticks) int {
	ms := clock.Diff(deadline, now)
	return int(math.RoundToEven(float64(ms) / 1000.0))
}

// Snapshot is a copy of the scheduler state for presentation.
type Snapshot struct {
	Phase  Phase
	Active Timer
	Sleep  Timer
}

// Options tunes a Scheduler.
type Options struct {
	// Grace overrides DefaultGrace.
	Grace time.Duration
	// Unit is the length of one dialed step. Defaults to one minute.
	Unit time.Duration
}

// Scheduler holds the active and sleep timers.
type Scheduler struct {
	clock clock.Source
	light LightSwitch
	grace time.Duration
	unit  time.Duration

	phase  Phase
	active Timer
	sleep  Timer
}

// New creates an idle Scheduler.
func New(src clock.Source, light LightSwitch, opts Options) *Scheduler {
	s := &Scheduler{
		clock: src,
		light: light,
		grace: opts.Grace,
		unit:  opts.Unit,
	}
	if s.grace <= 0 {
		s.grace = DefaultGrace
	}
	if s.unit <= 0 {
		s.unit = time.Minute
	}
	return s
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// Snapshot returns a copy of the current state.
func (s *Scheduler) Snapshot() Snapshot {
	return Snapshot{Phase: s.phase, Active: s.active, Sleep: s.sleep}
}

// Shutdown reports whether the grace period has expired.
func (s *Scheduler) Shutdown() bool {
	return s.phase == SleepRequested
}

// Click applies a confirmed press with the currently dialed value.
//
// Zero cancels whatever countdown is running, including the grace period.
// A non-zero value (re)arms the active timer for value units and cancels any
// grace period. Clicks after sleep has been requested are ignored.
func (s *Scheduler) Click(value int) {
	if s.phase == SleepRequested {
		slog.Debug("countdown: click ignored, sleep requested", "value", value)
		return
	}

	if value <= 0 {
		if s.phase != Idle {
			slog.Info("countdown: cancelled", "phase", s.phase)
		}
		s.active.clear()
		s.sleep.clear()
		s.phase = Idle
		return
	}

	now := s.clock.Now()
	s.sleep.clear()
	s.active.arm(now, time.Duration(value)*s.unit)
	s.phase = CountingDown
	slog.Info("countdown: armed", "value", value, "deadline", uint32(s.active.Deadline))
	s.Tick()
}

// Tick recomputes remaining time and performs expiry transitions. Call once
// per second.
func (s *Scheduler) Tick() {
	now := s.clock.Now()

	if s.active.Armed {
		s.active.Remaining = remainingSeconds(s.active.Deadline, now)
		slog.Debug("countdown: tick", "remaining", s.active.Remaining, "grace", false)

		if s.active.Remaining <= 0 {
			if err := s.light.LightOff(); err != nil {
				slog.Error("countdown: light off failed", "err", err)
			}
			s.active.clear()
			s.sleep.arm(now, s.grace)
			s.phase = GracePeriod
			slog.Info("countdown: light off, grace period started", "grace", s.grace)
		}
	}

	if s.sleep.Armed && s.phase == GracePeriod {
		s.sleep.Remaining = remainingSeconds(s.sleep.Deadline, now)
		slog.Debug("countdown: tick", "remaining", s.sleep.Remaining, "grace", true)

		if s.sleep.Remaining <= 0 {
			s.phase = SleepRequested
			slog.Info("countdown: grace period over, sleep requested")
		}
	}
}
