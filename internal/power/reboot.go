package power

import (
	"fmt"
	"log/slog"
	"time"
)

// Resetter restarts the device into its startup path.
type Resetter interface {
	Reset() error
}

// ResetFunc adapts a function to Resetter.
type ResetFunc func() error

// Reset calls f.
func (f ResetFunc) Reset() error { return f() }

// Rebooter announces a reboot and resets the device.
type Rebooter struct {
	announce func(msg string) error
	reset    Resetter
	delay    time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewRebooter creates a Rebooter. announce receives the log message that is
// published before the reset; it may be nil.
func NewRebooter(announce func(msg string) error, reset Resetter) *Rebooter {
	return &Rebooter{
		announce: announce,
		reset:    reset,
		delay:    time.Second,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Reboot publishes "rebooting at <time>", waits for the message to leave and
// resets. It only returns if the reset fails.
func (r *Rebooter) Reboot(reason string) error {
	ts := r.now().Format(time.RFC3339)
	slog.Info("rebooting", "at", ts, "reason", reason)

	if r.announce != nil {
		if err := r.announce(fmt.Sprintf("rebooting at %s", ts)); err != nil {
			slog.Error("reboot announcement failed", "err", err)
		}
	}
	r.sleep(r.delay)

	if err := r.reset.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
