// Package power takes the device from awake to deep sleep.
//
// Controller.Shutdown runs the power-down sequence in a fixed order and stops
// at the first failing step. Nothing is retried or rolled back: the device is
// about to sleep or be reset by its supervisor either way.
package power

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoWake is returned when asked to sleep without a wake source.
var ErrNoWake = errors.New("power: no wake source configured")

// Trigger is the wake pin polarity.
type Trigger int

const (
	// AnyHigh wakes when the pin goes high.
	AnyHigh Trigger = iota
	// AllLow wakes when the pin goes low.
	AllLow
)

func (t Trigger) String() string {
	if t == AllLow {
		return "all-low"
	}
	return "any-high"
}

// TriggerFromConfig maps the config value (1 = any-high, anything else
// all-low). A missing value means any-high.
func TriggerFromConfig(v *int) Trigger {
	if v == nil || *v == 1 {
		return AnyHigh
	}
	return AllLow
}

// Radio is the network link.
type Radio interface {
	Disconnect() error
	Deactivate() error
}

// Display can be switched off.
type Display interface {
	PowerOff() error
}

// WakeSource is the external wake pin.
type WakeSource interface {
	Configure(pin int, trigger Trigger) error
	Arm() error
}

// Sleeper enters deep sleep. On hardware it does not return on success.
type Sleeper interface {
	DeepSleep() error
}

// Config selects the wake pin.
type Config struct {
	WakePin int
	Trigger Trigger
}

// Controller runs the power-down sequence.
type Controller struct {
	radio   Radio
	display Display
	wake    WakeSource
	sleeper Sleeper
	cfg     Config
}

// NewController creates a Controller. radio and display may be nil when the
// device runs without them.
func NewController(radio Radio, display Display, wake WakeSource, sleeper Sleeper, cfg Config) *Controller {
	return &Controller{
		radio:   radio,
		display: display,
		wake:    wake,
		sleeper: sleeper,
		cfg:     cfg,
	}
}

// Shutdown disables the network, powers off the display, arms the wake pin
// and enters deep sleep, in that order.
func (c *Controller) Shutdown() error {
	if c.wake == nil || c.sleeper == nil {
		return ErrNoWake
	}

	if c.radio != nil {
		slog.Info("power: disabling network")
		if err := c.radio.Disconnect(); err != nil {
			return fmt.Errorf("power: disconnect: %w", err)
		}
		if err := c.radio.Deactivate(); err != nil {
			return fmt.Errorf("power: deactivate radio: %w", err)
		}
	}

	if c.display != nil {
		slog.Info("power: display off")
		if err := c.display.PowerOff(); err != nil {
			return fmt.Errorf("power: display off: %w", err)
		}
	}

	slog.Info("power: setting external wakeup", "pin", c.cfg.WakePin, "trigger", c.cfg.Trigger)
	if err := c.wake.Configure(c.cfg.WakePin, c.cfg.Trigger); err != nil {
		return fmt.Errorf("power: configure wake pin %d: %w", c.cfg.WakePin, err)
	}
	if err := c.wake.Arm(); err != nil {
		return fmt.Errorf("power: arm wake pin %d: %w", c.cfg.WakePin, err)
	}

	slog.Info("power: entering deep sleep")
	if err := c.sleeper.DeepSleep(); err != nil {
		return fmt.Errorf("power: deep sleep: %w", err)
	}
	return nil
}
