package power

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// SysPowerState is the kernel's suspend control file.
const SysPowerState = "/sys/power/state"

// NetRadio closes the broker connection and blocks the wireless radio with an
// external command (rfkill by default).
type NetRadio struct {
	conn    io.Closer
	command []string
	run     func(name string, args ...string) error

	once sync.Once
	err  error
}

// NewNetRadio creates a NetRadio. conn may be nil when running offline; an
// empty command skips radio deactivation.
func NewNetRadio(conn io.Closer, command []string) *NetRadio {
	return &NetRadio{
		conn:    conn,
		command: command,
		run: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, out)
			}
			return nil
		},
	}
}

// Disconnect closes the broker connection. Repeated calls return the first
// result.
func (r *NetRadio) Disconnect() error {
	r.once.Do(func() {
		if r.conn != nil {
			r.err = r.conn.Close()
		}
	})
	return r.err
}

// Deactivate runs the radio-off command.
func (r *NetRadio) Deactivate() error {
	if len(r.command) == 0 {
		return nil
	}
	return r.run(r.command[0], r.command[1:]...)
}

// WakeWaiter blocks until the armed wake pin fires.
type WakeWaiter interface {
	Wait(ctx context.Context) error
}

// WakeSleeper is the Linux rendition of deep sleep: optionally suspend the
// kernel, wait for the wake pin, then reset into the startup path.
type WakeSleeper struct {
	waiter    WakeWaiter
	reset     Resetter
	statePath string // empty disables kernel suspend
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewWakeSleeper creates a WakeSleeper. suspend writes "mem" to
// /sys/power/state before waiting.
func NewWakeSleeper(waiter WakeWaiter, reset Resetter, suspend bool) *WakeSleeper {
	s := &WakeSleeper{
		waiter:    waiter,
		reset:     reset,
		writeFile: os.WriteFile,
	}
	if suspend {
		s.statePath = SysPowerState
	}
	return s
}

// DeepSleep does not return unless a step fails.
func (s *WakeSleeper) DeepSleep() error {
	if s.waiter == nil {
		return ErrNoWake
	}
	if s.statePath != "" {
		// The write blocks until the kernel resumes.
		if err := s.writeFile(s.statePath, []byte("mem"), 0); err != nil {
			return fmt.Errorf("suspend: %w", err)
		}
	}
	if err := s.waiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("wait for wake pin: %w", err)
	}
	slog.Info("power: woken by external pin")
	return s.reset.Reset()
}
