package power

import (
	"context"
	"sync"
)

// Recorder collects the order of calls across several fakes.
type Recorder struct {
	mu    sync.Mutex
	Steps []string
}

func (r *Recorder) add(step string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.Steps = append(r.Steps, step)
	r.mu.Unlock()
}

// FakeRadio records Disconnect and Deactivate.
type FakeRadio struct {
	Rec             *Recorder
	DisconnectError error
	DeactivateError error
	Disconnected    bool
	Deactivated     bool
}

func (f *FakeRadio) Disconnect() error {
	f.Rec.add("disconnect")
	if f.DisconnectError != nil {
		return f.DisconnectError
	}
	f.Disconnected = true
	return nil
}

func (f *FakeRadio) Deactivate() error {
	f.Rec.add("deactivate")
	if f.DeactivateError != nil {
		return f.DeactivateError
	}
	f.Deactivated = true
	return nil
}

// FakeDisplay records PowerOff.
type FakeDisplay struct {
	Rec        *Recorder
	Err        error
	PoweredOff bool
}

func (f *FakeDisplay) PowerOff() error {
	f.Rec.add("display off")
	if f.Err != nil {
		return f.Err
	}
	f.PoweredOff = true
	return nil
}

// FakeWake records the wake pin configuration.
type FakeWake struct {
	Rec          *Recorder
	ConfigureErr error
	ArmErr       error
	Pin          int
	Trigger      Trigger
	Armed        bool

	// Closing Woken releases Wait.
	Woken chan struct{}
}

func (f *FakeWake) Configure(pin int, trigger Trigger) error {
	f.Rec.add("configure wake")
	if f.ConfigureErr != nil {
		return f.ConfigureErr
	}
	f.Pin = pin
	f.Trigger = trigger
	return nil
}

func (f *FakeWake) Arm() error {
	f.Rec.add("arm wake")
	if f.ArmErr != nil {
		return f.ArmErr
	}
	f.Armed = true
	return nil
}

// Wait blocks until Wake is called or ctx ends.
func (f *FakeWake) Wait(ctx context.Context) error {
	if f.Woken == nil {
		return nil
	}
	select {
	case <-f.Woken:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakeSleeper stands in for deep sleep: it records the call and returns.
type FakeSleeper struct {
	Rec    *Recorder
	Err    error
	Asleep bool
}

func (f *FakeSleeper) DeepSleep() error {
	f.Rec.add("deep sleep")
	if f.Err != nil {
		return f.Err
	}
	f.Asleep = true
	return nil
}
