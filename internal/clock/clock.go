// Package clock provides a millisecond tick counter with wraparound-safe
// arithmetic. Ticks behave like a free-running 32-bit hardware counter: they
// wrap after roughly 49.7 days, so deadlines must always be compared with Diff
// rather than plain subtraction or ordering.
package clock

import (
	"sync"
	"time"
)

// Ticks is a millisecond timestamp from a monotonic, wrapping counter.
type Ticks uint32

// Add returns t advanced by ms milliseconds (ms may be negative).
func Add(t Ticks, ms int32) Ticks {
	return t + Ticks(uint32(ms))
}

// AddDuration returns t advanced by d, truncated to whole milliseconds.
func AddDuration(t Ticks, d time.Duration) Ticks {
	return Add(t, int32(d.Milliseconds()))
}

// Diff returns a-b in milliseconds. The result is correct as long as the two
// timestamps are less than 2^31 ms apart, regardless of counter wraparound.
func Diff(a, b Ticks) int32 {
	return int32(uint32(a) - uint32(b))
}

// Source reports the current tick count.
type Source interface {
	Now() Ticks
}

// Monotonic is a Source backed by the runtime's monotonic clock.
type Monotonic struct {
	start time.Time
	base  Ticks
}

// NewMonotonic returns a Source starting at zero ticks.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NewMonotonicAt returns a Source whose first reading is base. Useful to
// exercise wraparound on real hardware.
func NewMonotonicAt(base Ticks) *Monotonic {
	return &Monotonic{start: time.Now(), base: base}
}

// Now returns the milliseconds elapsed since creation, offset by base.
func (m *Monotonic) Now() Ticks {
	return m.base + Ticks(uint32(time.Since(m.start).Milliseconds()))
}

// Fake is a manually advanced Source for tests. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now Ticks
}

// NewFake returns a Fake reading t.
func NewFake(t Ticks) *Fake {
	return &Fake{now: t}
}

// Now returns the current fake time.
func (f *Fake) Now() Ticks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = AddDuration(f.now, d)
	f.mu.Unlock()
}

// Set jumps the fake time to t.
func (f *Fake) Set(t Ticks) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
