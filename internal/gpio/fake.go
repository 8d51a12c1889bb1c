package gpio

import (
	"errors"
	"sync"
)

// Detent sequences of (clk, dt) levels starting from rest (both high).
var (
	cwDetent  = [4][2]bool{{true, false}, {false, false}, {false, true}, {true, true}}
	ccwDetent = [4][2]bool{{false, true}, {false, false}, {true, false}, {true, true}}
)

// FakeEncoder drives a QuadratureSink with scripted detents.
type FakeEncoder struct {
	Sink   QuadratureSink
	Closed bool
}

// NewFakeEncoder creates a FakeEncoder feeding sink.
func NewFakeEncoder(sink QuadratureSink) *FakeEncoder {
	return &FakeEncoder{Sink: sink}
}

// Turn plays n full detents, clockwise for n > 0 and counter-clockwise for
// n < 0.
func (f *FakeEncoder) Turn(n int) {
	seq := cwDetent
	if n < 0 {
		seq = ccwDetent
		n = -n
	}
	for i := 0; i < n; i++ {
		for _, s := range seq {
			f.Sink.Update(s[0], s[1])
		}
	}
}

// Close marks the encoder as closed.
func (f *FakeEncoder) Close() error {
	f.Closed = true
	return nil
}

// FakeSwitch is a test double that returns scripted switch levels.
type FakeSwitch struct {
	mu sync.Mutex

	// Samples contains scripted levels (true = released).
	// Each call to Level() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// LevelError, if set, will be returned by Level()
	LevelError error

	onEdge func()
}

// NewFakeSwitch creates a FakeSwitch with the given samples.
func NewFakeSwitch(samples ...bool) *FakeSwitch {
	return &FakeSwitch{Samples: samples}
}

// Level returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSwitch) Level() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.LevelError != nil {
		return false, f.LevelError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}

// Script replaces the remaining samples.
func (f *FakeSwitch) Script(samples ...bool) {
	f.mu.Lock()
	f.Samples = samples
	f.index = 0
	f.mu.Unlock()
}

// OnEdge records the edge handler.
func (f *FakeSwitch) OnEdge(h func()) {
	f.mu.Lock()
	f.onEdge = h
	f.mu.Unlock()
}

// Edge simulates an edge interrupt.
func (f *FakeSwitch) Edge() {
	f.mu.Lock()
	h := f.onEdge
	f.mu.Unlock()
	if h != nil {
		h()
	}
}

// Close marks the switch as closed and detaches the handler.
func (f *FakeSwitch) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.onEdge = nil
	f.mu.Unlock()
	return nil
}
