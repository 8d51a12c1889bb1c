// Package encoder decodes a mechanical quadrature rotary encoder.
//
// Update is driven from edge-interrupt context (one call per edge on either
// phase line) and is the only writer of decoder state. Value and TakeChanged
// may be called concurrently from the main loop. Update performs no
// allocation and takes no locks.
package encoder

import (
	"fmt"
	"sync/atomic"
)

// RangeMode controls what happens when the value steps past a limit.
type RangeMode int

const (
	// Bounded saturates at Min and Max.
	Bounded RangeMode = iota
	// Wrap cycles modulo (Max-Min+1).
	Wrap
	// Unbounded ignores Min and Max.
	Unbounded
)

func (m RangeMode) String() string {
	switch m {
	case Bounded:
		return "bounded"
	case Wrap:
		return "wrap"
	case Unbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("RangeMode(%d)", int(m))
	}
}

// ParseRangeMode maps a config string to a RangeMode.
func ParseRangeMode(s string) (RangeMode, error) {
	switch s {
	case "bounded", "":
		return Bounded, nil
	case "wrap":
		return Wrap, nil
	case "unbounded":
		return Unbounded, nil
	}
	return Bounded, fmt.Errorf("unknown range mode %q", s)
}

// Direction of the most recent value change.
type Direction int8

const (
	None Direction = 0
	CW   Direction = 1
	CCW  Direction = -1
)

// Full-step state machine. Each detent passes through three intermediate
// states before the rest position (both lines high) emits a direction.
const (
	stStart = 0x0
	stCW1   = 0x1
	stCW2   = 0x2
	stCW3   = 0x3
	stCCW1  = 0x4
	stCCW2  = 0x5
	stCCW3  = 0x6
	stIll   = 0x7

	dirCW  = 0x10
	dirCCW = 0x20

	stateMask = 0x07
	dirMask   = 0x30
)

// transitions[state][clk<<1|dt] is the next state, possibly tagged with a
// direction. Any sequence that skips a phase falls back to stStart without
// a direction bit.
var transitions = [8][4]uint8{
	//  00       01      10       11
	{stStart, stCCW1, stCW1, stStart},           // start
	{stCW2, stStart, stCW1, stStart},            // cw1
	{stCW2, stCW3, stCW1, stStart},              // cw2
	{stCW2, stCW3, stStart, stStart | dirCW},    // cw3
	{stCCW2, stCCW1, stStart, stStart},          // ccw1
	{stCCW2, stCCW1, stCCW3, stStart},           // ccw2
	{stCCW2, stStart, stCCW3, stStart | dirCCW}, // ccw3
	{stStart, stStart, stStart, stStart},        // illegal
}

// Config describes the value range of a Decoder.
type Config struct {
	Min     int
	Max     int
	Mode    RangeMode
	Reverse bool
	// Init is the starting value. Nil, or a value outside [Min, Max], starts
	// mid-range.
	Init *int
}

// Decoder converts phase-line levels into a bounded integer value.
type Decoder struct {
	min     int32
	max     int32
	mode    RangeMode
	reverse bool

	// Touched only by Update.
	state uint8

	value   atomic.Int32
	changed atomic.Int32 // last Direction since TakeChanged, 0 if none
}

// New creates a Decoder. It returns an error if Min > Max.
func New(cfg Config) (*Decoder, error) {
	if cfg.Min > cfg.Max {
		return nil, fmt.Errorf("encoder: min %d greater than max %d", cfg.Min, cfg.Max)
	}
	d := &Decoder{
		min:     int32(cfg.Min),
		max:     int32(cfg.Max),
		mode:    cfg.Mode,
		reverse: cfg.Reverse,
	}
	if cfg.Init != nil {
		d.Set(*cfg.Init)
	} else {
		d.value.Store(d.mid())
	}
	return d, nil
}

func (d *Decoder) mid() int32 {
	return d.min + (d.max-d.min)/2
}

// Set sets the current value. Values outside [Min, Max] reset to mid-range
// unless the decoder is Unbounded.
func (d *Decoder) Set(v int) {
	iv := int32(v)
	if d.mode != Unbounded && (iv < d.min || iv > d.max) {
		iv = d.mid()
	}
	d.value.Store(iv)
}

// Value returns the current value.
func (d *Decoder) Value() int {
	return int(d.value.Load())
}

// Min returns the lower limit.
func (d *Decoder) Min() int { return int(d.min) }

// Max returns the upper limit.
func (d *Decoder) Max() int { return int(d.max) }

// TakeChanged reports whether the value moved since the last call, and in
// which direction it moved last. The flag is cleared.
func (d *Decoder) TakeChanged() (Direction, bool) {
	dir := Direction(d.changed.Swap(0))
	return dir, dir != None
}

// Update feeds the current levels of both phase lines. Call on every edge of
// either line.
func (d *Decoder) Update(clk, dt bool) {
	var in uint8
	if clk {
		in |= 2
	}
	if dt {
		in |= 1
	}
	d.state = transitions[d.state&stateMask][in]

	var step int32
	switch d.state & dirMask {
	case dirCW:
		step = 1
	case dirCCW:
		step = -1
	default:
		return
	}
	if d.reverse {
		step = -step
	}

	old := d.value.Load()
	next := d.apply(old, step)
	if next == old {
		return
	}
	d.value.Store(next)
	d.changed.Store(int32(step))
}

func (d *Decoder) apply(v, step int32) int32 {
	switch d.mode {
	case Wrap:
		span := d.max - d.min + 1
		off := (v - d.min + step) % span
		if off < 0 {
			off += span
		}
		return d.min + off
	case Bounded:
		v += step
		if v < d.min {
			return d.min
		}
		if v > d.max {
			return d.max
		}
		return v
	default:
		return v + step
	}
}
