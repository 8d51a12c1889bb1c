// Package button debounces the encoder's push switch.
//
// An edge handler calls Debouncer.Edge, which only signals the sampling
// goroutine. The goroutine polls the pin every Interval until it has seen
// Threshold consecutive identical samples, then reports the settled level if it
// differs from the last one reported. The switch is active low.
package button

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Defaults match a 20ms stability window sampled every millisecond.
const (
	DefaultInterval  = time.Millisecond
	DefaultThreshold = 20
	DefaultLimit     = 500
)

// Pin reads the raw switch level. true means electrically high (released).
type Pin interface {
	Level() (bool, error)
}

// Result of one settle run.
type Result struct {
	High    bool // last sampled level
	Samples int  // samples taken after the initial read
	Settled bool // false if limit was hit before the level stabilised
}

// Settle samples read until threshold consecutive samples match the previous
// one. wait is called before each sample. If limit > 0 and that many samples
// are taken without settling, Settled is false.
func Settle(read func() (bool, error), wait func(), threshold, limit int) (Result, error) {
	last, err := read()
	if err != nil {
		return Result{}, fmt.Errorf("read switch: %w", err)
	}

	var res Result
	conseq := 0
	for conseq < threshold {
		if limit > 0 && res.Samples >= limit {
			res.High = last
			return res, nil
		}
		wait()
		res.Samples++

		cur, err := read()
		if err != nil {
			return res, fmt.Errorf("read switch: %w", err)
		}
		if cur == last {
			conseq++
		} else {
			conseq = 0
		}
		last = cur
	}

	res.High = last
	res.Settled = true
	return res, nil
}

// Config tunes a Debouncer. Zero fields take the defaults.
type Config struct {
	Interval  time.Duration
	Threshold int
	Limit     int
	// Sleep replaces time.Sleep between samples (tests).
	Sleep func(time.Duration)
}

// Debouncer turns switch edges into settled press/release reports.
type Debouncer struct {
	pin       Pin
	onSettled func(pressed bool)
	interval  time.Duration
	threshold int
	limit     int
	sleep     func(time.Duration)

	kick    chan struct{}
	pressed bool // last reported state, owned by Run
}

// New creates a Debouncer reporting to onSettled, which is called from the
// sampling goroutine and should hand work off rather than do it inline.
func New(pin Pin, cfg Config, onSettled func(pressed bool)) *Debouncer {
	d := &Debouncer{
		pin:       pin,
		onSettled: onSettled,
		interval:  cfg.Interval,
		threshold: cfg.Threshold,
		limit:     cfg.Limit,
		sleep:     cfg.Sleep,
		kick:      make(chan struct{}, 1),
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.threshold <= 0 {
		d.threshold = DefaultThreshold
	}
	if d.limit == 0 {
		d.limit = DefaultLimit
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	return d
}

// Edge requests a settle run. Safe to call from edge-handler context: it
// never blocks, and edges arriving during a run coalesce into one more run.
func (d *Debouncer) Edge() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run services edge requests until ctx is cancelled.
func (d *Debouncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.kick:
			d.settleOnce()
		}
	}
}

func (d *Debouncer) settleOnce() {
	res, err := Settle(d.pin.Level, func() { d.sleep(d.interval) }, d.threshold, d.limit)
	if err != nil {
		slog.Error("button: debounce failed", "err", err)
		return
	}
	if !res.Settled {
		slog.Debug("button: no stable level", "samples", res.Samples)
		return
	}

	pressed := !res.High
	slog.Debug("button: settled", "pressed", pressed, "samples", res.Samples)
	if pressed == d.pressed {
		return
	}
	d.pressed = pressed
	d.onSettled(pressed)
}
