package display

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/light-delay/internal/clock"
	"github.com/sweeney/light-delay/internal/countdown"
)

// DefaultThrottle is the minimum time between two physical repaints.
const DefaultThrottle = time.Second

// DefaultLinePitch fits four 13px text rows on a 64px panel.
const DefaultLinePitch = 16

// Screen rows.
const (
	rowValue = iota
	rowTransition
	rowTimer
)

// Options tunes a Presenter.
type Options struct {
	Throttle  time.Duration
	LinePitch int
}

// Presenter paints the session screen:
//
//	VALUE: 15m...
//	14 => 15...
//	TIMER: 4:59            (or SLEEP_IN: 0:41)
//
// Repaints are throttled: after a physical paint, further Repaint calls are
// suppressed until the throttle window has passed. Changes made inside the
// window are not lost; the first Repaint after the window shows the latest
// value and transition.
type Presenter struct {
	canvas   Canvas
	clock    clock.Source
	throttle time.Duration
	pitch    int

	painted   bool
	lastValue int
	lastPaint clock.Ticks

	pending bool
	fromVal int
	toVal   int
	paints  int
}

// NewPresenter creates a Presenter drawing on canvas.
func NewPresenter(canvas Canvas, src clock.Source, opts Options) *Presenter {
	p := &Presenter{
		canvas:   canvas,
		clock:    src,
		throttle: opts.Throttle,
		pitch:    opts.LinePitch,
	}
	if p.throttle <= 0 {
		p.throttle = DefaultThrottle
	}
	if p.pitch <= 0 {
		p.pitch = DefaultLinePitch
	}
	return p
}

// Splash clears the panel and shows the starting value.
func (p *Presenter) Splash(value int) error {
	p.canvas.Fill(Black)
	p.canvas.Text(fmt.Sprintf("VALUE: %d...", value), 0, p.row(rowValue), White)
	if err := p.canvas.Show(); err != nil {
		return fmt.Errorf("show splash: %w", err)
	}
	return nil
}

// Changed records an encoder value change for the transition row. Several
// changes between two paints collapse into one "first => last" line.
func (p *Presenter) Changed(old, new int) {
	if !p.pending {
		p.fromVal = old
		p.pending = true
	}
	p.toVal = new
}

// Repaint draws value and whichever countdown is running. It returns false
// when the call was suppressed by the throttle.
func (p *Presenter) Repaint(value int, snap countdown.Snapshot) (bool, error) {
	now := p.clock.Now()
	if p.painted && clock.Diff(now, p.lastPaint) < int32(p.throttle.Milliseconds()) {
		return false, nil
	}

	w := p.canvas.Width()
	p.canvas.FillRect(0, p.row(rowValue), w, p.pitch, Black)
	p.canvas.FillRect(0, p.row(rowTimer), w, p.pitch, Black)

	p.canvas.Text(fmt.Sprintf("VALUE: %dm...", value), 0, p.row(rowValue), White)
	if p.pending {
		p.canvas.FillRect(0, p.row(rowTransition), w, p.pitch, Black)
		p.canvas.Text(fmt.Sprintf("%d => %d...", p.fromVal, p.toVal), 0, p.row(rowTransition), White)
	}
	if line, ok := TimerLine(snap); ok {
		p.canvas.Text(line, 0, p.row(rowTimer), White)
	}

	if err := p.canvas.Show(); err != nil {
		return false, fmt.Errorf("show: %w", err)
	}

	p.painted = true
	p.pending = false
	p.lastValue = value
	p.lastPaint = now
	p.paints++
	slog.Debug("display: repaint", "value", value, "phase", snap.Phase)
	return true, nil
}

// LastValue returns the value shown by the most recent paint.
func (p *Presenter) LastValue() (int, bool) {
	return p.lastValue, p.painted
}

// Paints returns the number of physical repaints so far.
func (p *Presenter) Paints() int {
	return p.paints
}

// PowerOff turns the panel off.
func (p *Presenter) PowerOff() error {
	return p.canvas.PowerOff()
}

func (p *Presenter) row(n int) int {
	return n * p.pitch
}

// TimerLine formats the active countdown, or else the grace countdown.
func TimerLine(snap countdown.Snapshot) (string, bool) {
	switch {
	case snap.Active.Armed:
		return "TIMER: " + MinSec(snap.Active.Remaining), true
	case snap.Sleep.Armed:
		return "SLEEP_IN: " + MinSec(snap.Sleep.Remaining), true
	}
	return "", false
}

// MinSec formats seconds as m:ss. Negative values show as 0:00.
func MinSec(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
