//go:build linux

package gpio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/light-delay/internal/power"
)

const (
	bitCLK = 1 << iota
	bitDT
)

// RealEncoder reads the encoder's CLK and DT lines on both edges.
type RealEncoder struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	sink   QuadratureSink
	clkPin int
	dtPin  int
	levels atomic.Uint32
}

// NewRealEncoder requests the CLK and DT lines with pull-ups and forwards
// their levels to sink on every edge.
func NewRealEncoder(chipName string, clkPin, dtPin int, sink QuadratureSink) (*RealEncoder, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	e := &RealEncoder{chip: chip, sink: sink, clkPin: clkPin, dtPin: dtPin}
	e.levels.Store(bitCLK | bitDT)

	lines, err := chip.RequestLines([]int{clkPin, dtPin},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(e.handle))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request encoder pins %d,%d: %w", clkPin, dtPin, err)
	}
	e.lines = lines

	vals := make([]int, 2)
	if err := lines.Values(vals); err != nil {
		lines.Close()
		chip.Close()
		return nil, fmt.Errorf("read encoder pins: %w", err)
	}
	var lv uint32
	if vals[0] != 0 {
		lv |= bitCLK
	}
	if vals[1] != 0 {
		lv |= bitDT
	}
	e.levels.Store(lv)

	return e, nil
}

// handle runs on the request's event goroutine.
func (e *RealEncoder) handle(evt gpiocdev.LineEvent) {
	bit := uint32(bitCLK)
	if evt.Offset == e.dtPin {
		bit = bitDT
	}
	lv := e.levels.Load()
	if evt.Type == gpiocdev.LineEventRisingEdge {
		lv |= bit
	} else {
		lv &^= bit
	}
	e.levels.Store(lv)
	e.sink.Update(lv&bitCLK != 0, lv&bitDT != 0)
}

// Close releases the encoder lines.
func (e *RealEncoder) Close() error {
	var errs []error
	if e.lines != nil {
		if err := e.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder pins: %w", err))
		}
	}
	if e.chip != nil {
		if err := e.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSwitch reads the encoder push switch.
type RealSwitch struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	onEdge atomic.Pointer[func()]
}

// NewRealSwitch requests the switch line with a pull-up and edge events on
// both edges.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSwitch{chip: chip}
	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pin, err)
	}
	s.line = line
	return s, nil
}

func (s *RealSwitch) handle(gpiocdev.LineEvent) {
	if f := s.onEdge.Load(); f != nil {
		(*f)()
	}
}

// OnEdge sets the edge handler.
func (s *RealSwitch) OnEdge(f func()) {
	if f == nil {
		s.onEdge.Store(nil)
		return
	}
	s.onEdge.Store(&f)
}

// Level returns true when the switch line is high.
func (s *RealSwitch) Level() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read switch pin: %w", err)
	}
	return v != 0, nil
}

// Close detaches the handler and releases the line.
func (s *RealSwitch) Close() error {
	s.onEdge.Store(nil)
	var errs []error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWake is the external wake pin. While awake it can be watched for level
// changes; Configure takes the line over for wake detection.
type RealWake struct {
	chip *gpiocdev.Chip

	mu      sync.Mutex
	line    *gpiocdev.Line
	trigger power.Trigger
	armed   bool
	woken   chan struct{}
	once    sync.Once
}

// NewRealWake opens the chip holding the wake pin.
func NewRealWake(chipName string) (*RealWake, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealWake{chip: chip, woken: make(chan struct{})}, nil
}

// Watch logs the pin level on every edge until Configure or Close.
func (w *RealWake) Watch(pin int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.line != nil {
		return fmt.Errorf("wake pin %d already requested", pin)
	}

	line, err := w.chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			slog.Debug("wake pin level", "pin", evt.Offset, "high", evt.Type == gpiocdev.LineEventRisingEdge)
		}))
	if err != nil {
		return fmt.Errorf("request wake pin %d: %w", pin, err)
	}
	w.line = line
	return nil
}

// Configure releases any watch and requests the pin with the bias and edge
// matching trigger.
func (w *RealWake) Configure(pin int, trigger power.Trigger) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.line != nil {
		if err := w.line.Close(); err != nil {
			return fmt.Errorf("release wake pin %d: %w", pin, err)
		}
		w.line = nil
	}

	bias, edge := gpiocdev.WithPullDown, gpiocdev.WithRisingEdge
	if trigger == power.AllLow {
		bias, edge = gpiocdev.WithPullUp, gpiocdev.WithFallingEdge
	}
	line, err := w.chip.RequestLine(pin,
		gpiocdev.AsInput,
		bias,
		edge,
		gpiocdev.WithEventHandler(w.handle))
	if err != nil {
		return fmt.Errorf("request wake pin %d: %w", pin, err)
	}
	w.line = line
	w.trigger = trigger
	w.armed = false
	return nil
}

func (w *RealWake) handle(gpiocdev.LineEvent) {
	w.mu.Lock()
	armed := w.armed
	w.mu.Unlock()
	if armed {
		w.once.Do(func() { close(w.woken) })
	}
}

// Arm enables wake detection. If the pin already sits at the wake level the
// wake fires immediately.
func (w *RealWake) Arm() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.line == nil {
		return fmt.Errorf("wake pin not configured")
	}
	w.armed = true

	v, err := w.line.Value()
	if err != nil {
		return fmt.Errorf("read wake pin: %w", err)
	}
	if (w.trigger == power.AnyHigh) == (v != 0) {
		w.once.Do(func() { close(w.woken) })
	}
	return nil
}

// Wait blocks until the armed pin fires or ctx ends.
func (w *RealWake) Wait(ctx context.Context) error {
	select {
	case <-w.woken:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the wake line and chip.
func (w *RealWake) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	if w.line != nil {
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close wake pin: %w", err))
		}
		w.line = nil
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
