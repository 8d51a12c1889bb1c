//go:build !linux

package gpio

import (
	"context"
	"errors"

	"github.com/sweeney/light-delay/internal/power"
)

var errUnsupported = errors.New("gpio: not supported")

// RealEncoder is not available on non-Linux platforms.
type RealEncoder struct{}

// NewRealEncoder returns an error on non-Linux platforms.
func NewRealEncoder(chipName string, clkPin, dtPin int, sink QuadratureSink) (*RealEncoder, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (e *RealEncoder) Close() error { return nil }

// RealSwitch is not available on non-Linux platforms.
type RealSwitch struct{}

// NewRealSwitch returns an error on non-Linux platforms.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (s *RealSwitch) Level() (bool, error) { return false, errUnsupported }
func (s *RealSwitch) OnEdge(f func())      {}
func (s *RealSwitch) Close() error { return nil }

// RealWake is not available on non-Linux platforms.
type RealWake struct{}

// NewRealWake returns an error on non-Linux platforms.
func NewRealWake(chipName string) (*RealWake, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (w *RealWake) Watch(pin int) error                            { return errUnsupported }
func (w *RealWake) Configure(pin int, trigger power.Trigger) error { return errUnsupported }
func (w *RealWake) Arm() error                                     { return errUnsupported }
func (w *RealWake) Wait(ctx context.Context) error                 { return errUnsupported }
func (w *RealWake) Close() error                                   { return nil }
