// Package gpio connects the rotary encoder, its push switch and the external
// wake pin to GPIO lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// DefaultChip is the SoC GPIO controller on Raspberry Pi class boards.
const DefaultChip = "gpiochip0"

// QuadratureSink receives the encoder's CLK and DT levels after every edge.
// Update is called from the line's event goroutine.
type QuadratureSink interface {
	Update(clk, dt bool)
}

// Encoder feeds CLK/DT edges to a QuadratureSink until closed.
type Encoder interface {
	Close() error
}

// Switch is the encoder push button.
type Switch interface {
	// Level returns the raw level. true = high (released, pulled up).
	Level() (bool, error)

	// OnEdge sets the function called on every edge, from the line's
	// event goroutine. It must not block.
	OnEdge(f func())

	// Close detaches the edge handler and releases the line.
	Close() error
}

// Default pins (BCM numbering).
const (
	PinCLK  = 25
	PinDT   = 26
	PinSW   = 27
	PinWake = 33
)
