// Package display renders the dialed value and countdowns to a small
// monochrome OLED.
//
// Canvas is the driver seam: OLED drives a real SSD1306 over I2C, FakeCanvas
// records drawing for tests. Presenter decides what to draw and when.
package display

// Color of a monochrome pixel.
type Color uint8

const (
	Black Color = 0
	White Color = 1
)

// Canvas is a buffered monochrome display. Drawing calls only touch the
// buffer; Show pushes it to the panel.
type Canvas interface {
	Fill(c Color)
	FillRect(x, y, w, h int, c Color)
	Text(s string, x, y int, c Color)
	Show() error
	PowerOff() error
	Width() int
	Height() int
}

// Headless is a Canvas without a panel, used when no display is configured.
type Headless struct {
	W, H int
}

func (Headless) Fill(Color)                       {}
func (Headless) FillRect(x, y, w, h int, c Color) {}
func (Headless) Text(s string, x, y int, c Color) {}
func (Headless) Show() error                      { return nil }
func (Headless) PowerOff() error                  { return nil }
func (h Headless) Width() int                     { return h.W }
func (h Headless) Height() int                    { return h.H }
