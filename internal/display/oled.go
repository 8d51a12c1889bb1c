package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// DefaultAddress is the only I2C address the ssd1306 driver talks to.
const DefaultAddress = 0x3C

// OLEDConfig selects the panel.
type OLEDConfig struct {
	Bus     string // periph bus name, "" for the first bus
	Address uint16
	Width   int
	Height  int
	Flip    bool // rotate 180 degrees
}

// OLED is a Canvas backed by an SSD1306 panel on I2C.
type OLED struct {
	bus  i2c.BusCloser
	dev  *ssd1306.Dev
	img  *image1bit.VerticalLSB
	face font.Face
}

// OpenOLED initialises the host drivers, opens the bus and configures the panel.
func OpenOLED(cfg OLEDConfig) (*OLED, error) {
	if cfg.Address != 0 && cfg.Address != DefaultAddress {
		return nil, fmt.Errorf("ssd1306: unsupported address %#x", cfg.Address)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}

	opts := ssd1306.DefaultOpts
	if cfg.Width > 0 {
		opts.W = cfg.Width
	}
	if cfg.Height > 0 {
		opts.H = cfg.Height
	}
	opts.Rotated = cfg.Flip

	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init ssd1306: %w", err)
	}

	return &OLED{
		bus:  bus,
		dev:  dev,
		img:  image1bit.NewVerticalLSB(dev.Bounds()),
		face: basicfont.Face7x13,
	}, nil
}

func bit(c Color) image1bit.Bit {
	return image1bit.Bit(c != Black)
}

// Fill sets every pixel of the buffer.
func (o *OLED) Fill(c Color) {
	var b byte
	if c != Black {
		b = 0xFF
	}
	for i := range o.img.Pix {
		o.img.Pix[i] = b
	}
}

// FillRect sets a rectangle of the buffer, clipped to the panel.
func (o *OLED) FillRect(x, y, w, h int, c Color) {
	r := image.Rect(x, y, x+w, y+h).Intersect(o.img.Bounds())
	v := bit(c)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			o.img.SetBit(px, py, v)
		}
	}
}

// Text draws s with its cell's top-left corner at (x, y).
func (o *OLED) Text(s string, x, y int, c Color) {
	d := font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(bit(c)),
		Face: o.face,
		Dot:  fixed.P(x, y+o.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// Show pushes the buffer to the panel.
func (o *OLED) Show() error {
	if err := o.dev.Draw(o.dev.Bounds(), o.img, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306 draw: %w", err)
	}
	return nil
}

// PowerOff blanks and halts the panel.
func (o *OLED) PowerOff() error {
	if err := o.dev.Halt(); err != nil {
		return fmt.Errorf("ssd1306 halt: %w", err)
	}
	return nil
}

func (o *OLED) Width() int  { return o.img.Bounds().Dx() }
func (o *OLED) Height() int { return o.img.Bounds().Dy() }

// Close releases the bus.
func (o *OLED) Close() error {
	return o.bus.Close()
}
