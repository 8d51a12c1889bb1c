package display

// TextOp is one recorded Text call.
type TextOp struct {
	S    string
	X, Y int
}

// FakeCanvas records drawing calls for test assertions.
type FakeCanvas struct {
	W, H int

	// Texts drawn since the last Show.
	Texts []TextOp

	// Frames holds the Texts of every Show, in order.
	Frames [][]TextOp

	// Fills and Rects count clear operations.
	Fills int
	Rects int

	// ShowError, if set, is returned by Show.
	ShowError error

	// PowerOffError, if set, is returned by PowerOff.
	PowerOffError error

	// PoweredOff tracks if PowerOff was called.
	PoweredOff bool
}

// NewFakeCanvas creates a 128x64 FakeCanvas.
func NewFakeCanvas() *FakeCanvas {
	return &FakeCanvas{W: 128, H: 64}
}

func (f *FakeCanvas) Fill(c Color) {
	f.Fills++
	f.Texts = nil
}

func (f *FakeCanvas) FillRect(x, y, w, h int, c Color) {
	f.Rects++
}

func (f *FakeCanvas) Text(s string, x, y int, c Color) {
	f.Texts = append(f.Texts, TextOp{S: s, X: x, Y: y})
}

// Show records the current texts as a frame.
func (f *FakeCanvas) Show() error {
	if f.ShowError != nil {
		return f.ShowError
	}
	f.Frames = append(f.Frames, f.Texts)
	f.Texts = nil
	return nil
}

// PowerOff marks the canvas as powered off.
func (f *FakeCanvas) PowerOff() error {
	if f.PowerOffError != nil {
		return f.PowerOffError
	}
	f.PoweredOff = true
	return nil
}

func (f *FakeCanvas) Width() int  { return f.W }
func (f *FakeCanvas) Height() int { return f.H }

// Shows returns the number of successful Show calls.
func (f *FakeCanvas) Shows() int {
	return len(f.Frames)
}

// LastFrame returns the texts of the most recent Show.
func (f *FakeCanvas) LastFrame() []TextOp {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}

// Reset clears recorded calls.
func (f *FakeCanvas) Reset() {
	f.Texts = nil
	f.Frames = nil
	f.Fills = 0
	f.Rects = 0
	f.ShowError = nil
	f.PowerOffError = nil
	f.PoweredOff = false
}
