package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goscope/pkg/acquire"
)

// ScopeWidget is a custom Fyne widget that displays the sample ring buffer
// as an oscilloscope trace.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []float64
	cursor  int
	rate    int
	pending int
	window  int
	reading bool

	// Fixed vertical range
	yMin, yMax float64

	// Ordered draws oldest-first instead of storage order.
	ordered bool
}

// New creates a ScopeWidget with a fixed vertical range of [0, yMax].
func New(yMax float64) *ScopeWidget {
	if yMax <= 0 {
		yMax = 1
	}
	s := &ScopeWidget{
		samples: make([]float64, 0, 128),
		yMin:    0,
		yMax:    yMax,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// SetOrdered selects chronological (oldest-first) drawing instead of storage order.
func (s *ScopeWidget) SetOrdered(ordered bool) {
	s.mu.Lock()
	s.ordered = ordered
	s.mu.Unlock()
	s.Refresh()
}

// SetRange changes the vertical range.
func (s *ScopeWidget) SetRange(yMin, yMax float64) {
	if yMax <= yMin {
		return
	}
	s.mu.Lock()
	s.yMin, s.yMax = yMin, yMax
	s.mu.Unlock()
	s.Refresh()
}

// UpdateView copies the trace data out of v. Call on the Fyne main thread.
func (s *ScopeWidget) UpdateView(v *acquire.View) {
	s.mu.Lock()

	s.reading = v.State == acquire.Reading
	s.samples = append(s.samples[:0], v.Samples...)
	s.cursor = v.Cursor
	s.rate = v.Rate
	s.pending = v.Pending
	s.window = v.Window

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// trace returns the samples in drawing order and the drawn cursor position.
// Callers must hold mu.
func (s *ScopeWidget) trace(dst []float64) ([]float64, int) {
	dst = dst[:0]
	if !s.ordered {
		return append(dst, s.samples...), s.cursor
	}
	if s.cursor > len(s.samples) {
		return append(dst, s.samples...), -1
	}
	dst = append(dst, s.samples[s.cursor:]...)
	dst = append(dst, s.samples[:s.cursor]...)
	return dst, -1
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
