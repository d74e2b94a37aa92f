package scope

import (
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

var (
	gridColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	traceColor  = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	cursorColor = color.RGBA{R: 0, G: 100, B: 200, A: 255}   // Dark blue
	infoColor   = color.RGBA{R: 200, G: 200, B: 200, A: 255} // Light gray
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Reused trace buffer
	trace []float64
	// Reused trace points
	points []fyne.Position

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	var cursor int
	r.trace, cursor = r.scope.trace(r.trace)
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	reading := r.scope.reading
	rate := r.scope.rate
	pending := r.scope.pending
	window := r.scope.window
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := math32.Max(size.Width-marginLeft-marginRight, 1)
	plotHeight := math32.Max(size.Height-marginTop-marginBottom, 1)
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, len(r.trace))

	if len(r.trace) > 1 {
		r.drawTrace(plotX, plotY, plotWidth, plotHeight, yMin, yMax)
	}
	if cursor >= 0 && cursor < len(r.trace) && len(r.trace) > 1 {
		r.drawCursor(plotX, plotY, plotWidth, plotHeight, cursor, len(r.trace))
	}

	if reading {
		info := fmt.Sprintf("%d samples/s", rate)
		if window > 0 {
			info += fmt.Sprintf("   read buffer %d/%d bytes used", pending, window)
		}
		r.drawInfo(plotX, plotY, info)
	} else {
		r.drawInfo(plotX, plotY, "not connected")
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, n int) {
	numHLines := 8
	for i := range numHLines + 1 {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(formatValue(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 8
	for i := range numVLines + 1 {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		if n > 1 {
			index := i * (n - 1) / numVLines
			text := canvas.NewText(strconv.Itoa(index), labelColor)
			text.TextSize = 10
			text.Alignment = fyne.TextAlignCenter
			text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
			r.objects = append(r.objects, text)
		}
	}
}

// drawTrace draws the sample curve.
func (r *scopeRenderer) drawTrace(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64) {
	n := len(r.trace)
	r.points = r.points[:0]
	for i, v := range r.trace {
		x := plotX + float32(i)*plotWidth/float32(n-1)
		y := plotY + plotHeight - normalize(v, yMin, yMax)*plotHeight
		r.points = append(r.points, fyne.NewPos(x, y))
	}

	for i := range len(r.points) - 1 {
		line := canvas.NewLine(traceColor)
		line.Position1 = r.points[i]
		line.Position2 = r.points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawCursor marks the slot the next sample overwrites.
func (r *scopeRenderer) drawCursor(plotX, plotY, plotWidth, plotHeight float32, cursor, n int) {
	x := plotX + float32(cursor)*plotWidth/float32(n-1)
	line := canvas.NewLine(cursorColor)
	line.Position1 = fyne.NewPos(x, plotY)
	line.Position2 = fyne.NewPos(x, plotY+plotHeight)
	line.StrokeWidth = 1
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) drawInfo(plotX, plotY float32, info string) {
	text := canvas.NewText(info, infoColor)
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

// normalize maps v into [0, 1] over [yMin, yMax], clamping out-of-range values.
func normalize(v, yMin, yMax float64) float32 {
	if yMax <= yMin {
		return 0
	}
	return math32.Min(math32.Max(float32((v-yMin)/(yMax-yMin)), 0), 1)
}

func formatValue(v float64) string {
	switch {
	case v == 0:
		return "0"
	case v >= 100 || v <= -100:
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}
