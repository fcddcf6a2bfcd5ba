package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/kbtelemetry/pkg/sample"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/window"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// plotArea is the inner rectangle the traces are drawn into.
type plotArea struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

// point maps a timestamp and a normalized value (0..1) into widget coordinates.
func (p plotArea) point(t time.Time, v float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	var fx float32
	if span > 0 {
		fx = float32(t.Sub(p.xMin).Seconds() / span)
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return fyne.NewPos(p.x+fx*p.w, p.y+p.h-float32(v)*p.h)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	stats := r.scope.stats
	hidden := r.scope.hidden
	names := r.scope.names
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = float32(50.0)
		marginRight  = float32(20.0)
		marginTop    = float32(40.0)
		marginBottom = float32(30.0)
	)
	area := plotArea{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin,
		xMax: xMax,
	}

	r.drawGrid(area)
	for ch := range sampler.NumChannels {
		if !hidden[ch] {
			r.drawTrace(area, samples, ch)
		}
	}
	r.drawLegend(area, names, stats, hidden)
}

// drawGrid draws the oscilloscope-style grid with a 0..1023 value axis.
func (r *scopeRenderer) drawGrid(a plotArea) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := a.y + float32(i)*a.h/numHLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(a.x, y)
		line.Position2 = fyne.NewPos(a.x+a.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := 1 - float64(i)/numHLines
		text := canvas.NewText(formatCounts(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	span := a.xMax.Sub(a.xMin)
	for i := range numVLines + 1 {
		x := a.x + float32(i)*a.w/numVLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, a.y)
		line.Position2 = fyne.NewPos(x, a.y+a.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := span * time.Duration(i) / numVLines
		text := canvas.NewText(formatTime(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one channel as connected line segments.
func (r *scopeRenderer) drawTrace(a plotArea, samples []sample.Sample, ch int) {
	if len(samples) < 2 {
		return
	}

	prev := a.point(samples[0].Timestamp, samples[0].Values[ch])
	for _, s := range samples[1:] {
		p := a.point(s.Timestamp, s.Values[ch])
		line := canvas.NewLine(traceColors[ch])
		line.Position1 = prev
		line.Position2 = p
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
		prev = p
	}
}

// drawLegend draws one label per channel above the plot.
func (r *scopeRenderer) drawLegend(a plotArea, names [sampler.NumChannels]string, stats [sampler.NumChannels]window.Stats, hidden [sampler.NumChannels]bool) {
	colWidth := a.w / sampler.NumChannels
	for ch := range sampler.NumChannels {
		c := traceColors[ch]
		if hidden[ch] {
			c.A = 80
		}
		text := canvas.NewText(legendText(names[ch], stats[ch]), c)
		text.TextSize = 11
		text.Alignment = fyne.TextAlignLeading
		text.Move(fyne.NewPos(a.x+float32(ch)*colWidth, 10))
		r.objects = append(r.objects, text)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

// toCounts converts a normalized value back to the 0..1023 wire scale.
func toCounts(v float64) int {
	return int(v*sampler.FilteredMax + 0.5)
}

func formatCounts(v float64) string {
	return fmt.Sprintf("%d", toCounts(v))
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func legendText(name string, st window.Stats) string {
	return fmt.Sprintf("%s: %d [%d..%d]", name, toCounts(st.Last), toCounts(st.Min), toCounts(st.Max))
}
