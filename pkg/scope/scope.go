package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sample"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/window"
)

// Trace colors, one per channel.
var traceColors = [sampler.NumChannels]color.RGBA{
	{R: 255, G: 165, B: 0, A: 255},   // Orange
	{R: 100, G: 200, B: 255, A: 255}, // Light blue
	{R: 120, G: 220, B: 120, A: 255}, // Green
	{R: 230, G: 100, B: 200, A: 255}, // Magenta
}

// ScopeWidget is a custom Fyne widget that plots the four telemetry channels
// over the configured time window.
type ScopeWidget struct {
	widget.BaseWidget

	names  [sampler.NumChannels]string
	window time.Duration

	// Data (protected by mu)
	mu             sync.RWMutex
	displaySamples []sample.Sample // Reused for downsampling
	stats          [sampler.NumChannels]window.Stats
	hidden         [sampler.NumChannels]bool
	xMin, xMax     time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	maxPoints := cfg.Display.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 1000
	}
	s := &ScopeWidget{
		names:            cfg.ChannelNames(),
		window:           time.Duration(cfg.Display.WindowSeconds * float64(time.Second)),
		displaySamples:   make([]sample.Sample, 0, maxPoints),
		maxDisplayPoints: maxPoints,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData replaces the plotted data.
// This should be called from a window callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, stats [sampler.NumChannels]window.Stats) {
	s.mu.Lock()
	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.stats = stats
	s.updateTimeAxis()
	s.mu.Unlock()

	s.Refresh()
}

// SetChannelVisible shows or hides one trace.
func (s *ScopeWidget) SetChannelVisible(ch int, visible bool) {
	if ch < 0 || ch >= sampler.NumChannels {
		return
	}
	s.mu.Lock()
	s.hidden[ch] = !visible
	s.mu.Unlock()
	s.Refresh()
}

// SetChannelNames updates the legend labels.
func (s *ScopeWidget) SetChannelNames(names [sampler.NumChannels]string) {
	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
	s.Refresh()
}

// updateTimeAxis calculates the X range. Caller holds mu.
func (s *ScopeWidget) updateTimeAxis() {
	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	// Fill the window so the trace grows from the left
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
