package scope

import (
	"testing"
	"time"

	"github.com/itohio/kbtelemetry/pkg/window"
	"github.com/stretchr/testify/assert"
)

func TestPlotAreaPoint(t *testing.T) {
	start := time.Now()
	a := plotArea{x: 50, y: 40, w: 100, h: 200, xMin: start, xMax: start.Add(10 * time.Second)}

	p := a.point(start, 0)
	assert.Equal(t, float32(50), p.X)
	assert.Equal(t, float32(240), p.Y)

	p = a.point(start.Add(5*time.Second), 1)
	assert.Equal(t, float32(100), p.X)
	assert.Equal(t, float32(40), p.Y)

	// Values outside 0..1 stay inside the plot.
	assert.Equal(t, float32(40), a.point(start, 2).Y)
	assert.Equal(t, float32(240), a.point(start, -1).Y)
}

func TestPlotAreaPoint_EmptySpan(t *testing.T) {
	start := time.Now()
	a := plotArea{x: 10, w: 100, h: 100, xMin: start, xMax: start}
	assert.Equal(t, float32(10), a.point(start.Add(time.Second), 0.5).X)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1023", formatCounts(1))
	assert.Equal(t, "0", formatCounts(0))
	assert.Equal(t, "512", formatCounts(0.5))
	assert.Equal(t, "0.50s", formatTime(500*time.Millisecond))
	assert.Equal(t, "2.5s", formatTime(2500*time.Millisecond))
}

func TestLegendText(t *testing.T) {
	st := window.Stats{Min: 0, Max: 1, Last: 102.0 / 1023}
	assert.Equal(t, "A3 (GP26): 102 [0..1023]", legendText("A3 (GP26)", st))
}
