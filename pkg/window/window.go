// Package window keeps the most recent samples inside a time window and
// tracks per-channel statistics over them.
package window

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sample"
	"github.com/itohio/kbtelemetry/pkg/sampler"
)

var _ Buffer = (*Window)(nil)

// Stats summarises one channel over the window.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
	Last float64
	Rate float64 // Change per second between the last two samples
}

// UpdateFunc receives copies of the window contents after every sample.
type UpdateFunc func(samples []sample.Sample, stats [sampler.NumChannels]Stats)

// Buffer processes samples and exposes the windowed view.
type Buffer interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // FIFO, oldest first
	Stats() [sampler.NumChannels]Stats
	OnUpdate(UpdateFunc)
}

// Window implements Buffer.
// Samples older than the window duration, measured from the newest sample,
// are dropped on every insert.
type Window struct {
	duration time.Duration

	samples []sample.Sample
	stats   [sampler.NumChannels]Stats
	mu      sync.RWMutex

	callbacks []UpdateFunc
	cbMu      sync.RWMutex

	// Set when the input channel closes, suppresses callbacks.
	shutdown bool
}

// New creates a window sized by cfg.Display.WindowSeconds.
func New(cfg *config.Config) *Window {
	return NewWithDuration(time.Duration(cfg.Display.WindowSeconds * float64(time.Second)))
}

// NewWithDuration creates a window of the given length.
func NewWithDuration(d time.Duration) *Window {
	if d <= 0 {
		d = 10 * time.Second
	}
	return &Window{
		duration: d,
		samples:  make([]sample.Sample, 0),
	}
}

// Duration returns the window length.
func (w *Window) Duration() time.Duration {
	return w.duration
}

// ProcessSamples consumes input until it closes, then marks the window as
// shut down so no further callbacks fire.
func (w *Window) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		w.Add(s)
	}
	w.mu.Lock()
	w.shutdown = true
	w.mu.Unlock()
}

// Add inserts a sample, trims the window, recomputes the stats and notifies
// callbacks unless the window is shut down.
func (w *Window) Add(s sample.Sample) {
	w.mu.Lock()

	w.samples = append(w.samples, s)

	cutoff := s.Timestamp.Add(-w.duration)
	drop := 0
	for drop < len(w.samples)-1 && !w.samples[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		w.samples = append(w.samples[:0], w.samples[drop:]...)
	}

	w.stats = computeStats(w.samples)
	notify := !w.shutdown

	w.mu.Unlock()

	if notify {
		w.notifyCallbacks()
	}
}

func computeStats(samples []sample.Sample) [sampler.NumChannels]Stats {
	var stats [sampler.NumChannels]Stats
	if len(samples) == 0 {
		return stats
	}

	for ch := range stats {
		stats[ch].Min = math.Inf(1)
		stats[ch].Max = math.Inf(-1)
	}

	for _, s := range samples {
		for ch, v := range s.Values {
			stats[ch].Min = math.Min(stats[ch].Min, v)
			stats[ch].Max = math.Max(stats[ch].Max, v)
			stats[ch].Mean += v
		}
	}

	n := float64(len(samples))
	last := samples[len(samples)-1]
	for ch := range stats {
		stats[ch].Mean /= n
		stats[ch].Last = last.Values[ch]
	}

	if len(samples) >= 2 {
		prev := samples[len(samples)-2]
		dt := last.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt > 0 {
			for ch := range stats {
				stats[ch].Rate = (last.Values[ch] - prev.Values[ch]) / dt
			}
		}
	}

	return stats
}

// Samples returns a copy of the buffered samples.
func (w *Window) Samples() []sample.Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]sample.Sample, len(w.samples))
	copy(result, w.samples)
	return result
}

// Stats returns the current per-channel statistics.
func (w *Window) Stats() [sampler.NumChannels]Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Clear drops every buffered sample.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = w.samples[:0]
	w.stats = [sampler.NumChannels]Stats{}
}

// OnUpdate registers a callback. Callbacks run on the processing goroutine
// and should return quickly.
func (w *Window) OnUpdate(callback UpdateFunc) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// ResetShutdown re-enables callbacks before a new pipeline is attached.
func (w *Window) ResetShutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shutdown = false
}

func (w *Window) notifyCallbacks() {
	w.mu.RLock()
	samples := make([]sample.Sample, len(w.samples))
	copy(samples, w.samples)
	stats := w.stats
	w.mu.RUnlock()

	w.cbMu.RLock()
	callbacks := make([]UpdateFunc, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, stats)
		}
	}
}
