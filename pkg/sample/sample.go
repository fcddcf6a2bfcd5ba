package sample

import (
	"log"
	"time"

	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
)

// Sample represents a processed frame with each channel normalized to 0..1.
type Sample struct {
	Timestamp time.Time
	Values    [sampler.NumChannels]float64
}

// Converter is a function type that converts a Frame channel to a Sample channel.
type Converter func(in <-chan telemetry.Frame) <-chan Sample

// NewConverter creates a converter function that transforms Frames to Samples.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan telemetry.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for f := range in {
				select {
				case out <- Convert(f):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Convert normalizes a frame.
func Convert(f telemetry.Frame) Sample {
	s := Sample{Timestamp: f.Timestamp}
	for i, v := range f.Values {
		s.Values[i] = Normalize(v)
	}
	return s
}

// Normalize maps a 10-bit filtered value to 0..1.
func Normalize(v uint16) float64 {
	return float64(v) / sampler.FilteredMax
}
